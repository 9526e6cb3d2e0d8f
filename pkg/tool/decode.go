package tool

import (
	"strings"

	"github.com/mitchellh/mapstructure"
)

// DecodeArgs decodes a validated argument map into a typed struct, so
// handlers can work with real fields instead of map lookups. Matching is
// case/underscore insensitive, mirroring how settings maps are decoded.
func DecodeArgs(args map[string]any, out any) error {
	if len(args) == 0 {
		return nil
	}
	cfg := &mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           out,
		WeaklyTypedInput: true,
		MatchName: func(mapKey, fieldName string) bool {
			return normalizeKey(mapKey) == normalizeKey(fieldName)
		},
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	return decoder.Decode(args)
}

func normalizeKey(value string) string {
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "_", "")
	value = strings.ReplaceAll(value, "-", "")
	return value
}
