package tool

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/harunnryd/chimera/pkg/metrics"
)

// LoaderConfig carries the discovery settings for manifest-backed tools.
type LoaderConfig struct {
	Dir         string
	ExecTimeout time.Duration
}

// Loader performs the one-shot startup scan of the tools directory. Each
// manifest file declares one command-backed tool; a malformed manifest is
// logged and skipped so the rest of the directory still loads. There is no
// file watching: tools are picked up on the next process start.
type Loader struct {
	cfg    LoaderConfig
	logger *slog.Logger
	obs    metrics.Observer
}

func NewLoader(cfg LoaderConfig, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{cfg: cfg, logger: logger, obs: metrics.NoopObserver{}}
}

func (l *Loader) SetObserver(obs metrics.Observer) {
	if obs != nil {
		l.obs = obs
	}
}

type manifestField struct {
	Name        string `mapstructure:"name"`
	Type        string `mapstructure:"type"`
	Required    bool   `mapstructure:"required"`
	Default     any    `mapstructure:"default"`
	Description string `mapstructure:"description"`
}

type manifest struct {
	Name        string          `mapstructure:"name"`
	Description string          `mapstructure:"description"`
	Command     []string        `mapstructure:"command"`
	Args        []manifestField `mapstructure:"args"`
}

var manifestExtensions = map[string]bool{
	".toml": true,
	".yaml": true,
	".yml":  true,
	".json": true,
}

// Load scans the configured directory and registers every well-formed
// manifest, returning how many tools were added. A missing directory is a
// warning, not an error: the agent still runs with builtins only.
func (l *Loader) Load(reg *Registry) int {
	entries, err := os.ReadDir(l.cfg.Dir)
	if err != nil {
		l.logger.Warn("tools_directory_unreadable", "dir", l.cfg.Dir, "error", err)
		return 0
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !manifestExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	loaded := 0
	for _, name := range names {
		path := filepath.Join(l.cfg.Dir, name)
		spec, err := l.loadManifest(path)
		if err != nil {
			l.logger.Warn("tool_manifest_skipped", "path", path, "error", err)
			continue
		}
		if err := reg.Register(spec); err != nil {
			l.logger.Warn("tool_manifest_skipped", "path", path, "error", err)
			continue
		}
		l.obs.RecordEvent(metrics.MetricsEvent{
			Name: metrics.EventToolDiscovered,
			Time: time.Now(),
			Tags: map[string]string{"tool": spec.Name},
		})
		l.logger.Info("tool_discovered", "tool", spec.Name, "path", path)
		loaded++
	}
	return loaded
}

func (l *Loader) loadManifest(path string) (Spec, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Spec{}, err
	}
	var m manifest
	if err := v.Unmarshal(&m); err != nil {
		return Spec{}, err
	}

	b := New(m.Name, m.Description)
	for _, f := range m.Args {
		kind, err := parseKind(f.Type)
		if err != nil {
			return Spec{}, err
		}
		b.field(Field{
			Name:        f.Name,
			Kind:        kind,
			Required:    f.Required,
			Default:     f.Default,
			Description: f.Description,
		})
	}
	if len(m.Command) == 0 {
		return Spec{}, errors.New("manifest declares no command")
	}
	b.Handler(CommandHandler(m.Command, l.cfg.ExecTimeout))
	return b.Spec()
}
