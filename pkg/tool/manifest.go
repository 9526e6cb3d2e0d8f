package tool

// SchemaObject renders a spec's argument schema as a JSON-schema style
// object, the shape LLM providers expect for function declarations.
func (s Spec) SchemaObject() map[string]any {
	properties := make(map[string]any, len(s.Fields))
	required := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		prop := map[string]any{"type": string(f.Kind)}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		if f.Default != nil {
			prop["default"] = f.Default
		}
		properties[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// Manifest renders every registered tool as a descriptor the engine embeds
// into the system prompt and hands to providers that support native tool
// calling.
func (r *Registry) Manifest() []map[string]any {
	specs := r.List()
	out := make([]map[string]any, 0, len(specs))
	for _, spec := range specs {
		out = append(out, map[string]any{
			"name":        spec.Name,
			"description": spec.Description,
			"parameters":  spec.SchemaObject(),
		})
	}
	return out
}
