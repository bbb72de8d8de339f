package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

// ParseDuration reads the Go duration string of the field at path.
// Blank and zero values yield def. Negative values are rejected.
func ParseDuration(path, raw string, def time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	switch {
	case err != nil:
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	case d < 0:
		return 0, fmt.Errorf("%s: duration must be >= 0, got %s", path, raw)
	case d == 0:
		return def, nil
	}
	return d, nil
}

// formatOf picks the decoder from the file extension. Anything that is not
// YAML is read as JSON.
func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}

// yamlToJSON re-encodes a YAML document as JSON so both formats share the
// strict JSON decoder. An empty document becomes {}.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	if doc == nil {
		return []byte("{}"), nil
	}
	out, err := json.Marshal(jsonable(doc))
	if err != nil {
		return nil, fmt.Errorf("yaml->json: %w", err)
	}
	return out, nil
}

// jsonable converts map[any]any nodes (non-string YAML keys) into
// map[string]any, recursively.
func jsonable(v any) any {
	switch n := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(n))
		for k, val := range n {
			m[fmt.Sprint(k)] = jsonable(val)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(n))
		for k, val := range n {
			m[k] = jsonable(val)
		}
		return m
	case []any:
		out := make([]any, len(n))
		for i, val := range n {
			out[i] = jsonable(val)
		}
		return out
	}
	return v
}
