package config

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates a JSON schema for the Config struct
func GenerateSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}

// Verify checks the config against constraints declared in its jsonschema tags,
// i.e. required properties, enums and minimums
func Verify(cfg *Config) error {
	r := jsonschema.Reflector{RequiredFromJSONSchemaTags: true, DoNotReference: true, ExpandedStruct: true}
	schema := r.Reflect(cfg)

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	return verifyObject("", schema, doc)
}

func verifyObject(path string, schema *jsonschema.Schema, doc map[string]any) error {
	for _, name := range schema.Required {
		if v, ok := doc[name]; !ok || isEmpty(v) {
			return fmt.Errorf("%s is required", joinPath(path, name))
		}
	}
	if schema.Properties == nil {
		return nil
	}
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		v, ok := doc[pair.Key]
		if !ok {
			continue
		}
		if err := verifyValue(joinPath(path, pair.Key), pair.Value, v); err != nil {
			return err
		}
	}
	return nil
}

func verifyValue(path string, schema *jsonschema.Schema, v any) error {
	if len(schema.Enum) > 0 && !slices.Contains(schema.Enum, v) {
		return fmt.Errorf("%s must be one of %v, got %v", path, schema.Enum, v)
	}

	if schema.Minimum != "" {
		minimum, err := schema.Minimum.Float64()
		if n, ok := v.(float64); ok && err == nil && n < minimum {
			return fmt.Errorf("%s must be at least %s", path, schema.Minimum)
		}
	}

	switch val := v.(type) {
	case map[string]any:
		return verifyObject(path, schema, val)
	case []any:
		if schema.Items == nil {
			return nil
		}
		for i, item := range val {
			if err := verifyValue(fmt.Sprintf("%s[%d]", path, i), schema.Items, item); err != nil {
				return err
			}
		}
	}
	return nil
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}
	return false
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
