package config

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

//go:embed schema.json
var embeddedSchema string

// VerifyAgainstEmbeddedSchema validates the config against the embedded JSON schema
func VerifyAgainstEmbeddedSchema(cfg *Config) error {
	// parse schema
	var schema map[string]interface{}
	if err := json.Unmarshal([]byte(embeddedSchema), &schema); err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}

	// convert config to JSON for validation
	configData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	var configMap map[string]interface{}
	if err := json.Unmarshal(configData, &configMap); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	// basic validation - check required fields match
	if err := validateRequiredFields(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// check enumerated values against the schema
	if err := validateEnums(schema, configMap); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}

// validateRequiredFields performs basic validation of required fields
func validateRequiredFields(cfg *Config) error {
	// check server config
	if cfg.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if cfg.Server.Timeout == 0 {
		return fmt.Errorf("server.timeout is required")
	}

	// check llm config
	if cfg.LLM.Provider == "" {
		return fmt.Errorf("llm.provider is required")
	}
	if cfg.LLM.Mode == "" {
		return fmt.Errorf("llm.mode is required")
	}
	if cfg.LLM.Provider == ProviderRelay && cfg.LLM.Endpoint == "" {
		return fmt.Errorf("llm.endpoint is required for relay provider")
	}

	return nil
}

// validateEnums checks llm section values against enums declared in the schema
func validateEnums(schema, configMap map[string]interface{}) error {
	llmDef, ok := lookup(schema, "$defs", "LLMConfig", "properties").(map[string]interface{})
	if !ok {
		return nil // schema without llm definition, nothing to check
	}
	llmCfg, ok := configMap["llm"].(map[string]interface{})
	if !ok {
		return nil
	}

	for name, def := range llmDef {
		enum, ok := lookup(def, "enum").([]interface{})
		if !ok {
			continue
		}
		val, ok := llmCfg[name]
		if !ok {
			continue
		}
		found := false
		for _, e := range enum {
			if e == val {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("llm.%s value %v is not one of %v", name, val, enum)
		}
	}
	return nil
}

// lookup walks nested maps by keys
func lookup(v interface{}, keys ...string) interface{} {
	for _, k := range keys {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil
		}
		v = m[k]
	}
	return v
}

// GenerateSchema generates a JSON schema for the Config struct
func GenerateSchema() (*jsonschema.Schema, error) {
	return jsonschema.Reflect(&Config{}), nil
}
