package rules

import (
	"encoding/json"
	"fmt"

	_ "embed"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/archalign/validation-backend/internal/types"
)

//go:embed catalog.yaml
var catalogYAML []byte

type catalogFile struct {
	Rules []catalogRule `yaml:"rules"`
}

type catalogRule struct {
	Name        string         `yaml:"name"`
	RuleType    string         `yaml:"rule_type"`
	Scope       string         `yaml:"scope"`
	Severity    string         `yaml:"severity"`
	Description string         `yaml:"description"`
	Logic       map[string]any `yaml:"logic"`
}

// DefaultCatalog parses the embedded rule catalog. The catalog is seeded
// insert-if-missing at startup so administrator edits are never overwritten.
func DefaultCatalog() ([]*types.ValidationRule, error) {
	var file catalogFile
	if err := yaml.Unmarshal(catalogYAML, &file); err != nil {
		return nil, fmt.Errorf("parse rule catalog: %w", err)
	}
	out := make([]*types.ValidationRule, 0, len(file.Rules))
	for _, cr := range file.Rules {
		if cr.Name == "" {
			return nil, fmt.Errorf("catalog rule missing name")
		}
		if !types.ValidRuleType(cr.RuleType) {
			return nil, fmt.Errorf("catalog rule %q: bad rule_type %q", cr.Name, cr.RuleType)
		}
		if !types.ValidLayer(cr.Scope) {
			return nil, fmt.Errorf("catalog rule %q: bad scope %q", cr.Name, cr.Scope)
		}
		if !types.ValidSeverity(cr.Severity) {
			return nil, fmt.Errorf("catalog rule %q: bad severity %q", cr.Name, cr.Severity)
		}
		raw, err := json.Marshal(cr.Logic)
		if err != nil {
			return nil, fmt.Errorf("catalog rule %q: encode logic: %w", cr.Name, err)
		}
		if _, err := Parse(raw); err != nil {
			return nil, fmt.Errorf("catalog rule %q: %w", cr.Name, err)
		}
		out = append(out, &types.ValidationRule{
			Name:        cr.Name,
			RuleType:    cr.RuleType,
			Scope:       cr.Scope,
			Severity:    cr.Severity,
			Description: cr.Description,
			RuleLogic:   datatypes.JSON(raw),
			IsActive:    true,
		})
	}
	return out, nil
}
