/*
Package factory turns rule-table documents (YAML or JSON) into
jurisdiction rule sets.

PURPOSE:
  Legislation changes are shipped as data. A rule table is a versioned
  document listing effective-dated RuleSet rows; this package validates it
  and builds the immutable jurisdiction.Table the engine resolves against.

WHY A SCHEMA?
  - Typos in a rule file are compliance bugs, so unknown keys are rejected
  - Non-developers can review rule changes as plain YAML
  - The same file can be linted in CI (`statpay rules lint`)

DOCUMENT FORMAT:
  schema_version: "1.0.0"
  name: canada-statutory-holiday-pay
  rule_sets:
    - id: AB-2019
      province: AB
      effective_from: "2019-09-01"
      formula_type: percent_of_28_days
      formula_params: {lookback_days: 28, percentage: "0.05"}
      eligibility:
        min_employment_days: 0
        require_last_first_rule: true
        require_regular_workday: true
      premium_rate: "1.5"
      source_url: https://...
      last_verified: "2024-06-01"

VALIDATION (in order):
  1. schema_version satisfies SupportedSchemaVersions (semver constraint)
  2. Document matches schema/ruletable.schema.json (JSON Schema 2020-12)
  3. Every row passes RuleSet.Validate
  4. No two rows of a province overlap

USAGE:
  rt, err := factory.LoadFile("rules/canada.yaml")
  table := rt.Table()

  rt, err := factory.Default()   // embedded Canadian table

SEE ALSO:
  - jurisdiction/ruleset.go: RuleSet fields
  - jurisdiction/registry.go: publishing rows into a store
*/
package factory

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/jurisdiction"
)

// SupportedSchemaVersions is the range of document versions this build reads.
const SupportedSchemaVersions = "^1.0.0"

const schemaURL = "https://statpay.local/schema/ruletable.schema.json"

//go:embed schema/ruletable.schema.json
var schemaJSON string

//go:embed data/canada.yaml
var defaultTable []byte

// Format is the document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", generic.Invalid("path", "unsupported rule table extension %q", filepath.Ext(path))
	}
}

// =============================================================================
// RULE TABLE
// =============================================================================

// RuleTable is a parsed, validated rule-table document.
type RuleTable struct {
	SchemaVersion string                 `json:"schema_version"`
	Name          string                 `json:"name,omitempty"`
	Description   string                 `json:"description,omitempty"`
	RuleSets      []jurisdiction.RuleSet `json:"rule_sets"`
}

// Table builds the immutable resolver table.
func (rt *RuleTable) Table() *jurisdiction.Table {
	return jurisdiction.NewTable(rt.RuleSets)
}

// Seed publishes every row not already in the store. Rows whose ID is
// already stored are left alone, so seeding is repeatable.
func (rt *RuleTable) Seed(ctx context.Context, reg *jurisdiction.Registry) (int, error) {
	published := 0
	for _, rs := range rt.RuleSets {
		err := reg.Publish(ctx, rs)
		switch {
		case err == nil:
			published++
		case errors.Is(err, generic.ErrDuplicateRuleSet):
		default:
			return published, fmt.Errorf("seed %s: %w", rs.ID, err)
		}
	}
	return published, nil
}

// =============================================================================
// PARSING
// =============================================================================

// Parse decodes and validates a rule-table document.
func Parse(data []byte, format Format) (*RuleTable, error) {
	doc, err := decode(data, format)
	if err != nil {
		return nil, err
	}

	if err := checkSchemaVersion(doc); err != nil {
		return nil, err
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, &generic.ValidationError{Field: "rule_table", Reason: err.Error()}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("re-encode rule table: %w", err)
	}
	var rt RuleTable
	if err := json.Unmarshal(raw, &rt); err != nil {
		return nil, &generic.ValidationError{Field: "rule_table", Reason: err.Error()}
	}

	if err := rt.Validate(); err != nil {
		return nil, err
	}
	return &rt, nil
}

// Validate checks every row and the table as a whole. Missing revisions
// default to 1.
func (rt *RuleTable) Validate() error {
	seen := make(map[string]bool, len(rt.RuleSets))
	for i := range rt.RuleSets {
		rs := &rt.RuleSets[i]
		if rs.Revision == 0 {
			rs.Revision = 1
		}
		key := fmt.Sprintf("%s#%d", rs.ID, rs.Revision)
		if seen[key] {
			return fmt.Errorf("rule set %s revision %d: %w", rs.ID, rs.Revision, generic.ErrDuplicateRuleSet)
		}
		seen[key] = true
		if err := rs.Validate(); err != nil {
			return err
		}
	}
	return rt.Table().CheckOverlaps()
}

// LoadFile reads a YAML or JSON rule table from disk.
func LoadFile(path string) (*RuleTable, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule table: %w", err)
	}
	rt, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rt, nil
}

// Default returns the embedded Canadian rule table.
func Default() (*RuleTable, error) {
	return Parse(defaultTable, FormatYAML)
}

// MustDefault is for tests and demo seeding.
func MustDefault() *RuleTable {
	rt, err := Default()
	if err != nil {
		panic(fmt.Sprintf("embedded rule table is invalid: %v", err))
	}
	return rt
}

// =============================================================================
// HELPERS
// =============================================================================

var (
	schemaOnce     sync.Once
	schemaCompiled *jsonschema.Schema
	schemaErr      error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("rule table schema load failed: %w", err)
			return
		}
		schemaCompiled, schemaErr = c.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("rule table schema compile failed: %w", schemaErr)
		}
	})
	return schemaCompiled, schemaErr
}

// decode returns the document as the generic JSON value tree the schema
// validator expects (map[string]any, []any, json.Number, string, bool).
func decode(data []byte, format Format) (any, error) {
	var raw []byte
	switch format {
	case FormatJSON:
		raw = data
	case FormatYAML:
		var tree any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, generic.Invalid("rule_table", "invalid YAML: %v", err)
		}
		converted, err := json.Marshal(jsonCompatible(tree))
		if err != nil {
			return nil, generic.Invalid("rule_table", "YAML is not representable as JSON: %v", err)
		}
		raw = converted
	default:
		return nil, generic.Invalid("format", "unsupported format %q", format)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, generic.Invalid("rule_table", "invalid JSON: %v", err)
	}
	return doc, nil
}

// jsonCompatible rewrites YAML-only values: unquoted dates become
// YYYY-MM-DD strings and non-string map keys become strings.
func jsonCompatible(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = jsonCompatible(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = jsonCompatible(val)
		}
		return out
	case time.Time:
		return t.Format(generic.DateLayout)
	default:
		return v
	}
}

func checkSchemaVersion(doc any) error {
	m, ok := doc.(map[string]any)
	if !ok {
		return generic.Invalid("rule_table", "document must be an object")
	}
	raw, ok := m["schema_version"].(string)
	if !ok {
		return generic.Invalid("schema_version", "schema_version must be a string")
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return generic.Invalid("schema_version", "%q is not a semantic version", raw)
	}
	constraint, err := semver.NewConstraint(SupportedSchemaVersions)
	if err != nil {
		return fmt.Errorf("bad schema constraint: %w", err)
	}
	if !constraint.Check(v) {
		return generic.Invalid("schema_version", "version %s is not supported (want %s)", v, SupportedSchemaVersions)
	}
	return nil
}
