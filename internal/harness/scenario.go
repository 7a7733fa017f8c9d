package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/suql/internal/compiler"
	"github.com/roach88/suql/internal/ir"
)

// Scenario defines an end-to-end compilation scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dialect selects the SQL dialect. Empty falls back to the schema's
	// dialect, then to mysql.
	Dialect string `yaml:"dialect,omitempty"`

	// SessionID is the fixed session id. Empty uses the testutil default.
	SessionID string `yaml:"session_id,omitempty"`

	// Schema is a CUE or YAML relationship schema file. LoadScenario
	// resolves it relative to the scenario file.
	Schema string `yaml:"schema,omitempty"`

	// Relations are declared after the schema's relations.
	Relations []compiler.RelationSpec `yaml:"relations,omitempty"`

	// Script is the SuQL source to load.
	Script string `yaml:"script"`

	// Queries lists the names to request. Empty requests the main query.
	Queries []string `yaml:"queries,omitempty"`

	// Expect maps query names to their expected SQL.
	Expect map[string]string `yaml:"expect,omitempty"`

	// ExpectError is the expected error code (an ir.ErrorCode or "SYNTAX").
	ExpectError string `yaml:"expect_error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Script == "" {
		return fmt.Errorf("script is required")
	}

	if len(s.Expect) == 0 && s.ExpectError == "" {
		return fmt.Errorf("expect or expect_error is required")
	}

	if len(s.Expect) > 0 && s.ExpectError != "" {
		return fmt.Errorf("expect and expect_error are mutually exclusive")
	}

	if s.ExpectError != "" && !knownErrorCode(s.ExpectError) {
		return fmt.Errorf("expect_error: unknown error code %q", s.ExpectError)
	}

	if s.Schema != "" {
		if _, err := os.Stat(s.Schema); os.IsNotExist(err) {
			return fmt.Errorf("schema file not found: %s", s.Schema)
		}
	}

	for i, rel := range s.Relations {
		if rel.Left.Table == "" || rel.Right.Table == "" {
			return fmt.Errorf("relations[%d]: left and right tables are required", i)
		}
	}

	return nil
}

// ErrCodeSyntax marks a SuQL syntax error in results and expectations.
const ErrCodeSyntax = "SYNTAX"

// ErrCodeOther marks an error that carries no code.
const ErrCodeOther = "ERROR"

func knownErrorCode(code string) bool {
	switch code {
	case string(ir.ErrCodeConfiguration),
		string(ir.ErrCodeUnresolvedJoin),
		string(ir.ErrCodeUnknownQuery),
		string(ir.ErrCodeComposition),
		ErrCodeSyntax,
		ErrCodeOther:
		return true
	}
	return false
}
