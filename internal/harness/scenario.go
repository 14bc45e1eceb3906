package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Scenario defines a pipeline conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It is also the golden file
	// name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Pipeline is the path of the pipeline definition, relative to the
	// scenario file.
	Pipeline string `yaml:"pipeline"`

	// Setup statements run before the pipeline is executed.
	Setup []string `yaml:"setup,omitempty"`

	// Overwrite is passed to the checkpoint execution.
	Overwrite bool `yaml:"overwrite,omitempty"`

	// ExpectError is the checkpoint error code the execution must fail
	// with. Empty means the execution must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assertions validate the execution result and the final database
	// state.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of a scenario run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Checkpoint is the query checkpoint checked by query_rows and
	// row_count.
	Checkpoint string `yaml:"checkpoint,omitempty"`

	// Query is the statement run by final_state.
	Query string `yaml:"query,omitempty"`

	// Rows are the expected rows of query_rows and final_state.
	Rows [][]any `yaml:"rows,omitempty"`

	// Count is the expected number of rows of row_count.
	Count int `yaml:"count,omitempty"`

	// Objects are the expected created objects of created.
	Objects []string `yaml:"objects,omitempty"`
}

// Assertion type constants.
const (
	AssertQueryRows  = "query_rows"
	AssertRowCount   = "row_count"
	AssertCreated    = "created"
	AssertFinalState = "final_state"
)

var assertionTypes = []string{AssertQueryRows, AssertRowCount, AssertCreated, AssertFinalState}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Pipeline != "" && !filepath.IsAbs(scenario.Pipeline) {
		scenario.Pipeline = filepath.Join(filepath.Dir(path), scenario.Pipeline)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Pipeline == "" {
		return fmt.Errorf("pipeline is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d: %w", i, err)
		}
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertQueryRows, AssertRowCount:
		if a.Checkpoint == "" {
			return fmt.Errorf("%s requires checkpoint", a.Type)
		}
	case AssertFinalState:
		if a.Query == "" {
			return fmt.Errorf("%s requires query", a.Type)
		}
	case AssertCreated:
	default:
		return fmt.Errorf("unknown assertion type %q, expected one of %v", a.Type, assertionTypes)
	}
	if a.Type == AssertRowCount && a.Count < 0 {
		return fmt.Errorf("%s count must not be negative", a.Type)
	}
	if slices.Contains([]string{AssertQueryRows, AssertFinalState}, a.Type) && a.Rows == nil {
		return fmt.Errorf("%s requires rows", a.Type)
	}
	return nil
}
