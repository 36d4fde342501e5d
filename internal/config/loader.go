package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed scenario.schema.json
var scenarioSchemaJSON []byte

const schemaURL = "scenario.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func scenarioSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString(schemaURL, string(scenarioSchemaJSON))
	})
	return schema, schemaErr
}

func loadYAML(path string, out *Scenario) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return parse(b, out)
}

// parse checks the document against the scenario schema before decoding it
// into out.
func parse(b []byte, out *Scenario) error {
	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return err
	}
	// The validator expects encoding/json shaped values.
	js, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(js, &generic); err != nil {
		return err
	}
	s, err := scenarioSchema()
	if err != nil {
		return fmt.Errorf("compile scenario schema: %w", err)
	}
	if err := s.Validate(generic); err != nil {
		return err
	}
	return yaml.Unmarshal(b, out)
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	var sc Scenario
	if err := loadYAML(path, &sc); err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", path, err)
	}
	sc.applyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &sc, nil
}

// Parse is Load for an in-memory document.
func Parse(b []byte) (*Scenario, error) {
	var sc Scenario
	if err := parse(b, &sc); err != nil {
		return nil, err
	}
	sc.applyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate catches what the schema cannot express: spawn cells on the
// board, unique labels and spawns, and rules for rule-driven entities.
func (s *Scenario) Validate() error {
	labels := map[string]bool{}
	cells := map[CellDef]string{}
	needRules := false
	for _, e := range s.Entities {
		if labels[e.Label] {
			return fmt.Errorf("duplicate label %q", e.Label)
		}
		labels[e.Label] = true
		if e.Spawn.Row >= s.Board.Rows || e.Spawn.Col >= s.Board.Cols {
			return fmt.Errorf("%s spawns at (%d,%d) outside the %dx%d board",
				e.Label, e.Spawn.Row, e.Spawn.Col, s.Board.Rows, s.Board.Cols)
		}
		if other, taken := cells[e.Spawn]; taken {
			return fmt.Errorf("%s and %s share spawn (%d,%d)", other, e.Label, e.Spawn.Row, e.Spawn.Col)
		}
		cells[e.Spawn] = e.Label
		if e.Strategy == StrategyRules {
			needRules = true
		}
	}
	if needRules && len(s.Rules) == 0 {
		return fmt.Errorf("rules strategy used but no rules defined")
	}
	return nil
}
