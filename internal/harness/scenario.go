package harness

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed scenario.cue
var schemaSource string

// Step kinds, as they appear in traces.
const (
	KindTap     = "tap"
	KindReset   = "reset"
	KindRestart = "restart"
	KindExpect  = "expect"
)

// Scenario is a scripted sequence of gestures and checks.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`
}

// Step holds exactly one action.
type Step struct {
	Tap     *TapStep `yaml:"tap,omitempty"`
	Reset   bool     `yaml:"reset,omitempty"`
	Restart bool     `yaml:"restart,omitempty"`
	Expect  *Expect  `yaml:"expect,omitempty"`
}

// Kind returns the step kind.
func (s Step) Kind() string {
	switch {
	case s.Tap != nil:
		return KindTap
	case s.Reset:
		return KindReset
	case s.Restart:
		return KindRestart
	case s.Expect != nil:
		return KindExpect
	default:
		return ""
	}
}

// TapStep is a tap at device coordinates.
type TapStep struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Expect describes the state after the preceding steps.
// Nil fields are not checked; an empty History means "no clicks".
type Expect struct {
	Count   *int64   `yaml:"count,omitempty"`
	History *[]Point `yaml:"history,omitempty"`
}

// Point is a recorded click position.
type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// LoadScenario reads, validates and decodes a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario validates data against #Scenario and decodes it.
// Returns an error if the document is malformed, contains unknown fields,
// or has a step that is not exactly one action.
func ParseScenario(data []byte) (*Scenario, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if raw == nil {
		return nil, errors.New("invalid scenario: document is empty")
	}

	if err := validateSchema(raw); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	// Strict decode catches anything the schema let through by type.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}

	for i, step := range scenario.Steps {
		if step.Kind() == "" {
			return nil, fmt.Errorf("invalid scenario: steps[%d]: no action", i)
		}
	}

	return &scenario, nil
}

// validateSchema unifies the decoded document with #Scenario.
func validateSchema(doc any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("scenario.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	value := ctx.Encode(doc)
	if err := value.Err(); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Scenario")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return errors.New(cueerrors.Details(err, nil))
	}
	return nil
}
