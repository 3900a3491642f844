package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

// Scenario is a scripted editing session with expectations.
// Steps drive a Controller backed by a recording host; assertions check
// the grid after the last step.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Sheets lists the sheet names to create, in order.
	// Defaults to a single "Sheet 1".
	Sheets []string `yaml:"sheets,omitempty"`

	// Steps run in order against one Controller.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final grid and controller state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one call into the controller or one host message.
//
// Which fields apply depends on Action:
//
//	set_value        sheet, cell, value
//	set_values       sheet, cell, rows
//	set_code         sheet, cell, language, code
//	delete           sheet, range
//	set_format       sheet, range, attr, format (omit format to clear)
//	clear_formatting sheet, range
//	undo, redo
//	rerun            sheet (omit for every sheet)
//	complete         transaction, output | array | error (+ line) | cancel
//	get_cells        transaction, range, sheet (omit for the running cell's sheet), line
//
// complete and get_cells target the most recently dispatched transaction
// that is still waiting when transaction is empty.
type Step struct {
	Action string `yaml:"action"`

	Sheet string     `yaml:"sheet,omitempty"`
	Cell  string     `yaml:"cell,omitempty"`
	Range string     `yaml:"range,omitempty"`
	Value string     `yaml:"value,omitempty"`
	Rows  [][]string `yaml:"rows,omitempty"`

	Language string `yaml:"language,omitempty"`
	Code     string `yaml:"code,omitempty"`

	Attr   string  `yaml:"attr,omitempty"`
	Format *string `yaml:"format,omitempty"`

	Transaction string     `yaml:"transaction,omitempty"`
	Output      *string    `yaml:"output,omitempty"`
	Array       [][]string `yaml:"array,omitempty"`
	Error       *string    `yaml:"error,omitempty"`
	Line        *uint32    `yaml:"line,omitempty"`
	Cancel      bool       `yaml:"cancel,omitempty"`

	// Expect checks the outcome of this step. If nil, the step must not
	// fail and nothing else is checked.
	Expect *StepExpect `yaml:"expect,omitempty"`
}

// StepExpect describes the expected outcome of one step.
type StepExpect struct {
	// Pending expects the transaction to be parked (true) or committed (false).
	Pending *bool `yaml:"pending,omitempty"`

	// Changed lists A1 cells that must appear in the summary. Cells on
	// another sheet are written "Sheet!A1".
	Changed []string `yaml:"changed,omitempty"`

	// Cells is the expected get_cells payload, row-major.
	Cells []string `yaml:"cells,omitempty"`

	// Error is matched against the error code or message of the step.
	Error string `yaml:"error,omitempty"`

	// Dispatched is the number of host requests the step must send.
	Dispatched *int `yaml:"dispatched,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	Sheet string `yaml:"sheet,omitempty"`

	// Cell is used by display and code_error.
	Cell string `yaml:"cell,omitempty"`

	// Value is the expected displayed string (display).
	Value string `yaml:"value"`

	// Range and Rows are used by range.
	Range string     `yaml:"range,omitempty"`
	Rows  [][]string `yaml:"rows,omitempty"`

	// Kind is the expected run error kind (code_error).
	Kind string `yaml:"kind,omitempty"`

	// Undo and Redo are used by history.
	Undo *bool `yaml:"undo,omitempty"`
	Redo *bool `yaml:"redo,omitempty"`

	// Count is used by suspended and dispatched.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertDisplay    = "display"
	AssertRange      = "range"
	AssertCodeError  = "code_error"
	AssertHistory    = "history"
	AssertSuspended  = "suspended"
	AssertDispatched = "dispatched"
	AssertReplay     = "replay"
)

// Step action constants.
const (
	ActionSetValue        = "set_value"
	ActionSetValues       = "set_values"
	ActionSetCode         = "set_code"
	ActionDelete          = "delete"
	ActionSetFormat       = "set_format"
	ActionClearFormatting = "clear_formatting"
	ActionUndo            = "undo"
	ActionRedo            = "redo"
	ActionRerun           = "rerun"
	ActionComplete        = "complete"
	ActionGetCells        = "get_cells"
)

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}

	if s.Name == "" {
		s.Name = trimExt(filepath.Base(path))
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks the scenario for structural errors.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Sheets))
	for i, name := range s.Sheets {
		if name == "" {
			return fmt.Errorf("sheets[%d]: name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("sheets[%d]: duplicate sheet %q", i, name)
		}
		seen[name] = true
	}

	for i := range s.Steps {
		if err := validateStep(&s.Steps[i]); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(&s.Assertions[i]); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step *Step) error {
	switch step.Action {
	case "":
		return fmt.Errorf("action is required")
	case ActionSetValue:
		return requireCell(step.Cell)
	case ActionSetValues:
		if len(step.Rows) == 0 {
			return fmt.Errorf("rows is required for %s", step.Action)
		}
		return requireCell(step.Cell)
	case ActionSetCode:
		if _, err := ir.ParseLanguage(step.Language); err != nil {
			return err
		}
		return requireCell(step.Cell)
	case ActionDelete, ActionClearFormatting, ActionGetCells:
		return requireRange(step.Range)
	case ActionSetFormat:
		if !ir.FormatAttr(step.Attr).Valid() {
			return fmt.Errorf("unknown format attribute %q", step.Attr)
		}
		return requireRange(step.Range)
	case ActionComplete:
		outcomes := 0
		for _, set := range []bool{step.Output != nil, len(step.Array) > 0, step.Error != nil, step.Cancel} {
			if set {
				outcomes++
			}
		}
		if outcomes > 1 {
			return fmt.Errorf("complete takes at most one of output, array, error, cancel")
		}
	case ActionUndo, ActionRedo, ActionRerun:
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
	return nil
}

func validateAssertion(a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertDisplay:
		return requireCell(a.Cell)
	case AssertCodeError:
		if a.Kind == "" {
			return fmt.Errorf("kind is required for code_error")
		}
		return requireCell(a.Cell)
	case AssertRange:
		if len(a.Rows) == 0 {
			return fmt.Errorf("rows is required for range")
		}
		return requireRange(a.Range)
	case AssertHistory:
		if a.Undo == nil && a.Redo == nil {
			return fmt.Errorf("history needs undo or redo")
		}
	case AssertSuspended, AssertDispatched:
		if a.Count < 0 {
			return fmt.Errorf("count must be non-negative for %s", a.Type)
		}
	case AssertReplay:
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func requireCell(cell string) error {
	if cell == "" {
		return fmt.Errorf("cell is required")
	}
	_, err := ir.ParseA1(cell)
	return err
}

func requireRange(rng string) error {
	if rng == "" {
		return fmt.Errorf("range is required")
	}
	_, err := ir.ParseRange(rng)
	return err
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
