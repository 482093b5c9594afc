package fixture

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Decode errors.
var (
	// ErrUnknownAction is returned for an action tag outside the replay
	// vocabulary.
	ErrUnknownAction = errors.New("fixture: unknown action")

	// ErrUnknownCommand is returned for a command tag outside the compute
	// pass vocabulary.
	ErrUnknownCommand = errors.New("fixture: unknown command")

	// ErrBadID is returned when an id literal is not an
	// [index, epoch, tag] triple.
	ErrBadID = errors.New("fixture: malformed id")

	// ErrBadData is returned when a data payload is neither an inline
	// byte sequence nor a blob reference.
	ErrBadData = errors.New("fixture: malformed data payload")
)

// ID is a resource id literal from a fixture: the (index, epoch,
// backend-tag) triple of the original recording, spelled [0, 1, Empty].
type ID struct {
	Index   uint32
	Epoch   uint32
	Backend string
}

// UnmarshalYAML decodes an id triple.
func (id *ID) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode || len(value.Content) != 3 {
		return fmt.Errorf("%w: want [index, epoch, tag] at line %d", ErrBadID, value.Line)
	}
	if err := value.Content[0].Decode(&id.Index); err != nil {
		return fmt.Errorf("%w: index: %v", ErrBadID, err)
	}
	if err := value.Content[1].Decode(&id.Epoch); err != nil {
		return fmt.Errorf("%w: epoch: %v", ErrBadID, err)
	}
	if err := value.Content[2].Decode(&id.Backend); err != nil {
		return fmt.Errorf("%w: tag: %v", ErrBadID, err)
	}
	return nil
}

// String returns the fixture spelling of the id.
func (id ID) String() string {
	return fmt.Sprintf("[%d, %d, %s]", id.Index, id.Epoch, id.Backend)
}

// DataRef is a byte payload: inline bytes or a named blob resolved
// through a Loader.
type DataRef struct {
	Inline []byte
	Blob   string
}

// UnmarshalYAML decodes an inline byte sequence or a {blob: name} mapping.
func (d *DataRef) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		return value.Decode(&d.Inline)
	case yaml.MappingNode:
		var ref struct {
			Blob string `yaml:"blob"`
		}
		if err := value.Decode(&ref); err != nil || ref.Blob == "" {
			return fmt.Errorf("%w: want {blob: name} at line %d", ErrBadData, value.Line)
		}
		d.Blob = ref.Blob
		return nil
	default:
		return fmt.Errorf("%w: at line %d", ErrBadData, value.Line)
	}
}

// Resolve returns the payload bytes, reading blob references through the
// loader. Inline payloads never touch the loader.
func (d *DataRef) Resolve(loader Loader) ([]byte, error) {
	if d.Blob == "" {
		return d.Inline, nil
	}
	if loader == nil {
		return nil, fmt.Errorf("fixture: blob %q referenced but no loader configured", d.Blob)
	}
	data, err := loader.Blob(d.Blob)
	if err != nil {
		return nil, fmt.Errorf("fixture: blob %q: %w", d.Blob, err)
	}
	return data, nil
}

// Expectation is one expected byte snapshot.
type Expectation struct {
	Name   string  `yaml:"name"`
	Buffer ID      `yaml:"buffer"`
	Offset uint64  `yaml:"offset"`
	Data   DataRef `yaml:"data"`
}

// Fixture is a decoded replay fixture.
type Fixture struct {
	// Features are the capability names the fixture requires. The fixture
	// is skipped, not failed, when the backend lacks any of them.
	Features []string

	// Expectations are checked in order after all actions ran.
	Expectations []Expectation

	// Actions are replayed in file order.
	Actions []Action
}

// fixtureDoc is the raw YAML shape; actions stay as nodes until the
// variant dispatch in decodeAction.
type fixtureDoc struct {
	Features     []string      `yaml:"features"`
	Expectations []Expectation `yaml:"expectations"`
	Actions      []yaml.Node   `yaml:"actions"`
}

// Parse decodes a fixture document.
func Parse(data []byte) (*Fixture, error) {
	var doc fixtureDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	fix := &Fixture{
		Features:     doc.Features,
		Expectations: doc.Expectations,
		Actions:      make([]Action, 0, len(doc.Actions)),
	}
	for i := range doc.Actions {
		act, err := decodeAction(&doc.Actions[i])
		if err != nil {
			return nil, fmt.Errorf("fixture: action %d: %w", i, err)
		}
		fix.Actions = append(fix.Actions, act)
	}
	return fix, nil
}

// Load reads and decodes a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	return Parse(data)
}
