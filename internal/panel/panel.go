package panel

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
)

var (
	ErrNoPanels   = errors.New("no valid panel definitions found")
	ErrValidation = errors.New("panel definition failed validation")
)

// Hash maps the menu index (starting at 1) to a panel definition.
type Hash map[uint8]Definition

// Keys returns the indexes in ascending order
func (h Hash) Keys() []uint8 {
	keys := make([]uint8, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Entry is one row of the panel menu
type Entry struct {
	Index uint8  `json:"index"`
	Title string `json:"title"`
	File  string `json:"json_file"`
}

// Entries returns the hash as a slice sorted by index
func (h Hash) Entries() []Entry {
	entries := make([]Entry, 0, len(h))
	for _, k := range h.Keys() {
		d := h[k]
		entries = append(entries, Entry{Index: k, Title: d.Title, File: d.JSONFile})
	}
	return entries
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Schema returns the JSON Schema of a diagram file, pretty printed.
func Schema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	s := r.Reflect(&Diagram{})
	return json.MarshalIndent(s, "", "  ")
}

// FindDefinitions returns every *.json file directly inside dir, sorted.
func FindDefinitions(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("bad panel directory pattern %q: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// ReadDefinition decodes and validates one diagram file and returns its
// definition entry.
func ReadDefinition(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("open %s: %w", path, err)
	}

	d, err := Decode(data)
	if err != nil {
		return Definition{}, fmt.Errorf("%s: %w", path, err)
	}

	return Definition{Title: d.Layout.Panel.Title, JSONFile: path}, nil
}

// Decode parses a diagram, checks that every required key is present and
// runs Validate. Missing keys are logged like other field errors.
func Decode(data []byte) (*Diagram, error) {
	var d Diagram
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("reading as json: %w", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("reading as json: %w", err)
	}
	if missing := checkPresence(raw, reflect.TypeOf(d), ""); len(missing) > 0 {
		for _, field := range missing {
			slog.Error("panel_schema_error", "field", field, "rule", "required")
		}
		return nil, fmt.Errorf("%w: %d missing field(s)", ErrValidation, len(missing))
	}

	if err := Validate(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks a decoded diagram. Every field error is logged; the
// returned error wraps ErrValidation.
func Validate(d *Diagram) error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			slog.Error("panel_schema_error",
				"field", fe.Namespace(),
				"rule", fe.Tag(),
				"param", fe.Param(),
				"value", fe.Value(),
			)
		}
		return fmt.Errorf("%w: %d field error(s)", ErrValidation, len(fieldErrs))
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

// Load reads every definition in dir. Files that fail to read or validate
// are logged and skipped; the rest are numbered 1..n in file name order.
func Load(dir string) (Hash, error) {
	files, err := FindDefinitions(dir)
	if err != nil {
		slog.Error("panel_scan_failed", "dir", dir, "error", err)
		return nil, err
	}

	panels := make(Hash)
	index := uint8(1)
	for _, file := range files {
		def, err := ReadDefinition(file)
		if err != nil {
			slog.Error("panel_definition_skipped", "file", file, "error", err)
			continue
		}
		if index == 0 { // wrapped past 255
			slog.Warn("panel_limit_reached", "file", file, "max", 255)
			break
		}
		panels[index] = def
		slog.Info("panel_loaded", "index", index, "title", def.Title, "file", file)
		index++
	}

	if len(panels) == 0 {
		return nil, ErrNoPanels
	}
	return panels, nil
}
