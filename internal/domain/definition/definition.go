// Package definition loads the result type definitions and derives from them
// the facets, query fields, sort options and type boosts of a search.
package definition

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ebrains-kg/kgsearch/internal/domain"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/facet"
)

// Definition is the ordered list of result types.
type Definition struct {
	Types []Type `yaml:"types" json:"types"`
}

// Type is one result type (entity shape).
type Type struct {
	Name             string  `yaml:"name" json:"name"`
	Label            string  `yaml:"label,omitempty" json:"label,omitempty"`
	Order            *int    `yaml:"order,omitempty" json:"order,omitempty"`
	DefaultSelection bool    `yaml:"default_selection,omitempty" json:"default_selection,omitempty"`
	Boost            float64 `yaml:"boost,omitempty" json:"boost,omitempty"`
	Fields           []Field `yaml:"fields" json:"fields"`
}

// Field is one searchable, sortable or filterable attribute of a type.
type Field struct {
	Name                    string      `yaml:"name" json:"name"`
	Label                   string      `yaml:"label,omitempty" json:"label,omitempty"`
	Boost                   float64     `yaml:"boost,omitempty" json:"boost,omitempty"`
	Sort                    bool        `yaml:"sort,omitempty" json:"sort,omitempty"`
	Facet                   facet.Kind  `yaml:"facet,omitempty" json:"facet,omitempty"`
	FacetOrder              facet.Order `yaml:"facet_order,omitempty" json:"facet_order,omitempty"`
	FacetExclusiveSelection bool        `yaml:"facet_exclusive_selection,omitempty" json:"facet_exclusive_selection,omitempty"`
	IgnoreForSearch         bool        `yaml:"ignore_for_search,omitempty" json:"ignore_for_search,omitempty"`
	Children                []Field     `yaml:"children,omitempty" json:"children,omitempty"`
}

// Load reads and validates a definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read definition %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML definition. Unknown keys are rejected.
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var d Definition
	if err := dec.Decode(&d); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidDefinition, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks names, uniqueness and facet settings.
func (d *Definition) Validate() error {
	if len(d.Types) == 0 {
		return fmt.Errorf("%w: at least one type is required", domain.ErrInvalidDefinition)
	}
	types := make(map[string]struct{}, len(d.Types))
	for i, t := range d.Types {
		if t.Name == "" {
			return fmt.Errorf("%w: types[%d].name is required", domain.ErrInvalidDefinition, i)
		}
		if _, dup := types[t.Name]; dup {
			return fmt.Errorf("%w: duplicate type %q", domain.ErrInvalidDefinition, t.Name)
		}
		types[t.Name] = struct{}{}
		if t.Boost < 0 {
			return fmt.Errorf("%w: %s.boost must be >= 0", domain.ErrInvalidDefinition, t.Name)
		}
		if err := validateFields(t.Name, t.Fields, false); err != nil {
			return err
		}
	}
	return nil
}

func validateFields(prefix string, fields []Field, child bool) error {
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return fmt.Errorf("%w: %s.fields[%d].name is required", domain.ErrInvalidDefinition, prefix, i)
		}
		path := prefix + "." + f.Name
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: duplicate field %s", domain.ErrInvalidDefinition, path)
		}
		seen[f.Name] = struct{}{}
		if f.Facet != "" && !f.Facet.IsValid() {
			return fmt.Errorf("%w: %s.facet %q is not one of list, input, exists, range",
				domain.ErrInvalidDefinition, path, f.Facet)
		}
		switch f.FacetOrder {
		case "", facet.ByCount, facet.ByValue:
		default:
			return fmt.Errorf("%w: %s.facet_order must be %q or %q, got %q",
				domain.ErrInvalidDefinition, path, facet.ByCount, facet.ByValue, f.FacetOrder)
		}
		if f.Boost < 0 {
			return fmt.Errorf("%w: %s.boost must be >= 0", domain.ErrInvalidDefinition, path)
		}
		if child && len(f.Children) > 0 {
			return fmt.Errorf("%w: %s: children cannot be nested", domain.ErrInvalidDefinition, path)
		}
		if err := validateFields(path, f.Children, true); err != nil {
			return err
		}
	}
	return nil
}

// Type returns the type named name.
func (d *Definition) Type(name string) (Type, bool) {
	for _, t := range d.Types {
		if t.Name == name {
			return t, true
		}
	}
	return Type{}, false
}
