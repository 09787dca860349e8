// Package catalog holds the fixed table of water meter models a test can be
// run against.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/flowqa/internal/model"
	"github.com/shopspring/decimal"
)

// Catalog errors.
var (
	ErrEmptyCatalog      = errors.New("meter catalog is empty")
	ErrUnknownMeter      = errors.New("unknown meter model")
	ErrDuplicateMeter    = errors.New("duplicate meter model")
	ErrInvalidMultiplier = errors.New("multiplier must be positive")
	ErrInvalidFormula    = errors.New("invalid formula variant")
	ErrMissingName       = errors.New("meter model name is required")
)

// Catalog is an ordered, immutable set of meter models.
type Catalog struct {
	byName map[string]int
	models []model.MeterModel
}

// New validates the given models and builds a catalog preserving their order.
func New(models []model.MeterModel) (*Catalog, error) {
	if len(models) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		models: make([]model.MeterModel, 0, len(models)),
		byName: make(map[string]int, len(models)),
	}

	for i, m := range models {
		m.Name = strings.TrimSpace(m.Name)
		if err := validate(m); err != nil {
			return nil, fmt.Errorf("meter %d: %w", i+1, err)
		}
		key := strings.ToLower(m.Name)
		if _, exists := c.byName[key]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMeter, m.Name)
		}
		c.byName[key] = len(c.models)
		c.models = append(c.models, m)
	}

	return c, nil
}

// Default returns the built-in catalog of Klepsan Woltman meters.
func Default() *Catalog {
	c, err := New(defaultModels())
	if err != nil {
		panic(fmt.Sprintf("built-in meter catalog is invalid: %v", err))
	}
	return c
}

func defaultModels() []model.MeterModel {
	direct := func(name string, multiplier int64) model.MeterModel {
		return model.MeterModel{
			Name:       name,
			Multiplier: decimal.NewFromInt(multiplier),
			Formula:    model.FormulaDirect,
		}
	}
	return []model.MeterModel{
		direct("Klepsan Woltman DN50", 10),
		direct("Klepsan Woltman DN65", 10),
		direct("Klepsan Woltman DN80", 10),
		direct("Klepsan Woltman DN100", 10),
		direct("Klepsan Woltman DN150", 100),
	}
}

// Models returns a copy of the catalog entries in order.
func (c *Catalog) Models() []model.MeterModel {
	out := make([]model.MeterModel, len(c.models))
	copy(out, c.models)
	return out
}

// Names returns the model names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.models))
	for i, m := range c.models {
		names[i] = m.Name
	}
	return names
}

// Len returns the number of models.
func (c *Catalog) Len() int {
	return len(c.models)
}

// At returns the model at index i, wrapping around in both directions.
func (c *Catalog) At(i int) model.MeterModel {
	n := len(c.models)
	return c.models[((i%n)+n)%n]
}

// First returns the first catalog entry, the default selection.
func (c *Catalog) First() model.MeterModel {
	return c.models[0]
}

// Lookup finds a model by name, ignoring case and surrounding whitespace.
func (c *Catalog) Lookup(name string) (model.MeterModel, error) {
	idx, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return model.MeterModel{}, fmt.Errorf("%w: %q", ErrUnknownMeter, name)
	}
	return c.models[idx], nil
}

// IndexOf returns the position of the named model, or -1.
func (c *Catalog) IndexOf(name string) int {
	idx, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return -1
	}
	return idx
}

func validate(m model.MeterModel) error {
	if m.Name == "" {
		return ErrMissingName
	}
	if !m.Multiplier.IsPositive() {
		return fmt.Errorf("%w: %s has %s", ErrInvalidMultiplier, m.Name, m.Multiplier)
	}
	if !m.Formula.IsValid() {
		return fmt.Errorf("%w: %s has %q", ErrInvalidFormula, m.Name, m.Formula)
	}
	return nil
}
