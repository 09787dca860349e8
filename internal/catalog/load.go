package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/Veraticus/flowqa/internal/model"
	"github.com/goccy/go-yaml"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// maxMultiplierExponent bounds the decimal exponent of a configured multiplier.
const maxMultiplierExponent = 30

// fileFormat is the layout of a standalone catalog file.
type fileFormat struct {
	Meters []map[string]any `yaml:"meters"`
}

// LoadFile reads a YAML catalog file of the form:
//
//	meters:
//	  - name: Klepsan Woltman DN50
//	    multiplier: 10
//	    formula: direct
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML catalog content.
func Parse(data []byte) (*Catalog, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	entries := make([]any, len(f.Meters))
	for i, m := range f.Meters {
		entries[i] = m
	}
	return FromEntries(entries)
}

// FromEntries builds a catalog from loosely typed entries, as produced by
// viper for the `meters` configuration key. A missing formula means direct.
func FromEntries(entries []any) (*Catalog, error) {
	models := make([]model.MeterModel, 0, len(entries))
	for i, entry := range entries {
		m, err := decodeEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("meter %d: %w", i+1, err)
		}
		models = append(models, m)
	}
	return New(models)
}

func decodeEntry(entry any) (model.MeterModel, error) {
	fields, err := cast.ToStringMapE(entry)
	if err != nil {
		return model.MeterModel{}, fmt.Errorf("entry is not a mapping: %w", err)
	}

	name, err := cast.ToStringE(fields["name"])
	if err != nil {
		return model.MeterModel{}, fmt.Errorf("invalid name: %w", err)
	}

	rawMultiplier, err := cast.ToStringE(fields["multiplier"])
	if err != nil {
		return model.MeterModel{}, fmt.Errorf("invalid multiplier: %w", err)
	}
	multiplier, err := decimal.NewFromString(strings.TrimSpace(rawMultiplier))
	if exp := multiplier.Exponent(); err != nil || exp > maxMultiplierExponent || exp < -maxMultiplierExponent {
		return model.MeterModel{}, fmt.Errorf("%w: %q", ErrInvalidMultiplier, rawMultiplier)
	}

	formula := model.FormulaDirect
	if raw := strings.TrimSpace(cast.ToString(fields["formula"])); raw != "" {
		formula = model.FormulaVariant(strings.ToLower(raw))
	}

	return model.MeterModel{
		Name:       name,
		Multiplier: multiplier,
		Formula:    formula,
	}, nil
}
