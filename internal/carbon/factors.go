package carbon

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/prad18/fork/constants"
)

//go:embed factors.json
var defaultFactorsJSON []byte

// CategoryFactor is one category's emission basis: kg CO2e per kg of mass or
// per liter of volume, plus its accounting scope. A zero basis means the
// category has no factor for that basis and items measured that way stay
// unmapped.
type CategoryFactor struct {
	PerKg    float64         `json:"per_kg"`
	PerLiter float64         `json:"per_liter"`
	Scope    constants.Scope `json:"scope"`
}

// FactorTable is the static reference dataset the calculator runs on. It is
// configuration, not logic: loaded once at startup, never mutated, and
// replaceable via a JSON file without a code change.
type FactorTable struct {
	Categories  map[constants.Category]CategoryFactor `json:"categories"`
	Intensities map[string]float64                    `json:"intensities"`
	Modifiers   map[string]float64                    `json:"modifiers"`
	ImpactThresholds struct {
		Medium float64 `json:"medium"`
		High   float64 `json:"high"`
	} `json:"impact_thresholds"`
	ScoreBenchmark float64 `json:"score_benchmark"`

	// intensity keys sorted longest-first so "ground beef" wins over "beef".
	sortedKeys []string
}

// DefaultFactors returns the embedded reference dataset.
func DefaultFactors() (*FactorTable, error) {
	return parseFactors(defaultFactorsJSON)
}

// LoadFactors reads a factor table from path, or the embedded defaults when
// path is empty.
func LoadFactors(path string) (*FactorTable, error) {
	if path == "" {
		return DefaultFactors()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read factor table: %w", err)
	}
	return parseFactors(b)
}

func parseFactors(b []byte) (*FactorTable, error) {
	var t FactorTable
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("decode factor table: %w", err)
	}
	if len(t.Categories) == 0 {
		return nil, fmt.Errorf("factor table has no categories")
	}
	if t.ScoreBenchmark <= 0 {
		t.ScoreBenchmark = 5.0
	}
	if t.ImpactThresholds.High <= 0 {
		t.ImpactThresholds.Medium, t.ImpactThresholds.High = 5.0, 20.0
	}
	t.sortedKeys = make([]string, 0, len(t.Intensities))
	for k := range t.Intensities {
		t.sortedKeys = append(t.sortedKeys, k)
	}
	sort.Slice(t.sortedKeys, func(i, j int) bool {
		if len(t.sortedKeys[i]) != len(t.sortedKeys[j]) {
			return len(t.sortedKeys[i]) > len(t.sortedKeys[j])
		}
		return t.sortedKeys[i] < t.sortedKeys[j]
	})
	return &t, nil
}

// IntensityFor resolves the kg-CO2e-per-kg intensity for a normalized item
// name within a category: the most specific keyword intensity wins, adjusted
// by local/organic/imported modifiers in the name; otherwise the category's
// per-kg default applies.
func (t *FactorTable) IntensityFor(normalizedName string, category constants.Category) float64 {
	base, ok := t.keywordIntensity(normalizedName)
	if !ok {
		base = t.Categories[category].PerKg
	}
	return base * t.modifierFor(normalizedName)
}

// keywordIntensity returns the most specific keyword intensity matching the
// name, if any.
func (t *FactorTable) keywordIntensity(normalizedName string) (float64, bool) {
	for _, key := range t.sortedKeys {
		if strings.Contains(normalizedName, key) {
			return t.Intensities[key], true
		}
	}
	return 0, false
}

func (t *FactorTable) modifierFor(normalizedName string) float64 {
	// first matching modifier applies; "local organic kale" counts as local
	for _, m := range []string{"local", "organic", "imported"} {
		if strings.Contains(normalizedName, m) {
			if v, ok := t.Modifiers[m]; ok {
				return v
			}
		}
	}
	return 1.0
}

// ScopeFor returns the accounting scope for a category. Food sourcing sits in
// scope 3 by default; the table can reassign energy-linked categories.
func (t *FactorTable) ScopeFor(category constants.Category) constants.Scope {
	if f, ok := t.Categories[category]; ok && f.Scope != 0 {
		return f.Scope
	}
	return constants.Scope3
}

// ImpactFor buckets an intensity into low/medium/high.
func (t *FactorTable) ImpactFor(intensity float64) constants.ImpactLevel {
	switch {
	case intensity > t.ImpactThresholds.High:
		return constants.ImpactHigh
	case intensity > t.ImpactThresholds.Medium:
		return constants.ImpactMedium
	default:
		return constants.ImpactLow
	}
}
