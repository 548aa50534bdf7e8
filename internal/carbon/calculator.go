package carbon

import (
	"log/slog"
	"math"

	"github.com/prad18/fork/constants"
	"github.com/prad18/fork/internal/entity"
)

// Calculator maps categorized line items onto emission records and aggregates
// them into an EmissionsSummary. It is stateless apart from the immutable
// factor table, so concurrent use is safe.
type Calculator struct {
	table  *FactorTable
	logger *slog.Logger
}

func NewCalculator(table *FactorTable, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{table: table, logger: logger}
}

// Compute derives one EmissionRecord per mappable item and a fresh summary.
// Items whose unit has no mass/volume basis for their category contribute
// zero and are counted in UnmappedCount; emissions are never fabricated.
func (c *Calculator) Compute(items []entity.LineItem) ([]entity.EmissionRecord, entity.EmissionsSummary) {
	summary := entity.EmissionsSummary{
		ByCategory: map[constants.Category]float64{},
		ByScope:    map[constants.Scope]float64{},
		ItemCount:  len(items),
	}
	records := make([]entity.EmissionRecord, 0, len(items))

	for i, item := range items {
		if price := item.UnitPrice; price != nil {
			summary.Revenue += *price * item.Quantity
		}

		canonical, basis := ToCanonical(item.Quantity, item.Unit)
		intensity, ok := c.intensityForBasis(item.NormalizedName, item.Category, basis)
		if item.Unmapped || !ok {
			summary.UnmappedCount++
			c.logger.Debug("carbon.item.unmapped",
				"name", item.RawName, "unit", item.Unit, "category", item.Category)
			continue
		}

		co2e := canonical * intensity
		rec := entity.EmissionRecord{
			ItemIndex:    i,
			ItemName:     item.RawName,
			Category:     item.Category,
			Scope:        c.table.ScopeFor(item.Category),
			CO2eKg:       co2e,
			KgOrLiters:   canonical,
			FactorKgCO2e: intensity,
			Impact:       c.table.ImpactFor(intensity),
		}
		if item.UnitPrice != nil && *item.UnitPrice > 0 {
			rec.CO2ePerUnit = co2e / (*item.UnitPrice * item.Quantity)
		}
		records = append(records, rec)

		summary.TotalCO2eKg += co2e
		summary.ByCategory[rec.Category] += co2e
		summary.ByScope[rec.Scope] += co2e
		if rec.Impact == constants.ImpactHigh {
			summary.HighImpactCount++
		}
	}

	summary.SustainabilityScore = c.score(summary)
	return records, summary
}

func (c *Calculator) intensityForBasis(name string, category constants.Category, basis Basis) (float64, bool) {
	switch basis {
	case BasisKg:
		return c.table.IntensityFor(name, category), true
	case BasisLiter:
		// liquids bought by volume: a keyword intensity wins when one matches
		// (milk, juice, oil are near unit density), else the category's
		// per-liter basis applies
		if v, ok := c.table.keywordIntensity(name); ok {
			return v * c.table.modifierFor(name), true
		}
		perLiter := c.table.Categories[category].PerLiter
		if perLiter <= 0 {
			return 0, false
		}
		return perLiter * c.table.modifierFor(name), true
	default:
		return 0, false
	}
}

// score normalizes emissions intensity against the benchmark and inverts it:
// score = 100*B/(B+I), clamped to [0,100]. Intensity is total CO2e over
// revenue when prices exist, otherwise over item count. Monotonically
// non-increasing in intensity; an empty summary scores a neutral 50.
func (c *Calculator) score(s entity.EmissionsSummary) int {
	var intensity float64
	switch {
	case s.Revenue > 0:
		intensity = s.TotalCO2eKg / s.Revenue
	case s.ItemCount > 0:
		intensity = s.TotalCO2eKg / float64(s.ItemCount)
	default:
		return 50
	}
	b := c.table.ScoreBenchmark
	score := int(math.Round(100 * b / (b + intensity)))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Merge combines two summaries and recomputes the score from the merged
// totals. Associative and commutative; merging disjoint summaries equals
// computing over the union of their source items.
func (c *Calculator) Merge(a, b entity.EmissionsSummary) entity.EmissionsSummary {
	out := entity.EmissionsSummary{
		TotalCO2eKg:     a.TotalCO2eKg + b.TotalCO2eKg,
		ByCategory:      map[constants.Category]float64{},
		ByScope:         map[constants.Scope]float64{},
		ItemCount:       a.ItemCount + b.ItemCount,
		UnmappedCount:   a.UnmappedCount + b.UnmappedCount,
		HighImpactCount: a.HighImpactCount + b.HighImpactCount,
		Revenue:         a.Revenue + b.Revenue,
	}
	for _, m := range []map[constants.Category]float64{a.ByCategory, b.ByCategory} {
		for k, v := range m {
			out.ByCategory[k] += v
		}
	}
	for _, m := range []map[constants.Scope]float64{a.ByScope, b.ByScope} {
		for k, v := range m {
			out.ByScope[k] += v
		}
	}
	out.SustainabilityScore = c.score(out)
	return out
}

// Table exposes the calculator's factor table for collaborators that need
// factor lookups (the recommendation engine).
func (c *Calculator) Table() *FactorTable {
	return c.table
}
