package recommend

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/prad18/fork/constants"
	"github.com/prad18/fork/internal/carbon"
	"github.com/prad18/fork/internal/entity"
)

// substitution pairs a high-intensity ingredient keyword with a lower-carbon
// alternative. Reductions are computed against the alternative's intensity,
// never invented.
type substitution struct {
	match        string
	suggestion   string
	altIntensity float64
}

// Ordered: scanned top to bottom per item, first match wins. Keep the most
// specific keywords first within a food group.
var substitutions = []substitution{
	{"ground beef", "swap ground beef for ground turkey or a lentil blend", 6.9},
	{"beef", "swap beef for chicken or plant protein", 6.9},
	{"steak", "offer a chicken or portobello option alongside steak", 6.9},
	{"lamb", "swap lamb for chicken in slow-cooked dishes", 6.9},
	{"mutton", "swap mutton for chicken in slow-cooked dishes", 6.9},
	{"lobster", "feature lower-impact whitefish instead of lobster", 2.9},
	{"shrimp", "substitute farmed mussels or whitefish for shrimp", 2.9},
	{"cheese", "cut cheese portions or blend with plant-based cheese", 2.0},
	{"butter", "replace part of the butter with vegetable oil", 3.2},
	{"coffee", "source shade-grown or certified low-impact coffee", 10.0},
}

// Engine turns an emissions breakdown into a ranked, deterministic list of
// reduction recommendations. Same summary in, same list out.
type Engine struct {
	table       *carbon.FactorTable
	materiality float64
	logger      *slog.Logger
}

// NewEngine builds an engine. materiality is the minimum share of total
// emissions a category must hold before it earns a sourcing recommendation;
// non-positive values fall back to 0.10.
func NewEngine(table *carbon.FactorTable, materiality float64, logger *slog.Logger) *Engine {
	if materiality <= 0 {
		materiality = 0.10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{table: table, materiality: materiality, logger: logger}
}

// Recommend derives recommendations from the records behind a summary.
// Each material category (share of total at or above the materiality
// threshold) gets at most one recommendation: a substitution swap when one
// applies, otherwise a local-sourcing change. Results are ordered by
// estimated reduction descending, then category, then item name, so repeated
// calls over the same input agree byte for byte.
func (e *Engine) Recommend(records []entity.EmissionRecord, summary entity.EmissionsSummary) []entity.Recommendation {
	if summary.TotalCO2eKg <= 0 {
		return nil
	}

	best := map[constants.Category]entity.Recommendation{}
	for _, rec := range e.substitutionRecs(records, summary) {
		if cur, ok := best[rec.Category]; !ok || rec.EstimatedReductionKg > cur.EstimatedReductionKg {
			best[rec.Category] = rec
		}
	}
	// sourcing only fills categories no substitution claimed
	for _, rec := range e.sourcingRecs(summary) {
		if _, ok := best[rec.Category]; !ok {
			best[rec.Category] = rec
		}
	}

	recs := make([]entity.Recommendation, 0, len(best))
	for _, rec := range best {
		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].EstimatedReductionKg != recs[j].EstimatedReductionKg {
			return recs[i].EstimatedReductionKg > recs[j].EstimatedReductionKg
		}
		if recs[i].Category != recs[j].Category {
			return recs[i].Category < recs[j].Category
		}
		return recs[i].Item < recs[j].Item
	})

	e.logger.Debug("recommend.done", "count", len(recs), "total_co2e_kg", summary.TotalCO2eKg)
	return recs
}

// substitutionRecs aggregates the kg behind each matched ingredient keyword
// across records and proposes one swap per keyword. Records in categories
// below the materiality threshold never produce a swap.
func (e *Engine) substitutionRecs(records []entity.EmissionRecord, summary entity.EmissionsSummary) []entity.Recommendation {
	type bucket struct {
		sub      substitution
		category constants.Category
		co2e     float64
		kg       float64
	}
	buckets := map[string]*bucket{}

	total := summary.TotalCO2eKg
	for _, r := range records {
		if summary.ByCategory[r.Category]/total < e.materiality {
			continue
		}
		name := strings.ToLower(r.ItemName)
		for _, sub := range substitutions {
			if !strings.Contains(name, sub.match) {
				continue
			}
			b, ok := buckets[sub.match]
			if !ok {
				b = &bucket{sub: sub, category: r.Category}
				buckets[sub.match] = b
			}
			b.co2e += r.CO2eKg
			b.kg += r.KgOrLiters
			break
		}
	}

	var recs []entity.Recommendation
	for _, b := range buckets {
		reduction := b.co2e - b.sub.altIntensity*b.kg
		if reduction <= 0 {
			continue
		}
		share := b.co2e / total
		recs = append(recs, entity.Recommendation{
			Category:             b.category,
			Item:                 b.sub.match,
			Suggestion:           b.sub.suggestion,
			EstimatedReductionKg: reduction,
			Share:                share,
			Priority:             priorityFor(share),
		})
	}
	return recs
}

// sourcingRecs proposes local sourcing for each category whose share of total
// emissions clears the materiality threshold. The estimated reduction uses
// the table's local modifier against the category's current total.
func (e *Engine) sourcingRecs(summary entity.EmissionsSummary) []entity.Recommendation {
	localMod, ok := e.table.Modifiers["local"]
	if !ok || localMod >= 1 {
		return nil
	}
	var recs []entity.Recommendation
	for cat, co2e := range summary.ByCategory {
		share := co2e / summary.TotalCO2eKg
		if share < e.materiality {
			continue
		}
		recs = append(recs, entity.Recommendation{
			Category:             cat,
			Suggestion:           fmt.Sprintf("source %s from local suppliers to cut transport emissions", cat),
			EstimatedReductionKg: co2e * (1 - localMod),
			Share:                share,
			Priority:             priorityFor(share),
		})
	}
	return recs
}

// priorityFor buckets a share of total emissions: 30%+ is high, 10%+ medium.
func priorityFor(share float64) constants.Priority {
	switch {
	case share >= 0.30:
		return constants.PriorityHigh
	case share >= 0.10:
		return constants.PriorityMedium
	default:
		return constants.PriorityLow
	}
}
