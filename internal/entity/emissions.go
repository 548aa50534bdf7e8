package entity

import "github.com/prad18/fork/constants"

// EmissionRecord is one line item's mapped carbon contribution. ItemIndex is
// the position of the source item in the parsed item slice; names repeat
// (two "Tomatoes" rows), indexes do not, so joins back to items go through
// the index.
type EmissionRecord struct {
	ItemIndex    int                   `json:"-"`
	ItemName     string                `json:"item_name"`
	Category     constants.Category    `json:"category"`
	Scope        constants.Scope       `json:"scope"`
	CO2eKg       float64               `json:"co2e_kg"`
	KgOrLiters   float64               `json:"kg_or_liters"`
	FactorKgCO2e float64               `json:"factor_kg_co2e"`
	Impact       constants.ImpactLevel `json:"impact"`
	CO2ePerUnit  float64               `json:"co2e_per_dollar,omitempty"`
}

// EmissionsSummary aggregates a set of emission records. It is always a
// projection over the underlying records, recomputed rather than stored as
// the source of truth. The revenue/item counters exist so that merging two
// summaries and recomputing the score equals computing over the combined
// record set.
type EmissionsSummary struct {
	TotalCO2eKg         float64                        `json:"total_co2e_kg"`
	ByCategory          map[constants.Category]float64 `json:"by_category"`
	ByScope             map[constants.Scope]float64    `json:"by_scope"`
	SustainabilityScore int                            `json:"sustainability_score"`
	ItemCount           int                            `json:"item_count"`
	UnmappedCount       int                            `json:"unmapped_count"`
	HighImpactCount     int                            `json:"high_impact_count"`
	Revenue             float64                        `json:"revenue,omitempty"`
}

// AveragePerItem returns mean emissions per mapped item, 0 for empty summaries.
func (s EmissionsSummary) AveragePerItem() float64 {
	if s.ItemCount == 0 {
		return 0
	}
	return s.TotalCO2eKg / float64(s.ItemCount)
}

// Recommendation is a ranked substitution or sourcing suggestion derived from
// an EmissionsSummary. Regenerated on demand, never persisted.
type Recommendation struct {
	Category             constants.Category `json:"category"`
	Item                 string             `json:"item,omitempty"`
	Suggestion           string             `json:"suggestion"`
	EstimatedReductionKg float64            `json:"estimated_reduction_co2e_kg"`
	Share                float64            `json:"share_of_total"`
	Priority             constants.Priority `json:"priority"`
}
