package ocr

import (
	"regexp"
	"strings"
)

var (
	reDateish   = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b|\b[a-z]{3,9} \d{1,2},? \d{4}\b`)
	reCurrency  = regexp.MustCompile(`\b(usd|eur|gbp|cad)\b|[$£€]`)
	reAmountish = regexp.MustCompile(`\b\d{1,3}(,\d{3})*\.\d{2}\b|\b\d+\.\d{2}\b`)
	reQtyRow    = regexp.MustCompile(`(?m)^\s*\d+\s+(lb|kg|oz|g|gal|l|ml|case|box|bottle|each)\b`)
)

// heuristicConfidence scores decoded text by how much it looks like a
// supplier invoice: dates, currency, amounts, and quantity/unit rows each add
// a share. Cheap and stable; blended with tesseract's own word confidence
// when that exists.
func heuristicConfidence(txt string) float64 {
	txtL := strings.ToLower(txt)
	score := 0.2 // base
	if reDateish.MatchString(txtL) {
		score += 0.15
	}
	if reCurrency.MatchString(txtL) {
		score += 0.15
	}
	if reAmountish.MatchString(txtL) {
		score += 0.15
	}
	if reQtyRow.MatchString(txtL) {
		score += 0.25
	}
	if len(txt) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
