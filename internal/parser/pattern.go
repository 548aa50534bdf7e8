package parser

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prad18/fork/constants"
	"github.com/prad18/fork/internal/entity"
)

// PatternParser is the deterministic fallback: fixed regular expressions over
// table-format invoice text. No network, no model, always available.
type PatternParser struct {
	logger *slog.Logger
}

func NewPatternParser(logger *slog.Logger) *PatternParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &PatternParser{logger: logger}
}

var (
	// "10 lb Heirloom Carrots (Organic) $2.10" — qty, unit token, name, price.
	reTableRow = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s+([A-Za-z]+)\s+(.+?)\s*\$(\d[\d,]*(?:\.\d+)?)\s*$`)
	// "3 dozen eggs" style rows without a price still carry a quantity.
	reBareRow = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s+([A-Za-z]+)\s+([A-Za-z].*?)\s*$`)

	reVendorSuffix = regexp.MustCompile(`(?i)^([A-Z][A-Za-z\s&,.'\-]+(?:DISTRIBUTORS|COMPANY|FARMS?|MARKET|SUPPLY|LLC|INC\.?|CO\.?|CORP\.?|LTD\.?))\b`)
	reVendorLabel  = regexp.MustCompile(`(?i)(?:from|vendor|supplier)\s*:\s*(\S[^\n]*)`)

	reTotalLabeled = regexp.MustCompile(`(?i)(?:grand\s+total|amount\s+due|balance\s+due|total)\s*:?\s*\$?\s*([\d,]+(?:\.\d+)?)`)

	reDateLong    = regexp.MustCompile(`([A-Za-z]{3,9}\s+\d{1,2},?\s+\d{2,4})`)
	reDateNumeric = regexp.MustCompile(`(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)

	reSeparator = regexp.MustCompile(`^[-=_|\s]+$`)
)

// totalsWords end the line-item table; everything after is money summary.
var totalsWords = []string{"subtotal", "tax", "delivery", "total", "amount due", "balance"}

// Parse never returns an error: empty or unreadable text yields an empty
// invoice with zero confidence. ctx is accepted for interface symmetry only.
func (p *PatternParser) Parse(_ context.Context, text, filenameHint string) (entity.ParsedInvoice, error) {
	start := time.Now()
	lines := splitLines(text)

	inv := entity.ParsedInvoice{
		ParseMethod: constants.ParseMethodFallback,
		VendorName:  p.extractVendor(lines),
	}
	if t, ok := extractDate(lines); ok {
		inv.InvoiceDate = &t
	}
	if v, ok := extractTotal(lines); ok {
		inv.TotalAmount = &v
	}
	inv.Items, inv.DiscardedCount = p.extractItems(lines)
	inv.ParseConfidence = patternConfidence(inv)

	p.logger.Info("parse.fallback.done",
		"filename", filenameHint,
		"items", len(inv.Items),
		"discarded", inv.DiscardedCount,
		"vendor", inv.VendorName,
		"confidence", inv.ParseConfidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return inv, nil
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.Join(strings.Fields(l), " ")
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func (p *PatternParser) extractVendor(lines []string) string {
	limit := min(len(lines), 5)
	for _, line := range lines[:limit] {
		if len(line) < 5 {
			continue
		}
		if m := reVendorSuffix.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
		if m := reVendorLabel.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// extractTotal scans bottom-up so the grand total beats the subtotal.
func extractTotal(lines []string) (float64, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if strings.Contains(strings.ToLower(line), "subtotal") {
			continue
		}
		if m := reTotalLabeled.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

func extractDate(lines []string) (time.Time, bool) {
	limit := min(len(lines), 10)
	for _, line := range lines[:limit] {
		if m := reDateLong.FindStringSubmatch(line); m != nil {
			for _, layout := range []string{"January 2, 2006", "January 2 2006", "Jan 2, 2006", "Jan 2 2006"} {
				if t, err := time.Parse(layout, m[1]); err == nil {
					return t, true
				}
			}
		}
		if m := reDateNumeric.FindStringSubmatch(line); m != nil {
			s := strings.ReplaceAll(m[1], "-", "/")
			for _, layout := range []string{"1/2/2006", "1/2/06"} {
				if t, err := time.Parse(layout, s); err == nil {
					return t, true
				}
			}
		}
	}
	return time.Time{}, false
}

// extractItems walks the table region and also counts rows that looked like
// line items but failed validation (zero quantity, broken price). Dropped
// rows surface in DiscardedCount rather than vanishing.
func (p *PatternParser) extractItems(lines []string) ([]entity.LineItem, int) {
	var items []entity.LineItem
	var discarded int
	for _, line := range lines {
		lower := strings.ToLower(line)
		if isTotalsLine(lower) {
			if len(items) > 0 {
				break
			}
			continue
		}
		if reSeparator.MatchString(line) || isHeaderLine(lower) {
			continue
		}
		item, ok, dropped := p.parseRow(line)
		switch {
		case dropped:
			discarded++
		case ok:
			items = append(items, item)
		}
	}
	return items, discarded
}

func isTotalsLine(lower string) bool {
	for _, w := range totalsWords {
		if strings.HasPrefix(lower, w) || strings.Contains(lower, w+":") {
			return true
		}
	}
	return false
}

func isHeaderLine(lower string) bool {
	return (strings.Contains(lower, "qty") || strings.Contains(lower, "quantity")) &&
		strings.Contains(lower, "unit") &&
		(strings.Contains(lower, "item") || strings.Contains(lower, "description"))
}

// parseRow handles "<qty> <unit> <name> $<price>" and, failing that,
// "<qty> <unit> <name>" without a price. An unrecognized unit token is folded
// back into the name and the line counts by unit. dropped marks a recognized
// row that failed validation, as opposed to a line that is not a row at all.
func (p *PatternParser) parseRow(line string) (item entity.LineItem, ok, dropped bool) {
	if m := reTableRow.FindStringSubmatch(line); m != nil {
		qty, err := strconv.ParseFloat(m[1], 64)
		if err != nil || qty <= 0 {
			return entity.LineItem{}, false, true
		}
		price, err := strconv.ParseFloat(strings.ReplaceAll(m[4], ",", ""), 64)
		if err != nil {
			return entity.LineItem{}, false, true
		}
		item = buildItem(qty, m[2], m[3])
		item.UnitPrice = &price
		return item, true, false
	}
	if m := reBareRow.FindStringSubmatch(line); m != nil {
		// bare rows are only trusted when the unit token is a real unit;
		// otherwise this is prose, not a table row
		if _, unitOK := constants.ParseUnit(m[2]); !unitOK {
			return entity.LineItem{}, false, false
		}
		qty, err := strconv.ParseFloat(m[1], 64)
		if err != nil || qty <= 0 {
			return entity.LineItem{}, false, true
		}
		return buildItem(qty, m[2], m[3]), true, false
	}
	return entity.LineItem{}, false, false
}

func buildItem(qty float64, unitTok, name string) entity.LineItem {
	unit, ok := constants.ParseUnit(unitTok)
	if !ok {
		// token was part of the name; the line counts by unit
		unit = constants.UnitCount
		name = unitTok + " " + name
	}
	name = strings.TrimSpace(name)
	item := entity.LineItem{
		RawName:        name,
		NormalizedName: constants.NormalizeName(name),
		Quantity:       qty,
		Unit:           unit,
	}
	item.Category = constants.Categorize(item.NormalizedName)
	item.Unmapped = unit.IsCount()
	return item
}

// patternConfidence mirrors how much structure was recognized: vendor plus
// items is a confident parse, items alone is serviceable, nothing is zero.
func patternConfidence(inv entity.ParsedInvoice) float64 {
	switch {
	case len(inv.Items) > 0 && inv.VendorName != "":
		return 0.9
	case len(inv.Items) > 0:
		return 0.5
	case inv.VendorName != "" || inv.TotalAmount != nil:
		return 0.3
	default:
		return 0
	}
}
