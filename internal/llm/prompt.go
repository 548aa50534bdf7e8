package llm

import "strings"

// BuildSystemPrompt composes the system message with the unit and category
// vocabularies and strict-but-practical formatting rules.
func BuildSystemPrompt(req ExtractRequest) string {
	var catLine string
	if len(req.AllowedCategories) > 0 {
		catLine = "If you include a 'category' it MUST be exactly one of: " +
			strings.Join(req.AllowedCategories, ", ") + ". If uncertain, omit it. "
	} else {
		catLine = "If you include a 'category' it must be a short, sensible food-group label. "
	}
	var unitLine string
	if len(req.AllowedUnits) > 0 {
		unitLine = "If you include a 'unit' it MUST be exactly one of: " +
			strings.Join(req.AllowedUnits, ", ") + ". Omit it for count-style lines. "
	}

	parts := []string{
		"You are a supplier invoice parser for a restaurant. Return ONLY JSON that matches the provided JSON Schema.",
		"Extract every purchasable line item: ingredient name, numeric quantity, unit, and unit price when visible.",
		"Skip delivery fees, deposits, taxes, and subtotal/total rows; they are not line items.",
		"Use ISO-8601 dates (YYYY-MM-DD) for 'invoice_date'.",
		"Money fields are decimal strings without currency symbols.",
		unitLine,
		catLine,
		"Quantities must be positive numbers. Never guess a quantity; skip the line instead.",
		"Never output null. If a field is not present, omit it.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the OCR text with a filename hint. Long documents
// are truncated; line items live near the top of supplier invoices.
func BuildUserPrompt(req ExtractRequest) string {
	var b strings.Builder
	if f := strings.TrimSpace(req.FilenameHint); f != "" {
		b.WriteString("Filename: ")
		b.WriteString(f)
		b.WriteString("\n")
	}
	text := strings.TrimSpace(req.OCRText)
	b.WriteString("\nInvoice text (first ~6k chars):\n")
	if len(text) > 6000 {
		b.WriteString(text[:6000])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	return b.String()
}
