package llm

// BuildInvoiceJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass it to the model as a structured output constraint and
// also use it locally to validate what came back.
func BuildInvoiceJSONSchema(allowedCategories, allowedUnits []string) map[string]any {
	itemProps := map[string]any{
		"name":       map[string]any{"type": "string", "minLength": 1},
		"quantity":   map[string]any{"type": "number", "exclusiveMinimum": 0},
		"unit":       map[string]any{"type": "string"},
		"unit_price": decimalProp(),
		"category":   map[string]any{"type": "string"},
	}
	if len(allowedCategories) > 0 {
		itemProps["category"] = map[string]any{
			"type": "string",
			"enum": allowedCategories,
		}
	}
	if len(allowedUnits) > 0 {
		itemProps["unit"] = map[string]any{
			"type": "string",
			"enum": allowedUnits,
		}
	}

	props := map[string]any{
		"vendor_name":  map[string]any{"type": "string", "minLength": 1},
		"invoice_date": map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"total_amount": decimalProp(),
		"items": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           itemProps,
				"required":             []string{"name", "quantity"},
			},
		},
		"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{"vendor_name", "items"},
	}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^-?\d+(\.\d{1,2})?$`,
	}
}
