package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var reDecimal = regexp.MustCompile(`^-?\d+(\.\d{1,2})?$`)

// ExtractJSONBlock pulls the JSON document out of a chat completion that may
// wrap it in markdown fences or prose. Models that honor response_format
// return bare JSON and pass through unchanged.
func ExtractJSONBlock(content string) ([]byte, error) {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no json object in content")
	}
	return []byte(s[start : end+1]), nil
}

// SanitizeInvoiceFields repairs a document that failed strict validation so
// the rest of it can still be used: money-ish values are coerced to decimal
// strings, and items that cannot be repaired (missing name, non-positive
// quantity) are dropped. Returns the cleaned document and how many items
// were discarded.
func SanitizeInvoiceFields(doc []byte) ([]byte, int, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, 0, err
	}

	coerceDecimal := func(m map[string]any, k string) {
		v, ok := m[k]
		if !ok {
			return
		}
		switch t := v.(type) {
		case float64:
			m[k] = strconv.FormatFloat(t, 'f', 2, 64)
		case string:
			s := strings.TrimSpace(strings.TrimPrefix(t, "$"))
			s = strings.ReplaceAll(s, ",", "")
			if s == "" || strings.EqualFold(s, "null") {
				delete(m, k)
				return
			}
			if !reDecimal.MatchString(s) {
				if f, err := strconv.ParseFloat(s, 64); err == nil {
					s = strconv.FormatFloat(f, 'f', 2, 64)
				} else {
					delete(m, k)
					return
				}
			}
			m[k] = s
		case nil:
			delete(m, k)
		default:
			delete(m, k)
		}
	}

	coerceDecimal(m, "total_amount")
	if v, ok := m["vendor_name"].(string); ok {
		if s := strings.TrimSpace(v); s != "" {
			m["vendor_name"] = s
		} else {
			delete(m, "vendor_name")
		}
	}

	dropped := 0
	if rawItems, ok := m["items"].([]any); ok {
		kept := make([]any, 0, len(rawItems))
		for _, ri := range rawItems {
			item, ok := ri.(map[string]any)
			if !ok {
				dropped++
				continue
			}
			name, _ := item["name"].(string)
			name = strings.TrimSpace(name)
			if name == "" {
				dropped++
				continue
			}
			item["name"] = name

			qty, ok := asNumber(item["quantity"])
			if !ok || qty <= 0 {
				dropped++
				continue
			}
			item["quantity"] = qty

			coerceDecimal(item, "unit_price")
			if v, ok := item["unit"].(string); ok {
				if s := strings.ToLower(strings.TrimSpace(v)); s != "" {
					item["unit"] = s
				} else {
					delete(item, "unit")
				}
			}
			if v, ok := item["category"].(string); ok && strings.TrimSpace(v) == "" {
				delete(item, "category")
			}
			kept = append(kept, item)
		}
		m["items"] = kept
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, err
	}
	return out, dropped, nil
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
