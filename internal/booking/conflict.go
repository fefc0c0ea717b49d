package booking

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ConflictKeywords are matched case-insensitively against a 422 response to
// tell "this interval is taken" apart from other validation failures.
// CashBarber publishes no structured conflict code, so this list is observed
// behaviour and may miss reworded or localized messages.
var ConflictKeywords = []string{
	"interval",
	"schedule",
	"agenda",
}

// ConflictStatus is the status CashBarber uses for unavailable intervals.
const ConflictStatus = http.StatusUnprocessableEntity

// IsSlotConflict reports whether message, or any string found in errs,
// contains one of ConflictKeywords. errs may be a string, a list, or a
// field-to-messages map as returned by Laravel validation.
func IsSlotConflict(message string, errs any) bool {
	if containsKeyword(message) {
		return true
	}
	for _, s := range flattenStrings(errs) {
		if containsKeyword(s) {
			return true
		}
	}
	return false
}

// conflictFromBody decodes a raw error body and applies IsSlotConflict.
// fallback is used as the message when the body has none.
func conflictFromBody(raw json.RawMessage, fallback string) bool {
	var body struct {
		Message any `json:"message"`
		Errors  any `json:"errors"`
	}
	message := fallback
	if len(raw) > 0 && json.Unmarshal(raw, &body) == nil {
		if s, ok := body.Message.(string); ok && s != "" {
			message = s
		}
	}
	return IsSlotConflict(message, body.Errors)
}

func containsKeyword(s string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	for _, kw := range ConflictKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func flattenStrings(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, flattenStrings(item)...)
		}
		return out
	case map[string]any:
		var out []string
		for _, item := range t {
			out = append(out, flattenStrings(item)...)
		}
		return out
	default:
		return nil
	}
}
