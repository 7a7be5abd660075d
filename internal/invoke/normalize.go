package invoke

import (
	"encoding/json"
	"time"
)

// nativeTimeLayout is the human-readable timestamp format native object
// mappings carry before normalization.
const nativeTimeLayout = "2006-01-02 15:04:05"

// NormalizeResponse converts a native response into its Bot API wire shape.
// Booleans pass through. Mappings (or JSON strings encoding one) get
// kind-specific field rewrites keyed on the "_" discriminator, the
// from_user/from alias, and recursive normalization of nested objects.
// The function is idempotent: already-normalized input comes back unchanged.
func NormalizeResponse(v any) any {
	switch t := v.(type) {
	case bool:
		return t
	case map[string]any:
		return normalizeMapping(t)
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(t), &m); err != nil {
			return t
		}
		return normalizeMapping(m)
	default:
		return v
	}
}

func normalizeMapping(m map[string]any) map[string]any {
	switch m["_"] {
	case "Message":
		for _, field := range []string{"date", "edit_date", "forward_date"} {
			if raw, ok := m[field]; ok {
				m[field] = toEpochSeconds(raw)
			}
		}
	case "ChatPhoto":
		if v, ok := m["small_photo_unique_id"]; ok {
			m["small_file_unique_id"] = v
		}
		if v, ok := m["big_photo_unique_id"]; ok {
			m["big_file_unique_id"] = v
		}
	}

	if fromUser, ok := m["from_user"]; ok {
		m["from"] = fromUser
	}

	for key, value := range m {
		switch nested := value.(type) {
		case map[string]any:
			m[key] = normalizeMapping(nested)
		case []any:
			for i, elem := range nested {
				if elemMap, ok := elem.(map[string]any); ok {
					nested[i] = normalizeMapping(elemMap)
				}
			}
		}
	}
	return m
}

// toEpochSeconds rewrites a human-readable timestamp to epoch seconds.
// Values that are already numeric, or strings in an unexpected format, are
// returned as-is so repeated normalization cannot corrupt them.
func toEpochSeconds(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	ts, err := time.ParseInLocation(nativeTimeLayout, s, time.UTC)
	if err != nil {
		return v
	}
	return ts.Unix()
}
