package invoke

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"

	"github.com/grambridge/grambridge/internal/mtproto"
)

// CamelToSnake converts a Bot API wire method name into the underlying
// client's snake_case operation name: "sendMessage" → "send_message".
func CamelToSnake(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeArgs applies the wire-level argument rewrites that do not depend
// on the target operation: a reply_markup payload is rebuilt into the
// client's markup value type, and unsigned all-digit strings become ints.
// Everything else passes through untouched; per-parameter coercion against
// the operation's declared types happens later.
func NormalizeArgs(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for key, value := range args {
		if key == "reply_markup" {
			out[key] = normalizeReplyMarkup(value)
			continue
		}
		if s, ok := value.(string); ok && isDigits(s) {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				out[key] = int(n)
				continue
			}
		}
		out[key] = value
	}
	return out
}

// normalizeReplyMarkup parses a string-encoded markup if needed and rebuilds
// an inline keyboard row by row. An empty keyboard normalizes to an empty
// mapping rather than the typed value.
func normalizeReplyMarkup(value any) any {
	raw, ok := value.(map[string]any)
	if !ok {
		s, isStr := value.(string)
		if !isStr {
			return value
		}
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			return value
		}
	}

	rows, ok := raw["inline_keyboard"].([]any)
	if !ok {
		return raw
	}

	markup := mtproto.ReplyMarkup{InlineKeyboard: make([][]mtproto.Button, 0, len(rows))}
	for _, rawRow := range rows {
		cells, ok := rawRow.([]any)
		if !ok {
			continue
		}
		row := make([]mtproto.Button, 0, len(cells))
		for _, rawButton := range cells {
			fields, ok := rawButton.(map[string]any)
			if !ok {
				continue
			}
			button := mtproto.Button{}
			button.Text, _ = fields["text"].(string)
			button.URL, _ = fields["url"].(string)
			button.CallbackData, _ = fields["callback_data"].(string)
			row = append(row, button)
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, row)
	}

	if markup.Empty() {
		return map[string]any{}
	}
	return markup
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
