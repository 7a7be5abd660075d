package mtproto

import "github.com/gotd/td/tg"

// Button is one inline keyboard button in wire form.
type Button struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

// ReplyMarkup is an inline keyboard in wire form, row by row. It is the
// value type the argument mapper rebuilds a reply_markup JSON payload into.
type ReplyMarkup struct {
	InlineKeyboard [][]Button `json:"inline_keyboard"`
}

// Empty reports whether the markup carries no buttons at all.
func (m ReplyMarkup) Empty() bool {
	for _, row := range m.InlineKeyboard {
		if len(row) > 0 {
			return false
		}
	}
	return true
}

// asTG converts the markup into gotd's reply markup class. Buttons with a URL
// become URL buttons, everything else a callback button carrying its data.
func (m ReplyMarkup) asTG() *tg.ReplyInlineMarkup {
	rows := make([]tg.KeyboardButtonRow, 0, len(m.InlineKeyboard))
	for _, row := range m.InlineKeyboard {
		if len(row) == 0 {
			continue
		}
		buttons := make([]tg.KeyboardButtonClass, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, &tg.KeyboardButtonURL{Text: b.Text, URL: b.URL})
				continue
			}
			buttons = append(buttons, &tg.KeyboardButtonCallback{
				Text: b.Text,
				Data: []byte(b.CallbackData),
			})
		}
		rows = append(rows, tg.KeyboardButtonRow{Buttons: buttons})
	}
	return &tg.ReplyInlineMarkup{Rows: rows}
}
