package bridge

import (
	"encoding/json"

	"github.com/grambridge/grambridge/internal/mtproto"
)

// Envelope is one inbound update tagged with its event kind and a
// per-session monotonically increasing sequence number, ready for delivery
// in Bot API update shape.
type Envelope struct {
	Kind     mtproto.EventKind
	Body     map[string]any
	UpdateID uint64
}

// MarshalJSON renders the Bot API update object: the normalized body keyed
// by the event kind, next to update_id.
func (e Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"update_id":     e.UpdateID,
		e.Kind.String(): e.Body,
	})
}
