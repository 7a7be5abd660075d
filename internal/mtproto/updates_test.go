package mtproto

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/gotd/td/tg"
)

func newTestAdapter(t *testing.T) (*updateAdapter, *[]Event) {
	t.Helper()
	var events []Event
	adapter := &updateAdapter{
		handler: func(e Event) { events = append(events, e) },
		peers:   newPeerCache(),
		logger:  slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	}
	return adapter, &events
}

func TestAdapter_NewMessage(t *testing.T) {
	t.Parallel()

	adapter, events := newTestAdapter(t)

	msg := &tg.Message{
		ID:      7,
		PeerID:  &tg.PeerUser{UserID: 42},
		Date:    1672531200,
		Message: "hello",
	}
	msg.SetFromID(&tg.PeerUser{UserID: 42})

	user := &tg.User{ID: 42}
	user.SetAccessHash(1)
	user.SetFirstName("Ada")
	user.SetUsername("ada")

	err := adapter.Handle(t.Context(), &tg.Updates{
		Updates: []tg.UpdateClass{&tg.UpdateNewMessage{Message: msg}},
		Users:   []tg.UserClass{user},
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(*events) != 1 {
		t.Fatalf("got %d events, want 1", len(*events))
	}
	event := (*events)[0]
	if event.Kind != EventMessage {
		t.Errorf("kind = %v, want message", event.Kind)
	}
	if event.Body["_"] != "Message" {
		t.Errorf("discriminator = %v, want Message", event.Body["_"])
	}
	if event.Body["text"] != "hello" {
		t.Errorf("text = %v, want hello", event.Body["text"])
	}
	if event.Body["date"] != "2023-01-01 00:00:00" {
		t.Errorf("date = %v, want native format", event.Body["date"])
	}

	from := event.Body["from_user"].(map[string]any)
	if from["id"] != int64(42) || from["first_name"] != "Ada" {
		t.Errorf("from_user = %v", from)
	}
	chat := event.Body["chat"].(map[string]any)
	if chat["type"] != "private" || chat["id"] != int64(42) {
		t.Errorf("chat = %v", chat)
	}

	// The update also feeds the peer cache for later outbound calls.
	if _, err := adapter.peers.resolve(42); err != nil {
		t.Errorf("peer not cached: %v", err)
	}
}

func TestAdapter_SkipsOutgoing(t *testing.T) {
	t.Parallel()

	adapter, events := newTestAdapter(t)

	msg := &tg.Message{ID: 1, PeerID: &tg.PeerUser{UserID: 42}, Message: "mine"}
	msg.SetOut(true)

	_ = adapter.Handle(t.Context(), &tg.Updates{
		Updates: []tg.UpdateClass{&tg.UpdateNewMessage{Message: msg}},
	})

	if len(*events) != 0 {
		t.Errorf("got %d events for outgoing message, want 0", len(*events))
	}
}

func TestAdapter_ShortMessage(t *testing.T) {
	t.Parallel()

	adapter, events := newTestAdapter(t)

	_ = adapter.Handle(t.Context(), &tg.UpdateShortMessage{
		ID:      3,
		UserID:  42,
		Date:    1672531200,
		Message: "short",
	})

	if len(*events) != 1 {
		t.Fatalf("got %d events, want 1", len(*events))
	}
	if (*events)[0].Body["text"] != "short" {
		t.Errorf("text = %v, want short", (*events)[0].Body["text"])
	}
}

func TestAdapter_CallbackQuery(t *testing.T) {
	t.Parallel()

	adapter, events := newTestAdapter(t)

	update := &tg.UpdateBotCallbackQuery{
		QueryID:      900,
		UserID:       42,
		Peer:         &tg.PeerChannel{ChannelID: 123},
		MsgID:        5,
		ChatInstance: 77,
	}
	update.SetData([]byte("pick:1"))

	_ = adapter.Handle(t.Context(), &tg.Updates{
		Updates: []tg.UpdateClass{update},
	})

	if len(*events) != 1 {
		t.Fatalf("got %d events, want 1", len(*events))
	}
	event := (*events)[0]
	if event.Kind != EventCallbackQuery {
		t.Errorf("kind = %v, want callback query", event.Kind)
	}
	if event.Body["id"] != "900" {
		t.Errorf("id = %v, want string 900", event.Body["id"])
	}
	if event.Body["data"] != "pick:1" {
		t.Errorf("data = %v, want pick:1", event.Body["data"])
	}
	if event.Body["chat_id"] != int64(-1_000_000_000_123) {
		t.Errorf("chat_id = %v, want channel offset id", event.Body["chat_id"])
	}
}

func TestAdapter_InlineQuery(t *testing.T) {
	t.Parallel()

	adapter, events := newTestAdapter(t)

	_ = adapter.Handle(t.Context(), &tg.Updates{
		Updates: []tg.UpdateClass{&tg.UpdateBotInlineQuery{
			QueryID: 800,
			UserID:  42,
			Query:   "cats",
			Offset:  "",
		}},
	})

	if len(*events) != 1 {
		t.Fatalf("got %d events, want 1", len(*events))
	}
	event := (*events)[0]
	if event.Kind != EventInlineQuery {
		t.Errorf("kind = %v, want inline query", event.Kind)
	}
	if event.Body["query"] != "cats" {
		t.Errorf("query = %v, want cats", event.Body["query"])
	}
}

func TestEventKindString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		kind EventKind
		want string
	}{
		{EventMessage, "message"},
		{EventInlineQuery, "inline_query"},
		{EventCallbackQuery, "callback_query"},
	}
	for _, tc := range cases {
		if got := tc.kind.String(); got != tc.want {
			t.Errorf("String(%d) = %q, want %q", tc.kind, got, tc.want)
		}
	}
}
