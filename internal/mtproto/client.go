// Package mtproto defines the boundary to the underlying MTProto client.
//
// The bridge never talks to gotd directly: it sees a Client that publishes a
// static table of named operations and emits inbound events to a handler.
// The invoker coerces wire arguments against the descriptor table, so one
// generic call path serves every operation without per-method glue code.
package mtproto

import "context"

// EventKind is the closed set of inbound event classes the bridge delivers.
type EventKind int

const (
	// EventMessage is an inbound chat message addressed to the bot.
	EventMessage EventKind = iota
	// EventInlineQuery is an inline query typed at the bot.
	EventInlineQuery
	// EventCallbackQuery is a callback button press on a bot message.
	EventCallbackQuery
)

// String returns the Bot API wire name of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventInlineQuery:
		return "inline_query"
	case EventCallbackQuery:
		return "callback_query"
	default:
		return "unknown"
	}
}

// Event is one inbound update from the underlying client, already shaped as
// a native object mapping keyed by the kind tag.
type Event struct {
	Kind EventKind
	Body map[string]any
}

// EventHandler consumes inbound events. It runs on the client's own event
// loop goroutine and must not block.
type EventHandler func(Event)

// ParamKind describes the declared type of one operation parameter.
type ParamKind int

const (
	KindString ParamKind = iota
	KindInt
	KindInt64
	KindFloat
	KindBool
	KindIntSlice
	KindMarkup
)

// Param is one declared parameter of a named operation.
type Param struct {
	Name string
	Kind ParamKind
}

// OpSpec describes one named operation of the underlying client.
type OpSpec struct {
	Name   string
	Params []Param
}

// Param returns the declared parameter with the given name, if any.
func (s OpSpec) Param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Client is the capability surface of one authenticated bot session.
//
// Implementations own a background event loop that feeds the EventHandler
// registered at construction. Operations addressed by snake_case name are
// invoked with already-coerced arguments; the result is either a native
// object mapping or a bare bool.
type Client interface {
	// Operations returns the descriptor table, keyed by operation name.
	// The table is built once at construction and never changes.
	Operations() map[string]OpSpec

	// Invoke executes the named operation. Arguments must already match the
	// declared parameter kinds. The error carries an ErrorKind classifiable
	// via KindOf.
	Invoke(ctx context.Context, op string, args map[string]any) (any, error)

	// Close stops the event loop and releases the session.
	Close()
}

// Factory creates and starts a Client for a bot token. Creation fails when
// the underlying network rejects the token.
type Factory func(ctx context.Context, token string, handler EventHandler) (Client, error)
