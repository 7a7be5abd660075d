package mtproto

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gotd/td/tgerr"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindOther},
		{"plain", errors.New("boom"), KindOther},
		{"sentinel unauthorized", fmt.Errorf("wrap: %w", ErrUnauthorized), KindUnauthorized},
		{"sentinel forbidden", ErrForbidden, KindForbidden},
		{"sentinel flood", ErrFlood, KindFlood},
		{"peer not found", ErrPeerNotFound, KindOther},
		{"rpc flood wait", tgerr.New(420, "FLOOD_WAIT_30"), KindFlood},
		{"rpc 429", tgerr.New(429, "TOO_MANY_REQUESTS"), KindFlood},
		{"rpc flood type", tgerr.New(400, "FLOOD_PREMIUM_WAIT_5"), KindFlood},
		{"rpc 401", tgerr.New(401, "AUTH_KEY_INVALID"), KindUnauthorized},
		{"rpc 403", tgerr.New(403, "CHAT_WRITE_FORBIDDEN"), KindForbidden},
		{"rpc access token", tgerr.New(400, "ACCESS_TOKEN_INVALID"), KindUnauthorized},
		{"rpc bad request", tgerr.New(400, "MESSAGE_EMPTY"), KindOther},
		{"wrapped rpc", fmt.Errorf("call: %w", tgerr.New(403, "CHAT_ADMIN_REQUIRED")), KindForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := KindOf(tc.err); got != tc.want {
				t.Errorf("KindOf(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}
