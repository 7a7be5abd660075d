package mtproto

import (
	"errors"
	"testing"

	"github.com/gotd/td/tg"
)

func TestPeerCache_UserRoundTrip(t *testing.T) {
	t.Parallel()

	cache := newPeerCache()
	cached := &tg.User{ID: 42}
	cached.SetAccessHash(7)
	cache.rememberUser(cached)

	peer, err := cache.resolve(42)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	user, ok := peer.(*tg.InputPeerUser)
	if !ok {
		t.Fatalf("peer = %T, want *tg.InputPeerUser", peer)
	}
	if user.UserID != 42 || user.AccessHash != 7 {
		t.Errorf("peer = %+v, want id 42 hash 7", user)
	}
}

func TestPeerCache_GroupNegativeID(t *testing.T) {
	t.Parallel()

	cache := newPeerCache()
	cache.rememberChat(&tg.Chat{ID: 555})

	peer, err := cache.resolve(-555)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, ok := peer.(*tg.InputPeerChat); !ok {
		t.Errorf("peer = %T, want *tg.InputPeerChat", peer)
	}
}

func TestPeerCache_ChannelOffsetID(t *testing.T) {
	t.Parallel()

	cache := newPeerCache()
	cache.rememberChat(&tg.Channel{ID: 123, AccessHash: 9})

	peer, err := cache.resolve(-1_000_000_000_123)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	channel, ok := peer.(*tg.InputPeerChannel)
	if !ok {
		t.Fatalf("peer = %T, want *tg.InputPeerChannel", peer)
	}
	if channel.ChannelID != 123 {
		t.Errorf("channel id = %d, want 123", channel.ChannelID)
	}
}

func TestPeerCache_Unknown(t *testing.T) {
	t.Parallel()

	cache := newPeerCache()
	_, err := cache.resolve(999)
	if !errors.Is(err, ErrPeerNotFound) {
		t.Errorf("err = %v, want ErrPeerNotFound", err)
	}
}

func TestBotAPIChatID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		peer tg.PeerClass
		want int64
	}{
		{&tg.PeerUser{UserID: 42}, 42},
		{&tg.PeerChat{ChatID: 555}, -555},
		{&tg.PeerChannel{ChannelID: 123}, -1_000_000_000_123},
	}
	for _, tc := range cases {
		if got := botAPIChatID(tc.peer); got != tc.want {
			t.Errorf("botAPIChatID(%T) = %d, want %d", tc.peer, got, tc.want)
		}
	}
}
