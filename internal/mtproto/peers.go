package mtproto

import (
	"fmt"
	"sync"

	"github.com/gotd/td/tg"
)

// botAPIChannelOffset is the offset Bot API applies to channel and supergroup
// identifiers: channel 123 appears to callers as chat_id -1000000000123.
const botAPIChannelOffset int64 = 1_000_000_000_000

// peerCache stores input peers discovered from inbound updates, keyed by the
// Bot-API-style chat_id the HTTP caller will later pass back for outbound
// calls. Bots cannot look up arbitrary access hashes, so a peer is only
// addressable after it has been seen at least once.
type peerCache struct {
	mu    sync.RWMutex
	peers map[int64]tg.InputPeerClass
}

func newPeerCache() *peerCache {
	return &peerCache{peers: make(map[int64]tg.InputPeerClass)}
}

// rememberUser stores the user under its positive Bot API id.
func (c *peerCache) rememberUser(user *tg.User) {
	if user == nil {
		return
	}
	peer := user.AsInputPeer()
	if peer == nil {
		return
	}
	c.mu.Lock()
	c.peers[user.ID] = peer
	c.mu.Unlock()
}

// rememberChat stores a basic group or channel under its Bot API chat_id.
func (c *peerCache) rememberChat(chat tg.ChatClass) {
	switch typed := chat.(type) {
	case *tg.Chat:
		c.mu.Lock()
		c.peers[-typed.ID] = &tg.InputPeerChat{ChatID: typed.ID}
		c.mu.Unlock()
	case *tg.Channel:
		peer := typed.AsInputPeer()
		if peer == nil {
			return
		}
		c.mu.Lock()
		c.peers[-(botAPIChannelOffset + typed.ID)] = peer
		c.mu.Unlock()
	}
}

// rememberPeer stores an already-resolved peer under an explicit chat_id.
func (c *peerCache) rememberPeer(chatID int64, peer tg.InputPeerClass) {
	if peer == nil {
		return
	}
	c.mu.Lock()
	c.peers[chatID] = peer
	c.mu.Unlock()
}

// resolve maps a Bot API chat_id onto an input peer seen in earlier updates.
func (c *peerCache) resolve(chatID int64) (tg.InputPeerClass, error) {
	c.mu.RLock()
	peer, ok := c.peers[chatID]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: chat_id %d", ErrPeerNotFound, chatID)
	}
	return peer, nil
}

// botAPIChatID converts a raw MTProto peer into the chat_id callers see.
func botAPIChatID(peer tg.PeerClass) int64 {
	switch typed := peer.(type) {
	case *tg.PeerUser:
		return typed.UserID
	case *tg.PeerChat:
		return -typed.ChatID
	case *tg.PeerChannel:
		return -(botAPIChannelOffset + typed.ChannelID)
	default:
		return 0
	}
}
