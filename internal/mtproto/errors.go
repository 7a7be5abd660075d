package mtproto

import (
	"errors"
	"strings"

	"github.com/gotd/td/tgerr"
)

// ErrorKind buckets an underlying call failure for the HTTP error envelope.
type ErrorKind int

const (
	// KindOther covers everything without a more specific classification.
	KindOther ErrorKind = iota
	// KindUnauthorized means the session credentials were rejected.
	KindUnauthorized
	// KindForbidden means the operation was denied for this peer.
	KindForbidden
	// KindFlood means the network asked the caller to slow down.
	KindFlood
)

// Sentinel errors implementations attach to classified failures.
var (
	// ErrUnauthorized marks invalid or revoked bot credentials.
	ErrUnauthorized = errors.New("mtproto: unauthorized")

	// ErrForbidden marks a permission-denied response from the network.
	ErrForbidden = errors.New("mtproto: forbidden")

	// ErrFlood marks a flood-wait response from the network.
	ErrFlood = errors.New("mtproto: flood wait")

	// ErrPeerNotFound marks a chat_id that cannot be resolved to a peer.
	ErrPeerNotFound = errors.New("mtproto: peer not found")
)

// KindOf classifies err. It understands both the package sentinels and raw
// gotd RPC errors, so callers never need to import tgerr themselves.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindOther
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrFlood):
		return KindFlood
	}

	if _, ok := tgerr.AsFloodWait(err); ok {
		return KindFlood
	}
	rpcErr, ok := tgerr.As(err)
	if !ok {
		return KindOther
	}
	return classifyRPC(rpcErr)
}

func classifyRPC(rpcErr *tgerr.Error) ErrorKind {
	errType := strings.ToUpper(strings.TrimSpace(rpcErr.Type))
	if rpcErr.Code == 420 || rpcErr.Code == 429 || strings.Contains(errType, "FLOOD") {
		return KindFlood
	}
	switch rpcErr.Code {
	case 401:
		return KindUnauthorized
	case 403:
		return KindForbidden
	}
	if strings.Contains(errType, "UNAUTHORIZED") || strings.Contains(errType, "AUTH_KEY") ||
		strings.Contains(errType, "ACCESS_TOKEN") {
		return KindUnauthorized
	}
	return KindOther
}
