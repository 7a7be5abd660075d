package bridge

import "errors"

// ErrRegistryClosed is returned once shutdown has begun and no new sessions
// may be created.
var ErrRegistryClosed = errors.New("bridge: registry closed")
