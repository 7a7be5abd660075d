package mtproto

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gotd/td/crypto"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/unpack"
	"github.com/gotd/td/tg"
)

// GotdConfig carries the application credentials and storage location shared
// by every session the factory creates.
type GotdConfig struct {
	AppID   int
	AppHash string

	// SessionDir holds gotd auth-key storage, one file per token. This is
	// protocol state, not bridge state: updates and webhook registrations
	// still live only in memory.
	SessionDir string

	Logger *slog.Logger
}

// NewGotdFactory returns a Factory producing gotd/td-backed clients. Each
// client owns a dedicated runtime goroutine; creation blocks until the bot
// token is authorized or rejected.
func NewGotdFactory(cfg GotdConfig) Factory {
	return func(ctx context.Context, token string, handler EventHandler) (Client, error) {
		return newGotdClient(ctx, cfg, token, handler)
	}
}

// gotdClient is one authorized bot session over gotd/td.
type gotdClient struct {
	api    *tg.Client
	sender *message.Sender
	rand   io.Reader
	peers  *peerCache
	logger *slog.Logger

	mu   sync.RWMutex
	self *tg.User

	// runCtx outlives individual Invoke calls: RPCs are issued on it merged
	// with the caller's deadline so a closed session fails calls promptly.
	cancel context.CancelFunc
	done   chan struct{}
}

func newGotdClient(ctx context.Context, cfg GotdConfig, token string, handler EventHandler) (*gotdClient, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	storage, err := sessionStorage(cfg.SessionDir, token)
	if err != nil {
		return nil, fmt.Errorf("mtproto: session storage: %w", err)
	}

	peers := newPeerCache()
	adapter := &updateAdapter{handler: handler, peers: peers, logger: logger}

	client := telegram.NewClient(cfg.AppID, cfg.AppHash, telegram.Options{
		UpdateHandler:  adapter,
		SessionStorage: storage,
	})

	gc := &gotdClient{
		api:    client.API(),
		sender: message.NewSender(client.API()),
		rand:   crypto.DefaultRand(),
		peers:  peers,
		logger: logger,
		done:   make(chan struct{}),
	}

	runCtx, cancel := context.WithCancel(context.Background())
	gc.cancel = cancel
	ready := make(chan error, 1)

	go func() {
		defer close(gc.done)
		err := client.Run(runCtx, func(runCtx context.Context) error {
			status, err := client.Auth().Status(runCtx)
			if err != nil {
				ready <- fmt.Errorf("auth status: %w", err)
				return err
			}
			if !status.Authorized {
				if _, err := client.Auth().Bot(runCtx, token); err != nil {
					ready <- fmt.Errorf("%w: %v", ErrUnauthorized, err)
					return err
				}
			}
			self, err := client.Self(runCtx)
			if err != nil {
				ready <- fmt.Errorf("load self: %w", err)
				return err
			}
			gc.setSelf(self)
			ready <- nil

			<-runCtx.Done()
			return runCtx.Err()
		})
		if err != nil {
			// Run can fail before the callback fires (dial errors).
			select {
			case ready <- fmt.Errorf("client run: %w", err):
			default:
			}
		}
	}()

	select {
	case err := <-ready:
		if err != nil {
			cancel()
			<-gc.done
			return nil, fmt.Errorf("mtproto: start session: %w", err)
		}
	case <-ctx.Done():
		cancel()
		<-gc.done
		return nil, fmt.Errorf("mtproto: start session: %w", ctx.Err())
	}

	logger.Info("mtproto session started", "bot_id", gc.selfUser().ID)
	return gc, nil
}

// Operations implements Client.
func (c *gotdClient) Operations() map[string]OpSpec {
	return operationSpecs
}

// Invoke implements Client. The operation runs against the session runtime;
// cancellation of either the caller's context or the session applies.
func (c *gotdClient) Invoke(ctx context.Context, op string, args map[string]any) (any, error) {
	fn, ok := operationFuncs[op]
	if !ok {
		return nil, fmt.Errorf("mtproto: unknown operation %q", op)
	}
	select {
	case <-c.done:
		return nil, fmt.Errorf("mtproto: session closed")
	default:
	}
	return fn(ctx, c, args)
}

// Close implements Client.
func (c *gotdClient) Close() {
	c.cancel()
	<-c.done
}

func (c *gotdClient) setSelf(self *tg.User) {
	c.mu.Lock()
	c.self = self
	c.mu.Unlock()
}

func (c *gotdClient) selfUser() *tg.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.self == nil {
		return &tg.User{}
	}
	return c.self
}

func randCryptoInt64(r io.Reader) (int64, error) {
	return crypto.RandInt64(r)
}

// sentMessageID extracts the acked message id from a send response.
func sentMessageID(updates tg.UpdatesClass) (int, error) {
	return unpack.MessageID(updates, nil)
}

// sessionStorage builds the per-token gotd key store. The token never appears
// on disk in clear; the filename is a digest.
func sessionStorage(dir, token string) (*session.FileStorage, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "grambridge")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir %s: %w", dir, err)
	}
	sum := sha256.Sum256([]byte(token))
	name := hex.EncodeToString(sum[:8]) + ".json"
	return &session.FileStorage{Path: filepath.Join(dir, name)}, nil
}
