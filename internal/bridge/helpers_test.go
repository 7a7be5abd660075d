package bridge

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/grambridge/grambridge/internal/mtproto"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// fakeClient is a recording protocol client. invoked receives one element
// per Invoke call so tests can wait for asynchronous invocations.
type fakeClient struct {
	mu      sync.Mutex
	calls   []invocation
	invoked chan invocation
	closed  bool
}

type invocation struct {
	op   string
	args map[string]any
}

func newFakeClient() *fakeClient {
	return &fakeClient{invoked: make(chan invocation, 16)}
}

func (c *fakeClient) Operations() map[string]mtproto.OpSpec {
	return map[string]mtproto.OpSpec{
		"delete_messages": {Name: "delete_messages", Params: []mtproto.Param{
			{Name: "chat_id", Kind: mtproto.KindInt64},
			{Name: "message_ids", Kind: mtproto.KindIntSlice},
		}},
		"send_message": {Name: "send_message", Params: []mtproto.Param{
			{Name: "chat_id", Kind: mtproto.KindInt64},
			{Name: "text", Kind: mtproto.KindString},
		}},
	}
}

func (c *fakeClient) Invoke(_ context.Context, op string, args map[string]any) (any, error) {
	call := invocation{op: op, args: args}
	c.mu.Lock()
	c.calls = append(c.calls, call)
	c.mu.Unlock()
	c.invoked <- call
	return true, nil
}

func (c *fakeClient) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// countingFactory builds fakeClients and counts how many it created.
type countingFactory struct {
	mu      sync.Mutex
	created int
	failFor map[string]error
	clients map[string]*fakeClient
}

func newCountingFactory() *countingFactory {
	return &countingFactory{
		failFor: make(map[string]error),
		clients: make(map[string]*fakeClient),
	}
}

func (f *countingFactory) factory(_ context.Context, token string, _ mtproto.EventHandler) (mtproto.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[token]; ok {
		return nil, err
	}
	f.created++
	client := newFakeClient()
	f.clients[token] = client
	return client, nil
}

func (f *countingFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}

var errBadToken = errors.New("auth failed")

func newTestRegistry(t *testing.T, factory *countingFactory) *Registry {
	t.Helper()
	reg := NewRegistry(RegistryConfig{
		Factory: factory.factory,
		Logger:  testLogger(),
	})
	t.Cleanup(reg.Close)
	return reg
}
