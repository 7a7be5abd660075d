package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/grambridge/grambridge/internal/invoke"
)

// maxWebhookResponseBytes bounds how much of a webhook response body is read
// when looking for a method-invocation instruction.
const maxWebhookResponseBytes = 1 << 20

// SetWebhook switches the session to push mode: the poll buffer is cleared,
// the URL recorded, and a fixed pool of workers starts draining the delivery
// queue. Updates already buffered are discarded, matching the mode-switch
// contract that only updates arriving after the switch are pushed.
func (s *Session) SetWebhook(url string) {
	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
	}
	s.webhookURL = url
	s.buffer = nil
	s.queue = make(chan Envelope, s.cfg.queueCapacity)
	s.stop = make(chan struct{})
	queue, stop := s.queue, s.stop
	s.mu.Unlock()

	for range s.cfg.workers {
		s.workersWG.Add(1)
		go func() {
			defer s.workersWG.Done()
			s.runWorker(queue, stop, url)
		}()
	}
	s.cfg.logger.Info("webhook registered", "url", url, "workers", s.cfg.workers)
}

// DeleteWebhook reverts the session to poll mode. Workers observe the stop
// signal and exit; envelopes still sitting in the old queue are dropped with
// it, and new updates buffer for pollers again.
func (s *Session) DeleteWebhook() {
	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.queue = nil
	s.webhookURL = ""
	s.mu.Unlock()
	s.cfg.logger.Info("webhook deleted")
}

// runWorker is one member of the delivery pool. Each worker preserves FIFO
// among the envelopes it personally dequeues; ordering across the pool is
// not guaranteed.
func (s *Session) runWorker(queue <-chan Envelope, stop <-chan struct{}, url string) {
	for {
		select {
		case <-stop:
			return
		case env := <-queue:
			s.deliver(env, stop, url)
		}
	}
}

// deliver POSTs one envelope to the webhook URL. Transport failures drop the
// envelope: no retry, no backoff. A 2xx response body encoding a method
// instruction is executed against the session's client; any failure there is
// logged and swallowed, never propagated to the delivery path.
func (s *Session) deliver(env Envelope, stop <-chan struct{}, url string) {
	payload, err := json.Marshal(env)
	if err != nil {
		s.cfg.logger.Error("webhook envelope marshal failed", "update_id", env.UpdateID, "error", err)
		s.cfg.metrics.Dropped()
		return
	}

	resp, err := s.cfg.httpClient.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		s.cfg.logger.Warn("webhook delivery failed, dropping update",
			"update_id", env.UpdateID,
			"error", err,
		)
		s.cfg.metrics.Dropped()
		return
	}
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxWebhookResponseBytes))
	_ = resp.Body.Close()
	s.cfg.metrics.Delivered()

	if readErr != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return
	}

	method, args, ok := decodeMethodInstruction(body)
	if !ok {
		return
	}
	select {
	case <-stop:
		return
	default:
	}
	// No timeout here: a hang stalls this one worker only.
	if _, err := invoke.Call(context.Background(), s.client, method, args); err != nil {
		s.cfg.logger.Warn("webhook response method failed",
			"method", method,
			"error", err,
		)
	}
}

// decodeMethodInstruction parses a webhook response body of the form
// {"method": "...", ...} into a wire method name plus string arguments, the
// same loosely-typed shape a direct HTTP call would supply.
func decodeMethodInstruction(body []byte) (string, map[string]string, bool) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", nil, false
	}
	method, ok := raw["method"].(string)
	if !ok || method == "" {
		return "", nil, false
	}
	delete(raw, "method")

	args := make(map[string]string, len(raw))
	for key, value := range raw {
		args[key] = stringifyArg(value)
	}
	return method, args, true
}

func stringifyArg(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		// Nested objects (reply_markup and friends) re-encode as JSON; the
		// argument mapper parses them back on the invocation side.
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
}
