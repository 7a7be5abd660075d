package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/grambridge/grambridge/internal/bridge"
	"github.com/grambridge/grambridge/internal/invoke"
	"github.com/grambridge/grambridge/internal/mtproto"
)

const maxRequestBodyBytes = 4 << 20

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": s.registry.Len(),
		})
	}
}

// handleMethod is the single entry point for every /bot{token}/{method}
// request. Built-in delivery methods short-circuit; everything else goes
// through the generic invocation path.
func (s *Server) handleMethod(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	method := chi.URLParam(r, "method")

	args, err := requestArgs(r)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", invoke.ErrBadArgument, err))
		return
	}

	session, err := s.registry.GetOrCreate(r.Context(), token)
	if err != nil {
		s.writeError(w, err)
		return
	}

	switch method {
	case "getUpdates":
		s.handleGetUpdates(w, r, session, args)
	case "setWebhook":
		s.handleSetWebhook(w, session, args)
	case "deleteWebhook":
		session.DeleteWebhook()
		writeResult(w, true)
	case "getWebhookInfo":
		writeResult(w, map[string]any{
			"url":                    session.WebhookURL(),
			"has_custom_certificate": false,
			"pending_update_count":   session.Buffered(),
		})
	case "setMyCommands":
		// Accepted but not forwarded; command menus are client-side state.
		writeResult(w, true)
	default:
		result, err := invoke.Call(r.Context(), session.Client(), method, args)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeResult(w, invoke.NormalizeResponse(result))
	}
}

func (s *Server) handleGetUpdates(w http.ResponseWriter, r *http.Request, session *bridge.Session, args map[string]string) {
	timeout := time.Duration(0)
	if raw := args["timeout"]; raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: timeout: %v", invoke.ErrBadArgument, err))
			return
		}
		timeout = time.Duration(secs) * time.Second
	}
	if timeout > s.config.PollMaxTimeout {
		timeout = s.config.PollMaxTimeout
	}

	updates := session.Drain(r.Context(), timeout)
	writeResult(w, updates)
}

func (s *Server) handleSetWebhook(w http.ResponseWriter, session *bridge.Session, args map[string]string) {
	url := args["url"]
	if url == "" {
		// Bot API treats an empty url as webhook removal.
		session.DeleteWebhook()
		writeResult(w, true)
		return
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		s.writeError(w, fmt.Errorf("%w: url: unsupported scheme", invoke.ErrBadArgument))
		return
	}
	session.SetWebhook(url)
	writeResult(w, true)
}

// requestArgs flattens the request into string arguments: query parameters,
// form fields, and a JSON object body all merge into one map, with the body
// winning on conflicts.
func requestArgs(r *http.Request) (map[string]string, error) {
	args := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			args[key] = values[0]
		}
	}

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "application/json"):
		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
		if err != nil {
			return nil, err
		}
		if len(body) > 0 {
			var raw map[string]any
			if err := json.Unmarshal(body, &raw); err != nil {
				return nil, err
			}
			for key, value := range raw {
				args[key] = jsonArgString(value)
			}
		}
	default:
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		for key, values := range r.PostForm {
			if len(values) > 0 {
				args[key] = values[0]
			}
		}
	}
	return args, nil
}

func jsonArgString(value any) string {
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
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
}

// writeError maps an error onto the Bot API failure envelope. Status codes
// follow the native error taxonomy; anything unclassified is a 400.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := http.StatusBadRequest
	switch {
	case errors.Is(err, invoke.ErrMethodNotFound), errors.Is(err, invoke.ErrBadArgument):
		code = http.StatusBadRequest
	default:
		switch mtproto.KindOf(err) {
		case mtproto.KindForbidden:
			code = http.StatusForbidden
		case mtproto.KindFlood:
			code = http.StatusTooManyRequests
		case mtproto.KindUnauthorized:
			code = http.StatusUnauthorized
		}
	}
	if s.metrics != nil {
		s.metrics.RequestError(code)
	}
	writeJSON(w, code, map[string]any{
		"ok":          false,
		"error_code":  code,
		"description": err.Error(),
	})
}

func writeResult(w http.ResponseWriter, result any) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"result": result,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
