package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
	"git.home.luguber.info/inful/mealprep/internal/eventlog"
)

// handleEvents streams resolution and cart-push events for the requesting
// user as Server-Sent Events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.deps.Events == nil {
		s.Fail(w, r, apperrors.New(apperrors.CategoryConfig, apperrors.SeverityError, "event log is not configured"))
		return
	}

	user := userFrom(r)

	// The stream stays open until the client disconnects; the server-wide
	// write deadline must not apply to this connection.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	eventCh, unsubscribe := s.deps.Events.Subscribe(16)
	defer unsubscribe()

	slog.Info("event stream opened", "user", user)

	s.sendSSEEvent(w, eventlog.Event{
		Type:      "connected",
		User:      user,
		Timestamp: time.Now(),
	})

	done := r.Context().Done()
	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-done:
			slog.Debug("event stream closed", "user", user)
			return

		case <-keepalive.C:
			// SSE comment line keeps intermediaries from timing out the stream.
			fmt.Fprint(w, ": keepalive\n\n")
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}

		case ev, ok := <-eventCh:
			if !ok {
				return
			}
			if ev.User != user {
				continue
			}
			s.sendSSEEvent(w, ev)
		}
	}
}

// sendSSEEvent writes one event in SSE format and flushes.
func (s *Server) sendSSEEvent(w http.ResponseWriter, ev eventlog.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("failed to marshal SSE event", "error", err)
		return
	}

	fmt.Fprintf(w, "data: %s\n\n", data)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
