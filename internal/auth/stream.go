// AngelaMos | 2026
// stream.go

package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/smartpro-edu/smartpro/internal/core"
	"github.com/smartpro-edu/smartpro/internal/identity"
	"github.com/smartpro-edu/smartpro/internal/middleware"
)

const sessionEvent = "session"

// StreamSession pushes the caller's session state as Server-Sent Events.
// The stream ends after a signed-out state or when the client leaves.
func (h *Handler) StreamSession(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		core.Unauthorized(w, "")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		core.InternalServerError(w, errors.New("response does not support streaming"))
		return
	}

	// The server write timeout would otherwise cut long-lived streams.
	//nolint:errcheck // unsupported writers keep the server deadline
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	tracker := h.service.Track(claims.UserID, claims.SessionID)
	defer tracker.Teardown()

	states, stop := tracker.Watch()
	defer stop()

	tracker.Init(r.Context(), &identity.Handle{ID: claims.UserID, Email: claims.Email})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case s, open := <-states:
			if !open {
				return
			}
			if err := writeEvent(w, sessionEvent, ToStateResponse(s)); err != nil {
				return
			}
			flusher.Flush()
			if s.SignedOut() {
				return
			}
		}
	}
}

func writeEvent(w io.Writer, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}
