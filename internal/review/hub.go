// Package review serves the admin review queue: a live websocket feed of
// newly queued courses and a spreadsheet export.
package review

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/pai-courses/internal/course"
)

const (
	subscriberBuffer = 16
	writeTimeout     = 5 * time.Second
)

// Hub fans review requests out to feed subscribers. Slow subscribers drop
// messages rather than block publishing.
type Hub struct {
	subs map[chan course.ReviewRequested]struct{}
	mu   sync.Mutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan course.ReviewRequested]struct{})}
}

// Subscribe registers a subscriber. Call the returned func to unsubscribe.
func (h *Hub) Subscribe() (<-chan course.ReviewRequested, func()) {
	ch := make(chan course.ReviewRequested, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
		})
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// NotifyReview implements course.Notifier.
func (h *Hub) NotifyReview(_ context.Context, c course.Course) error {
	msg := course.NewReviewRequested(c)

	h.mu.Lock()
	defer h.mu.Unlock()

	dropped := 0
	for ch := range h.subs {
		select {
		case ch <- msg:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		slog.Warn("review feed subscribers lagging", "course_id", c.ID, "dropped", dropped)
	}
	return nil
}

// ServeHTTP upgrades to a websocket and streams review requests as JSON
// until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("review feed upgrade failed", "error", err)
		return
	}
	defer conn.CloseNow()

	// The feed is one-way; CloseRead handles control frames and cancels ctx on close.
	ctx := conn.CloseRead(r.Context())

	msgs, unsubscribe := h.Subscribe()
	defer unsubscribe()
	slog.Info("review feed connected", "subscribers", h.Subscribers())

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case msg := <-msgs:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, conn, msg)
			cancel()
			if err != nil {
				slog.Debug("review feed write failed", "error", err)
				return
			}
		}
	}
}
