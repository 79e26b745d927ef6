package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/expocenter/stand-reservation/internal/notifier"
)

// EventsHandler streams claim transitions to the floor-plan UI over
// Server-Sent Events. Each event carries stand_id, old/new status and
// the claim version; a client that sees a version that is not exactly
// one above its last-seen value for that stand discards it and
// refetches the catalog with Cache-Control: no-cache, so the response
// cache cannot hand back a state older than the gap. That
// gap-and-resync contract is why the hub may drop events for a slow
// consumer instead of buffering forever.
type EventsHandler struct {
	Hub *notifier.Hub
}

// NewEventsHandler constructs an EventsHandler. The hub must be non-nil.
func NewEventsHandler(hub *notifier.Hub) *EventsHandler {
	if hub == nil {
		panic("nil hub passed to NewEventsHandler")
	}
	return &EventsHandler{Hub: hub}
}

// heartbeatInterval keeps intermediaries from reaping idle streams.
const heartbeatInterval = 25 * time.Second

// Stream handles GET /v1/stands/events. The connection stays open
// until the client goes away; the subscription is removed on return
// so abandoned tabs do not leak hub slots.
func (h *EventsHandler) Stream(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)

	events, cancel := h.Hub.Subscribe()
	defer cancel()

	// Tell the client it is live; it should fetch the catalog now to
	// establish its version baseline.
	if _, err := fmt.Fprint(res, "event: ready\ndata: {}\n\n"); err != nil {
		return nil
	}
	res.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(res, "event: claim\ndata: %s\n\n", payload); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
