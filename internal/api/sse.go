package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/blackwell-systems/lifestream/internal/events"
)

const (
	sseBuffer    = 256
	sseKeepAlive = 15 * time.Second
)

type sseMessage struct {
	event string
	data  string
}

// eventStream streams bus envelopes as Server-Sent Events. ?names=a,b restricts
// the stream to those event names. A slow client drops events rather than
// stalling the publisher.
func (h *handler) eventStream(c *gin.Context) {
	filter, err := parseNames(c.Query("names"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	msgs := make(chan sseMessage, sseBuffer)
	var dropped atomic.Int64
	unsubscribe := h.stream.Bus().SubscribeAll(func(e events.Envelope) {
		if filter != nil && !filter[e.Name] {
			return
		}
		// Encode on the publishing goroutine so the payload is never read
		// after the publisher moves on.
		msg := sseMessage{event: e.Name, data: marshalPayload(e)}
		select {
		case msgs <- msg:
		default:
			dropped.Add(1)
		}
	})
	defer func() {
		unsubscribe()
		if n := dropped.Load(); n > 0 {
			h.logger.Warn("sse client dropped events", zap.Int64("dropped", n))
		}
	}()

	setSSEHeaders(c.Writer)
	c.Status(http.StatusOK)
	sseWrite(c.Writer, "ping", "ready")
	flusher.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	// Ends when the client disconnects or the server context is cancelled.
	done := c.Request.Context().Done()
	for {
		select {
		case <-done:
			return
		case msg := <-msgs:
			sseWrite(c.Writer, msg.event, msg.data)
			flusher.Flush()
		case <-keepAlive.C:
			_, _ = fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

// parseNames returns nil for an empty list, meaning every event.
func parseNames(raw string) (map[string]bool, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	out := map[string]bool{}
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !events.Known(name) {
			return nil, fmt.Errorf("unknown event name %q", name)
		}
		out[name] = true
	}
	return out, nil
}

func setSSEHeaders(w http.ResponseWriter) {
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
}

func sseWrite(w http.ResponseWriter, event string, data string) {
	if event != "" {
		_, _ = fmt.Fprintf(w, "event: %s\n", event)
	}
	for _, line := range strings.Split(data, "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = fmt.Fprint(w, "\n")
}

func marshalPayload(data any) string {
	switch payload := data.(type) {
	case string:
		return payload
	case []byte:
		return string(payload)
	default:
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Sprintf("%v", data)
		}
		return string(b)
	}
}
