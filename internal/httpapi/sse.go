package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// heartbeatInterval keeps idle event streams alive through proxies.
var heartbeatInterval = 15 * time.Second

// serveEvents streams every published Event as a server-sent event until the
// client disconnects or the server shuts down.
func serveEvents(w http.ResponseWriter, r *http.Request, svc Service) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	events, unsubscribe := svc.Subscribe()
	defer unsubscribe()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	out := io.Writer(w)
	if requestLogLevel(r) >= LevelDebug {
		out = io.MultiWriter(w, &loggingLineWriter{})
	}

	ctx, release := commandContext(r)
	defer release()
	tick := time.NewTicker(heartbeatInterval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev.Payload)
			if err != nil {
				zlog.Error().Err(err).Str("event", ev.Name).Msg("encode event")
				continue
			}
			if ev.RunID != "" {
				_, err = fmt.Fprintf(out, "event: %s\nid: %s\ndata: %s\n\n", ev.Name, ev.RunID, data)
			} else {
				_, err = fmt.Fprintf(out, "event: %s\ndata: %s\n\n", ev.Name, data)
			}
			if err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
