// Package events streams index notifications as server sent events.
package events

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mpapenbr/simresults-indexer/log"
	"github.com/mpapenbr/simresults-indexer/pkg/notify"
)

const Path = "/api/events"

func Register(mux *http.ServeMux, src *notify.Local) {
	mux.Handle("GET "+Path, Handler(src))
}

// Handler sends each event of src until the client disconnects
func Handler(src *notify.Local) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		ch := src.Subscribe()
		defer src.Unsubscribe(ch)
		l := log.Default().Named("events")
		l.Debug("client connected", log.String("remote", r.RemoteAddr))
		for {
			select {
			case <-r.Context().Done():
				l.Debug("client disconnected", log.String("remote", r.RemoteAddr))
				return
			case ev, more := <-ch:
				if !more {
					return
				}
				data, err := json.Marshal(ev)
				if err != nil {
					l.Warn("could not encode event", log.ErrorField(err))
					continue
				}
				if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
