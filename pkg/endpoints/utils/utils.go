// Package utils contains helpers shared by the http endpoints.
package utils

import (
	"encoding/json"
	"net/http"

	"github.com/mpapenbr/simresults-indexer/log"
	"github.com/mpapenbr/simresults-indexer/pkg/service"
)

type (
	// Handler creates the http handler of an endpoint for svc
	Handler  func(svc *service.ResultsService) http.HandlerFunc
	Endpoint struct {
		Name    string
		Method  string
		Handler Handler
	}
)

// Register adds the endpoints below prefix to mux
func Register(mux *http.ServeMux, prefix string, svc *service.ResultsService, eps []Endpoint) {
	for _, ep := range eps {
		pattern := ep.Method + " " + prefix + ep.Name
		log.Debug("Registering", log.String("endpoint", pattern))
		mux.Handle(pattern, ep.Handler(svc))
	}
}

// WriteResult sends r as json. Failed results use status code 422.
func WriteResult[T any](w http.ResponseWriter, r service.Result[T]) {
	status := http.StatusOK
	if !r.OK {
		status = http.StatusUnprocessableEntity
	}
	WriteJSON(w, status, r)
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("could not write response", log.ErrorField(err))
	}
}
