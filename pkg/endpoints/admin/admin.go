// Package admin serves the endpoints which modify the index or the settings.
package admin

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/mpapenbr/simresults-indexer/log"
	"github.com/mpapenbr/simresults-indexer/pkg/config"
	"github.com/mpapenbr/simresults-indexer/pkg/endpoints/utils"
	"github.com/mpapenbr/simresults-indexer/pkg/service"
)

const (
	Prefix      = "/api/admin/"
	tokenHeader = "api-token"
)

// Register adds the admin endpoints. Settings changes are persisted to
// settingsFile. If token is set, requests must carry it in the api-token
// header.
//
//nolint:whitespace // can't make both editor and linter happy
func Register(
	mux *http.ServeMux, svc *service.ResultsService, settingsFile, token string,
) {
	eps := []utils.Endpoint{
		{Name: "refresh", Method: http.MethodPost, Handler: refresh},
		{Name: "prune", Method: http.MethodPost, Handler: prune},
		{Name: "reset", Method: http.MethodPost, Handler: reset},
		{Name: "settings", Method: http.MethodPut, Handler: putSettings(settingsFile)},
	}
	if token != "" {
		for i := range eps {
			eps[i].Handler = requireToken(token, eps[i].Handler)
		}
	}
	utils.Register(mux, Prefix, svc, eps)
}

func requireToken(token string, next utils.Handler) utils.Handler {
	return func(svc *service.ResultsService) http.HandlerFunc {
		h := next(svc)
		return func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(tokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				log.Warn("rejected admin request", log.String("remote", r.RemoteAddr))
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			h(w, r)
		}
	}
}

func refresh(svc *service.ResultsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("refresh requested")
		utils.WriteResult(w, svc.Refresh(r.Context()))
	}
}

func prune(svc *service.ResultsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.WriteResult(w, svc.Prune(r.Context()))
	}
}

func reset(svc *service.ResultsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Warn("reset requested", log.String("remote", r.RemoteAddr))
		utils.WriteResult(w, svc.Reset(r.Context()))
	}
}

func putSettings(file string) utils.Handler {
	return func(svc *service.ResultsService) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			s := &config.Settings{}
			if err := json.NewDecoder(r.Body).Decode(s); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if err := s.Validate(); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if file != "" {
				if err := config.SaveSettings(file, s); err != nil {
					log.Error("could not save settings", log.ErrorField(err))
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}
			}
			svc.UpdateSettings(r.Context(), s)
			utils.WriteJSON(w, http.StatusOK, s)
		}
	}
}
