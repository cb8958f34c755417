// Package public serves the read only api of the results service.
package public

import (
	"net/http"

	"github.com/mpapenbr/simresults-indexer/pkg/endpoints/utils"
	"github.com/mpapenbr/simresults-indexer/pkg/service"
	"github.com/mpapenbr/simresults-indexer/version"
)

const Prefix = "/api/"

var Endpoints = []utils.Endpoint{
	{Name: "files", Method: http.MethodGet, Handler: getFiles},
	{Name: "file", Method: http.MethodGet, Handler: getFile},
	{Name: "dates", Method: http.MethodGet, Handler: getDates},
	{Name: "info", Method: http.MethodGet, Handler: getInfo},
	{Name: "settings", Method: http.MethodGet, Handler: getSettings},
	{Name: "stats/driver", Method: http.MethodGet, Handler: getDriverStats},
	{Name: "stats/tracks", Method: http.MethodGet, Handler: getTrackStats},
	{Name: "stats/vehicles", Method: http.MethodGet, Handler: getVehicleStats},
	{Name: "stats/vehicle-tracks", Method: http.MethodGet, Handler: getVehicleTrackStats},
	{Name: "version", Method: http.MethodGet, Handler: getVersion},
}

func Register(mux *http.ServeMux, svc *service.ResultsService) {
	utils.Register(mux, Prefix, svc, Endpoints)
}

func getFiles(svc *service.ResultsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.WriteResult(w, svc.Files(r.Context()))
	}
}

func getFile(svc *service.ResultsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")
		if path == "" {
			http.Error(w, "missing parameter path", http.StatusBadRequest)
			return
		}
		utils.WriteResult(w, svc.File(r.Context(), path))
	}
}

func getDates(svc *service.ResultsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")
		if path == "" {
			http.Error(w, "missing parameter path", http.StatusBadRequest)
			return
		}
		utils.WriteResult(w, svc.Dates(r.Context(), path))
	}
}

func getInfo(svc *service.ResultsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.WriteResult(w, svc.Info(r.Context()))
	}
}

func getSettings(svc *service.ResultsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, svc.Settings())
	}
}

func getDriverStats(svc *service.ResultsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.WriteResult(w, svc.DriverStats(r.Context()))
	}
}

func getTrackStats(svc *service.ResultsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.WriteResult(w, svc.TrackStats(r.Context()))
	}
}

func getVehicleStats(svc *service.ResultsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.WriteResult(w, svc.VehicleStats(r.Context(), r.URL.Query().Get("class")))
	}
}

func getVehicleTrackStats(svc *service.ResultsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("vehicle") == "" {
			http.Error(w, "missing parameter vehicle", http.StatusBadRequest)
			return
		}
		utils.WriteResult(w,
			svc.VehicleTrackStats(r.Context(), q.Get("vehicle"), q.Get("class")))
	}
}

func getVersion(_ *service.ResultsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{
			"version":   version.Version,
			"buildDate": version.BuildDate,
			"gitCommit": version.GitCommit,
		})
	}
}
