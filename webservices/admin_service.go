package webservices

import (
	"encoding/json"
	"net/http"

	"github.com/geolayers/eelayer/prefetch"
	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/paulmach/osm"
)

// AdminService exposes the prefetch queue: list jobs, enqueue a new one.
type AdminService struct {
	logger        *logpkg.Logger
	prefetchQueue *prefetch.Queue
	chi.Router
}

func NewAdminService(logger *logpkg.Logger, prefetchQueue *prefetch.Queue) *AdminService {
	as := &AdminService{logger, prefetchQueue, chi.NewRouter()}

	as.Get("/", as.handleGetJobs)
	as.Post("/jobs", as.handlePostJob)

	return as
}

func (as *AdminService) handleGetJobs(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, as.prefetchQueue.GetJobs())
}

type postJobBodyType struct {
	Bounds  osm.Bounds `json:"bounds"`
	MinZoom int        `json:"minZoom"`
	MaxZoom int        `json:"maxZoom"`
}

func (as *AdminService) handlePostJob(w http.ResponseWriter, r *http.Request) {
	var body postJobBodyType
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		errorsx.HTTPError(w, as.logger, errorsx.Wrap(err), http.StatusBadRequest)
		return
	}

	addErr := as.prefetchQueue.AddJob(body.Bounds, body.MinZoom, body.MaxZoom)
	if addErr != nil {
		errorsx.HTTPError(w, as.logger, addErr, http.StatusBadRequest)
		return
	}

	render.JSON(w, r, as.prefetchQueue.GetJobs())
}
