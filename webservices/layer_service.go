package webservices

import (
	"encoding/json"
	"net/http"

	"github.com/geolayers/eelayer/layer"
	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
)

// LayerService receives property-change notifications over HTTP and drives
// the controller's resolution cycle with them.
type LayerService struct {
	logger     *logpkg.Logger
	controller *layer.Controller
	chi.Router
}

func NewLayerService(logger *logpkg.Logger, controller *layer.Controller) *LayerService {
	ls := &LayerService{logger, controller, chi.NewRouter()}

	ls.Post("/", ls.handleUpdateProps)

	return ls
}

type updateResultType struct {
	Mode  string `json:"mode"`
	MapID string `json:"mapId,omitempty"`
}

func (ls *LayerService) handleUpdateProps(w http.ResponseWriter, r *http.Request) {
	var props layer.Props
	err := json.NewDecoder(r.Body).Decode(&props)
	if err != nil {
		errorsx.HTTPError(w, ls.logger, errorsx.Wrap(err), 400)
		return
	}

	updateErr := ls.controller.UpdateProps(r.Context(), props)
	if updateErr != nil {
		errorsx.HTTPJSONError(w, ls.logger, updateErr, statusCodeForError(updateErr))
		return
	}

	result := updateResultType{Mode: "unresolved"}
	descriptor := ls.controller.Descriptor()
	if descriptor != nil {
		result.Mode = descriptor.Mode().String()
		result.MapID = descriptor.StableID()
	}

	render.JSON(w, r, result)
}
