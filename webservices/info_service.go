package webservices

import (
	"net/http"

	"github.com/geolayers/eelayer/layer"
	"github.com/geolayers/eelayer/tilecache"
	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/goutil/logpkg"
)

func NewInfoService(logger *logpkg.Logger, controller *layer.Controller, cache tilecache.TileCache) *InfoService {
	ws := &InfoService{logger, controller, cache, chi.NewRouter()}
	ws.Get("/", ws.handleGet)

	return ws
}

type InfoService struct {
	logger     *logpkg.Logger
	controller *layer.Controller
	cache      tilecache.TileCache // may be nil
	chi.Router
}

type layerInfoType struct {
	Mode               string  `json:"mode"`
	MapID              string  `json:"mapId,omitempty"`
	FrameCount         int     `json:"frameCount"`
	ActiveFrame        int     `json:"activeFrame"`
	AnimationSpeed     float64 `json:"animationSpeed"`
	RefinementStrategy string  `json:"refinementStrategy"`
	CacheName          string  `json:"cacheName,omitempty"`
}

func (ws *InfoService) handleGet(w http.ResponseWriter, r *http.Request) {
	info := layerInfoType{
		Mode: "unresolved",
	}

	descriptor := ws.controller.Descriptor()
	if descriptor != nil {
		info.Mode = descriptor.Mode().String()
		info.MapID = descriptor.StableID()
	}

	anim := ws.controller.AnimationState()
	info.FrameCount = anim.FrameCount
	info.ActiveFrame = anim.ActiveFrame

	props := ws.controller.Props()
	info.AnimationSpeed = props.AnimationSpeed
	info.RefinementStrategy = props.RefinementStrategy

	if ws.cache != nil {
		info.CacheName = ws.cache.Name()
	}

	render.JSON(w, r, info)
}
