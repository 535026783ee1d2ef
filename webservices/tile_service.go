package webservices

import (
	"image"
	"image/png"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/geolayers/eelayer/eelayer"
	"github.com/geolayers/eelayer/layer"
	"github.com/geolayers/eelayer/tilerenderer"
	"github.com/go-chi/chi"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/semaphore"
	"github.com/pkg/profile"
)

type TileService struct {
	logger        *logpkg.Logger
	controller    *layer.Controller
	placeholder   *tilerenderer.PlaceholderRenderer
	sema          *semaphore.Semaphore
	shouldProfile bool
	chi.Router
}

func NewTileService(logger *logpkg.Logger, controller *layer.Controller, placeholder *tilerenderer.PlaceholderRenderer, shouldProfile bool) *TileService {
	ts := &TileService{logger, controller, placeholder, semaphore.NewSemaphore(4), shouldProfile, chi.NewRouter()}

	ts.Get("/{z}/{x}/{y}", ts.handleGetTile)

	return ts
}

func (ts *TileService) handleGetTile(w http.ResponseWriter, r *http.Request) {
	if ts.shouldProfile {
		defer profile.Start().Stop()
	}

	ints, err := stringsToInts(chi.URLParam(r, "x"), chi.URLParam(r, "y"), chi.URLParam(r, "z"))
	if err != nil {
		errorsx.HTTPError(w, ts.logger, errorsx.Wrap(err), 400)
		return
	}

	req := eelayer.TileRequest{X: ints[0], Y: ints[1], Z: ints[2]}

	ts.sema.Add()
	defer ts.sema.Done()

	frames, fetchErr := ts.controller.GetTileData(r.Context(), req)
	if fetchErr != nil {
		// one tile's failure only fails this request; sibling fetches carry on
		errorsx.HTTPError(w, ts.logger, fetchErr, statusCodeForError(fetchErr))
		return
	}

	var img image.Image
	if len(frames) == 0 {
		// not ready yet is not an error
		placeholderImg, placeholderErr := ts.placeholder.RenderTextTile(image.Rect(0, 0, eelayer.TileSize, eelayer.TileSize), "(no imagery yet)")
		if placeholderErr != nil {
			errorsx.HTTPError(w, ts.logger, placeholderErr, 500)
			return
		}
		img = placeholderImg
	} else {
		frameIdx := ts.controller.Tick(time.Now())
		if frameIdx >= len(frames) {
			frameIdx = len(frames) - 1
		}
		img = frames[frameIdx]
	}

	err = png.Encode(w, img)
	if err != nil {
		switch err.(type) {
		case *net.OpError:
			// broken pipe (request cancelled). Do nothing
		default:
			errorsx.HTTPError(w, ts.logger, errorsx.Wrap(err), 500)
		}
		return
	}
}

func statusCodeForError(err errorsx.Error) int {
	switch {
	case eelayer.IsKind(err, eelayer.ErrMissingCapability), eelayer.IsKind(err, eelayer.ErrMalformedObjectRef):
		return http.StatusBadRequest
	case eelayer.IsKind(err, eelayer.ErrAuthRejected):
		return http.StatusUnauthorized
	case eelayer.IsKind(err, eelayer.ErrTileFetch), eelayer.IsKind(err, eelayer.ErrRemoteService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func stringsToInts(s ...string) ([]int, error) {
	var ints []int
	for _, str := range s {
		i, err := strconv.Atoi(str)
		if err != nil {
			return nil, err
		}
		ints = append(ints, i)
	}

	return ints, nil
}
