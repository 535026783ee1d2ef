package prefetch

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/geolayers/eelayer/layer"
	"github.com/geolayers/eelayer/tilegrid"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/semaphore"
	"github.com/paulmach/osm"
)

const DefaultPrefetchWorkers = 8

// Prefetcher walks every tile of a bounds/zoom-range through the layer
// pipeline, warming the tile cache and recording outcomes. One tile's
// failure never aborts the others.
type Prefetcher struct {
	logger     *logpkg.Logger
	controller *layer.Controller
	sema       *semaphore.Semaphore
}

func NewPrefetcher(logger *logpkg.Logger, controller *layer.Controller, maxWorkers uint) *Prefetcher {
	return &Prefetcher{logger, controller, semaphore.NewSemaphore(maxWorkers)}
}

type Result struct {
	TilesRequested int64
	TilesFetched   int64
	TilesFailed    int64
}

func (p *Prefetcher) PrefetchBounds(ctx context.Context, bounds osm.Bounds, minZoom, maxZoom int, manifest *ManifestWriter) (*Result, errorsx.Error) {
	descriptor := p.controller.Descriptor()
	if descriptor == nil {
		return nil, errorsx.Errorf("layer has no resolved descriptor; update props before prefetching")
	}
	mapID := descriptor.StableID()

	result := new(Result)

	for zoomLevel := minZoom; zoomLevel <= maxZoom; zoomLevel++ {
		tiles := tilegrid.TilesInBounds(bounds, zoomLevel)
		p.logger.Info("prefetching %d tiles at zoom level %d", len(tiles), zoomLevel)

		for _, tile := range tiles {
			tile := tile
			atomic.AddInt64(&result.TilesRequested, 1)

			p.sema.Add()
			go func() {
				defer p.sema.Done()

				row := ManifestRow{
					MapID:       mapID,
					Z:           int32(tile.Z),
					X:           int32(tile.X),
					Y:           int32(tile.Y),
					FetchedAtMs: time.Now().UnixMilli(),
				}

				frames, err := p.controller.GetTileData(ctx, tile)
				switch {
				case err != nil:
					atomic.AddInt64(&result.TilesFailed, 1)
					row.Error = err.Error()
					p.logger.Warn("prefetch of %d/%d/%d failed: %s", tile.Z, tile.X, tile.Y, err)
				case frames == nil:
					atomic.AddInt64(&result.TilesFailed, 1)
					row.Error = "no data"
				default:
					atomic.AddInt64(&result.TilesFetched, 1)
					row.OK = true
					row.FrameCount = int32(len(frames))
				}

				if manifest != nil {
					writeErr := manifest.WriteRow(row)
					if writeErr != nil {
						p.logger.Error("couldn't write manifest row for %d/%d/%d: %s", tile.Z, tile.X, tile.Y, writeErr)
					}
				}
			}()
		}
	}

	p.sema.Wait()

	return result, nil
}
