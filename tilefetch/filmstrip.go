package tilefetch

import (
	"context"
	"image"
	"image/draw"

	"github.com/geolayers/eelayer/eeclient"
	"github.com/geolayers/eelayer/eelayer"
	"github.com/geolayers/eelayer/tilegrid"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/paulmach/osm"
)

const filmstripCRS = "EPSG:3857"

// FetchFilmstrip fetches the animated thumbnail covering one tile's bounds
// and slices it into its stacked frames. The thumbnail is requested as a
// square of the tile size, reprojected into EPSG:3857, over a planar
// region built from the bounds. The full frame sequence is decoded before
// returning; there are no partial results.
func (f *Fetcher) FetchFilmstrip(ctx context.Context, client eeclient.APIClient, handle *eelayer.ObjectHandle, visParams eelayer.VisParams, bounds osm.Bounds) ([]image.Image, errorsx.Error) {
	params := eeclient.ThumbnailParams{
		VisParams:  visParams,
		Dimensions: [2]int{eelayer.TileSize, eelayer.TileSize},
		Region:     tilegrid.BoundsToRing(bounds),
		CRS:        filmstripCRS,
	}

	thumbnailURL, err := client.GetAnimatedThumbnailURL(ctx, handle, params)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	data, err := f.fetchBytes(ctx, thumbnailURL)
	if err != nil {
		return nil, err
	}

	filmstrip, err := decodeImage(data)
	if err != nil {
		return nil, err
	}

	return SliceFilmstrip(filmstrip, eelayer.TileSize)
}

// SliceFilmstrip splits a vertically stacked composite image into
// independent tileSize×tileSize frames, index 0 at the top (time order).
func SliceFilmstrip(filmstrip image.Image, tileSize int) ([]image.Image, errorsx.Error) {
	bounds := filmstrip.Bounds()

	if bounds.Dy()%tileSize != 0 {
		return nil, eelayer.Errorf(eelayer.ErrTileDecode,
			"malformed filmstrip thumbnail: height %d is not a multiple of the frame height %d", bounds.Dy(), tileSize)
	}

	frameCount := bounds.Dy() / tileSize

	frames := make([]image.Image, frameCount)
	for i := 0; i < frameCount; i++ {
		frame := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), tileSize))
		windowOrigin := image.Point{
			X: bounds.Min.X,
			Y: bounds.Min.Y + i*tileSize,
		}
		draw.Draw(frame, frame.Bounds(), filmstrip, windowOrigin, draw.Src)
		frames[i] = frame
	}

	return frames, nil
}
