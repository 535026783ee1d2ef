package tilefetch

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io/ioutil"
	"net/http"
	"testing"

	"github.com/geolayers/eelayer/eeclient"
	"github.com/geolayers/eelayer/eelayer"
	"github.com/geolayers/eelayer/eelayer/testmocks"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFilmstrip stacks frameCount frames vertically, each filled with a
// distinct gray level so slicing order can be asserted.
func buildFilmstrip(frameCount, frameSize int) image.Image {
	filmstrip := image.NewRGBA(image.Rect(0, 0, frameSize, frameCount*frameSize))
	for i := 0; i < frameCount; i++ {
		gray := uint8(i * 50)
		for y := i * frameSize; y < (i+1)*frameSize; y++ {
			for x := 0; x < frameSize; x++ {
				filmstrip.Set(x, y, color.RGBA{R: gray, G: gray, B: gray, A: 255})
			}
		}
	}
	return filmstrip
}

func Test_SliceFilmstrip(t *testing.T) {
	frames, err := SliceFilmstrip(buildFilmstrip(3, eelayer.TileSize), eelayer.TileSize)
	require.NoError(t, err)
	require.Len(t, frames, 3)

	for i, frame := range frames {
		assert.Equal(t, eelayer.TileSize, frame.Bounds().Dx())
		assert.Equal(t, eelayer.TileSize, frame.Bounds().Dy())

		wantGray := uint8(i * 50)
		r, _, _, _ := frame.At(10, 10).RGBA()
		assert.Equal(t, uint32(wantGray)*0x101, r, "frame %d", i)
	}
}

func Test_SliceFilmstrip_malformedHeight(t *testing.T) {
	filmstrip := image.NewRGBA(image.Rect(0, 0, eelayer.TileSize, eelayer.TileSize+100))

	frames, err := SliceFilmstrip(filmstrip, eelayer.TileSize)
	require.Error(t, err)
	assert.Nil(t, frames)
	assert.True(t, eelayer.IsKind(err, eelayer.ErrTileDecode))
}

func Test_FetchFilmstrip(t *testing.T) {
	filmstripData := bytes.NewBuffer(nil)
	require.NoError(t, png.Encode(filmstripData, buildFilmstrip(4, eelayer.TileSize)))

	var receivedParams eeclient.ThumbnailParams
	client := &testmocks.MockAPIClient{
		GetAnimatedThumbnailURLFunc: func(ctx context.Context, handle *eelayer.ObjectHandle, params eeclient.ThumbnailParams) (string, errorsx.Error) {
			receivedParams = params
			return "https://thumbs.example.com/abc", nil
		},
	}

	doer := &httpextra.MockDoer{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "https://thumbs.example.com/abc", req.URL.String())
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       ioutil.NopCloser(bytes.NewReader(filmstripData.Bytes())),
			}, nil
		},
	}

	fetcher := NewFetcher(newTestLogger(), doer, nil, DefaultMaxConcurrentFetches)
	handle := &eelayer.ObjectHandle{Kind: eelayer.ObjectKindImageCollection, Ref: `[{"op":"load"}]`, SupportsMapEval: true, SupportsAnimatedThumbnail: true}
	bounds := osm.Bounds{MinLat: -1, MaxLat: 1, MinLon: 10, MaxLon: 12}

	frames, err := fetcher.FetchFilmstrip(context.Background(), client, handle, eelayer.VisParams{"bands": "B4"}, bounds)
	require.NoError(t, err)
	assert.Len(t, frames, 4)

	assert.Equal(t, [2]int{eelayer.TileSize, eelayer.TileSize}, receivedParams.Dimensions)
	assert.Equal(t, "EPSG:3857", receivedParams.CRS)
	require.Len(t, receivedParams.Region, 5)
	assert.Equal(t, receivedParams.Region[0], receivedParams.Region[4])
}
