package tilegrid

import (
	"testing"

	"github.com/geolayers/eelayer/eelayer"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Deg2num(t *testing.T) {
	type args struct {
		lat, lon  float64
		zoomLevel int
	}
	tests := []struct {
		name  string
		args  args
		wantX int
		wantY int
	}{
		{"origin at zoom 0", args{0, 0, 0}, 0, 0},
		{"origin at zoom 1", args{0, 0, 1}, 1, 1},
		{"north west quadrant", args{51.5, -0.1, 1}, 0, 0},
		{"south east quadrant", args{-33.9, 151.2, 1}, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := Deg2num(tt.args.lat, tt.args.lon, tt.args.zoomLevel)
			assert.Equal(t, tt.wantX, x)
			assert.Equal(t, tt.wantY, y)
		})
	}
}

func Test_TileBounds_wholeWorldAtZoom0(t *testing.T) {
	bounds := TileBounds(eelayer.TileRequest{Z: 0, X: 0, Y: 0})

	assert.InDelta(t, -180, bounds.MinLon, 0.0001)
	assert.InDelta(t, 180, bounds.MaxLon, 0.0001)
	assert.InDelta(t, 85.0511, bounds.MaxLat, 0.001)
	assert.InDelta(t, -85.0511, bounds.MinLat, 0.001)
}

func Test_TileBounds_nestsWithinParent(t *testing.T) {
	parent := TileBounds(eelayer.TileRequest{Z: 3, X: 4, Y: 2})
	child := TileBounds(eelayer.TileRequest{Z: 4, X: 8, Y: 4})

	assert.GreaterOrEqual(t, child.MinLon, parent.MinLon)
	assert.LessOrEqual(t, child.MaxLon, parent.MaxLon)
	assert.GreaterOrEqual(t, child.MinLat, parent.MinLat)
	assert.LessOrEqual(t, child.MaxLat, parent.MaxLat)
}

func Test_BoundsToRing(t *testing.T) {
	ring := BoundsToRing(osm.Bounds{MinLat: -1, MaxLat: 1, MinLon: 10, MaxLon: 12})

	require.Len(t, ring, 5)
	assert.Equal(t, ring[0], ring[4])
	assert.Equal(t, [2]float64{10, -1}, ring[0])
	assert.Equal(t, [2]float64{12, -1}, ring[1])
	assert.Equal(t, [2]float64{12, 1}, ring[2])
	assert.Equal(t, [2]float64{10, 1}, ring[3])
}

func Test_TilesInBounds(t *testing.T) {
	wholeWorld := osm.Bounds{MinLat: -90, MaxLat: 90, MinLon: -180, MaxLon: 180}

	tiles := TilesInBounds(wholeWorld, 0)
	require.Len(t, tiles, 1)
	assert.Equal(t, eelayer.TileRequest{Z: 0, X: 0, Y: 0}, tiles[0])

	tiles = TilesInBounds(wholeWorld, 1)
	assert.Len(t, tiles, 4)

	// a small area should cover far fewer tiles than the whole level
	smallArea := osm.Bounds{MinLat: 51.4, MaxLat: 51.6, MinLon: -0.2, MaxLon: 0.0}
	tiles = TilesInBounds(smallArea, 10)
	assert.NotEmpty(t, tiles)
	assert.Less(t, len(tiles), 16)
	for _, tile := range tiles {
		assert.Equal(t, 10, tile.Z)
	}
}
