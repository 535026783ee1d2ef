package tilegrid

import (
	"math"

	"github.com/geolayers/eelayer/eelayer"
	"github.com/paulmach/osm"
)

// Deg2num returns the slippy-map tile containing the given WGS84 coordinate.
func Deg2num(lat, lon float64, zoomLevel int) (x, y int) {
	x = int(
		math.Floor((lon + 180.0) / 360.0 * (math.Exp2(float64(zoomLevel)))),
	)
	y = int(
		math.Floor(
			(1.0 - math.Log(
				math.Tan(lat*math.Pi/180.0)+1.0/math.Cos(lat*math.Pi/180.0))/math.Pi) / 2.0 * (math.Exp2(float64(zoomLevel))),
		),
	)
	return
}

// Num2deg returns the north-west corner of a tile.
func Num2deg(x, y, zoomLevel int) (lat, lon float64) {
	n := math.Pi - 2.0*math.Pi*float64(y)/math.Exp2(float64(zoomLevel))
	lat = 180.0 / math.Pi * math.Atan(0.5*(math.Exp(n)-math.Exp(-n)))
	lon = float64(x)/math.Exp2(float64(zoomLevel))*360.0 - 180.0
	return lat, lon
}

func TileBounds(req eelayer.TileRequest) osm.Bounds {
	n := math.Pow(2, float64(req.Z))

	lonMin := float64(req.X)/n*360 - 180
	lonMax := float64(req.X+1)/n*360 - 180

	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(req.Y)/n)))
	latMax := latRad * 180 / math.Pi

	latRad = math.Atan(math.Sinh(math.Pi * (1 - 2*float64(req.Y+1)/n)))
	latMin := latRad * 180 / math.Pi

	return osm.Bounds{
		MinLat: latMin,
		MaxLat: latMax,
		MinLon: lonMin,
		MaxLon: lonMax,
	}
}

// BoundsToRing builds a closed planar linear ring from a bounding box, in
// lon/lat vertex order. Edges are straight in pixel space (non-geodesic),
// which avoids curvature artifacts at tile boundaries.
func BoundsToRing(bounds osm.Bounds) [][2]float64 {
	return [][2]float64{
		{bounds.MinLon, bounds.MinLat},
		{bounds.MaxLon, bounds.MinLat},
		{bounds.MaxLon, bounds.MaxLat},
		{bounds.MinLon, bounds.MaxLat},
		{bounds.MinLon, bounds.MinLat},
	}
}

// TilesInBounds enumerates every tile at the given zoom level overlapping
// the bounds, row by row from the north-west corner.
func TilesInBounds(bounds osm.Bounds, zoomLevel int) []eelayer.TileRequest {
	minX, minY := Deg2num(bounds.MaxLat, bounds.MinLon, zoomLevel)
	maxX, maxY := Deg2num(bounds.MinLat, bounds.MaxLon, zoomLevel)

	maxIndex := int(math.Exp2(float64(zoomLevel))) - 1
	minX = clamp(minX, 0, maxIndex)
	maxX = clamp(maxX, 0, maxIndex)
	minY = clamp(minY, 0, maxIndex)
	maxY = clamp(maxY, 0, maxIndex)

	var tiles []eelayer.TileRequest
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			tiles = append(tiles, eelayer.TileRequest{Z: zoomLevel, X: x, Y: y})
		}
	}

	return tiles
}

func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
