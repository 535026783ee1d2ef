package eeclient

import (
	"context"

	"github.com/geolayers/eelayer/eelayer"
	"github.com/jamesrr39/goutil/errorsx"
)

// MapDescriptor is the result of one map-evaluation round trip.
type MapDescriptor struct {
	MapID       string `json:"mapid"`
	URLTemplate string `json:"urlTemplate"`
}

// ThumbnailParams carries the computed fields for an animated thumbnail
// request. VisParams are merged into the request body first; Dimensions,
// Region and CRS are applied afterwards so they always win.
type ThumbnailParams struct {
	VisParams  eelayer.VisParams
	Dimensions [2]int
	// Region is a planar (non-geodesic) linear ring of lon/lat vertices.
	Region [][2]float64
	CRS    string
}

// APIClient is the remote compute service, reduced to the three calls the
// layer pipeline needs.
type APIClient interface {
	InitializeSession(ctx context.Context, token string) errorsx.Error
	GetMapDescriptor(ctx context.Context, handle *eelayer.ObjectHandle, visParams eelayer.VisParams) (*MapDescriptor, errorsx.Error)
	GetAnimatedThumbnailURL(ctx context.Context, handle *eelayer.ObjectHandle, params ThumbnailParams) (string, errorsx.Error)
}
