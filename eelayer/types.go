package eelayer

import (
	"reflect"
)

type ObjectKind int

const (
	ObjectKindUnknown           ObjectKind = 0
	ObjectKindImage             ObjectKind = 1
	ObjectKindImageCollection   ObjectKind = 2
	ObjectKindFeatureCollection ObjectKind = 3
	ObjectKindGeometry          ObjectKind = 4
)

var objectKindNames = []string{
	"Unknown",
	"Image",
	"ImageCollection",
	"FeatureCollection",
	"Geometry",
}

func (k ObjectKind) String() string {
	if k < 0 || int(k) >= len(objectKindNames) {
		return "Unknown"
	}
	return objectKindNames[k]
}

// ObjectHandle is a canonical reference to a server-side evaluable object.
// It is replaced wholesale on input change, never mutated in place.
type ObjectHandle struct {
	Kind ObjectKind
	// Ref is the serialized expression reference sent to the compute service.
	Ref string

	SupportsMapEval           bool
	SupportsAnimatedThumbnail bool
}

// VisParams is opaque visualization configuration, passed through to the
// compute service unmodified and compared by deep structural equality.
type VisParams map[string]interface{}

func (vp VisParams) Equal(other VisParams) bool {
	if len(vp) == 0 && len(other) == 0 {
		return true
	}
	return reflect.DeepEqual(vp, other)
}

func (vp VisParams) Clone() VisParams {
	if vp == nil {
		return nil
	}
	clone := make(VisParams, len(vp))
	for k, v := range vp {
		clone[k] = v
	}
	return clone
}

type DescriptorMode int

const (
	DescriptorModeTiled     DescriptorMode = 1
	DescriptorModeFilmstrip DescriptorMode = 2
)

var descriptorModeNames = []string{
	"",
	"Tiled",
	"Filmstrip",
}

func (m DescriptorMode) String() string {
	return descriptorModeNames[m]
}

// RenderDescriptor is the resolved addressing information for one mode.
// Immutable once produced; replaced wholesale when inputs invalidate it.
type RenderDescriptor interface {
	Mode() DescriptorMode
	// StableID is the map id returned by the evaluation round trip.
	StableID() string
}

type TiledDescriptor struct {
	MapID       string
	URLTemplate string
}

func (d *TiledDescriptor) Mode() DescriptorMode {
	return DescriptorModeTiled
}

func (d *TiledDescriptor) StableID() string {
	return d.MapID
}

// FilmstripDescriptor addresses animated rendering: the thumbnail URL is
// requested per tile region at fetch time, so only the stable id is held.
type FilmstripDescriptor struct {
	MapID string
}

func (d *FilmstripDescriptor) Mode() DescriptorMode {
	return DescriptorModeFilmstrip
}

func (d *FilmstripDescriptor) StableID() string {
	return d.MapID
}

type AnimationState struct {
	FrameCount  int
	ActiveFrame int
}

// TileRequest is an ephemeral per-tile coordinate from the rendering side.
type TileRequest struct {
	Z int
	X int
	Y int
}

const (
	// TileSize is the square pixel size of one tile and of one filmstrip frame.
	TileSize = 256

	DefaultAnimationSpeed     = 12 // frames per second
	DefaultRefinementStrategy = "no-overlap"
)
