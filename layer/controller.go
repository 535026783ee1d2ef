package layer

import (
	"context"
	"image"
	"reflect"
	"sync"
	"time"

	"github.com/geolayers/eelayer/eeclient"
	"github.com/geolayers/eelayer/eelayer"
	"github.com/geolayers/eelayer/tilefetch"
	"github.com/geolayers/eelayer/tilegrid"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
)

// Props is the recognized configuration surface of one layer. Fields
// beyond the core five are passed through to the rendering side unexamined.
type Props struct {
	Token string `json:"token"`
	// Object is a serialized object reference (string) or an
	// *eelayer.ObjectHandle.
	Object             interface{}       `json:"eeObject"`
	VisParams          eelayer.VisParams `json:"visParams,omitempty"`
	Animate            bool              `json:"animate"`
	AnimationSpeed     float64           `json:"animationSpeed,omitempty"`
	RefinementStrategy string            `json:"refinementStrategy,omitempty"`
	MinZoom            int               `json:"minZoom,omitempty"`
	MaxZoom            int               `json:"maxZoom,omitempty"`
}

func (p Props) withDefaults() Props {
	if p.AnimationSpeed <= 0 {
		p.AnimationSpeed = eelayer.DefaultAnimationSpeed
	}
	if p.RefinementStrategy == "" {
		p.RefinementStrategy = eelayer.DefaultRefinementStrategy
	}
	return p
}

// Controller sequences session initialization, object normalization and
// descriptor resolution on every prop change, and serves per-tile fetches
// against whatever descriptor is current at call time. A stale cycle's
// results are discarded when a newer cycle has started (generation guard).
type Controller struct {
	logger   *logpkg.Logger
	session  *eeclient.SessionContext
	client   eeclient.APIClient
	fetcher  *tilefetch.Fetcher
	resolver *DescriptorResolver

	mu         sync.Mutex
	generation uint64
	props      Props
	hasProps   bool
	handle     *eelayer.ObjectHandle
	descriptor eelayer.RenderDescriptor
	anim       eelayer.AnimationState
}

func NewController(logger *logpkg.Logger, session *eeclient.SessionContext, client eeclient.APIClient, fetcher *tilefetch.Fetcher) *Controller {
	return &Controller{
		logger:   logger,
		session:  session,
		client:   client,
		fetcher:  fetcher,
		resolver: NewDescriptorResolver(client),
	}
}

// UpdateProps runs one property-change cycle: session-init, then object
// normalization, then descriptor resolution, each step awaited before the
// next. Results commit only if no newer cycle started in the meantime.
func (c *Controller) UpdateProps(ctx context.Context, newProps Props) errorsx.Error {
	newProps = newProps.withDefaults()

	c.mu.Lock()
	c.generation++
	generation := c.generation
	oldProps := c.props
	hadProps := c.hasProps
	previousHandle := c.handle
	c.props = newProps
	c.hasProps = true
	c.mu.Unlock()

	err := c.session.Initialize(ctx, newProps.Token)
	if err != nil {
		return errorsx.Wrap(err)
	}

	dataChanged := !hadProps || !reflect.DeepEqual(oldProps.Object, newProps.Object)
	animateChanged := !hadProps || oldProps.Animate != newProps.Animate

	handle := previousHandle
	if dataChanged || animateChanged {
		handle, err = eelayer.NormalizeObject(newProps.Object, newProps.Animate)
		if err != nil {
			return errorsx.Wrap(err)
		}
	}

	descriptor, err := c.resolver.Resolve(ctx, handle, newProps.VisParams, newProps.Animate, dataChanged)
	if err != nil {
		return errorsx.Wrap(err)
	}

	c.mu.Lock()
	if c.generation == generation {
		c.handle = handle
		c.descriptor = descriptor
		if descriptor == nil || descriptor.Mode() != eelayer.DescriptorModeFilmstrip {
			c.anim = eelayer.AnimationState{}
		}
	} else {
		c.logger.Debug("discarding superseded resolution (generation %d, current %d)", generation, c.generation)
	}
	c.mu.Unlock()

	c.Tick(time.Now())

	return nil
}

// GetTileData produces the decoded frame sequence for one tile, using
// whatever descriptor is current at call time. A nil result with nil error
// means "no data yet", distinguishing not-ready from failed.
func (c *Controller) GetTileData(ctx context.Context, req eelayer.TileRequest) ([]image.Image, errorsx.Error) {
	c.mu.Lock()
	descriptor := c.descriptor
	handle := c.handle
	visParams := c.props.VisParams
	generation := c.generation
	c.mu.Unlock()

	switch d := descriptor.(type) {
	case nil:
		return nil, nil
	case *eelayer.TiledDescriptor:
		return c.fetcher.FetchTile(ctx, d, req)
	case *eelayer.FilmstripDescriptor:
		frames, err := c.fetcher.FetchFilmstrip(ctx, c.client, handle, visParams, tilegrid.TileBounds(req))
		if err != nil {
			return nil, errorsx.Wrap(err)
		}

		c.mu.Lock()
		if c.generation == generation {
			c.anim.FrameCount = len(frames)
		}
		c.mu.Unlock()

		return frames, nil
	default:
		return nil, errorsx.Errorf("unknown render descriptor mode %q", descriptor.Mode())
	}
}

// Tick recomputes the active frame from wall-clock time. No-op while no
// frame count is known.
func (c *Controller) Tick(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.anim.FrameCount > 0 {
		c.anim.ActiveFrame = eelayer.ActiveFrameAt(now, c.anim.FrameCount, c.props.AnimationSpeed)
	}

	return c.anim.ActiveFrame
}

func (c *Controller) ActiveFrame() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.anim.ActiveFrame
}

func (c *Controller) AnimationState() eelayer.AnimationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.anim
}

func (c *Controller) Descriptor() eelayer.RenderDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.descriptor
}

func (c *Controller) Props() Props {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.props
}
