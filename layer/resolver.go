package layer

import (
	"context"
	"sync"

	"github.com/geolayers/eelayer/eeclient"
	"github.com/geolayers/eelayer/eelayer"
	"github.com/jamesrr39/goutil/errorsx"
)

// DescriptorResolver performs the map-evaluation round trip and remembers
// the inputs of the last successful resolution so unchanged inputs skip
// the network entirely.
type DescriptorResolver struct {
	client eeclient.APIClient

	mu            sync.Mutex
	lastHandle    *eelayer.ObjectHandle
	lastVisParams eelayer.VisParams
	lastAnimate   bool
	descriptor    eelayer.RenderDescriptor
}

func NewDescriptorResolver(client eeclient.APIClient) *DescriptorResolver {
	return &DescriptorResolver{client: client}
}

// Resolve returns the previous descriptor unchanged when the handle
// identity, vis params (by deep equality) and mode are all unchanged and
// no data-changed flag is set. Capability checks run before any network
// call. Both modes perform the map-evaluation round trip: the filmstrip
// descriptor still needs the stable map id.
func (r *DescriptorResolver) Resolve(ctx context.Context, handle *eelayer.ObjectHandle, visParams eelayer.VisParams, animate, dataChanged bool) (eelayer.RenderDescriptor, errorsx.Error) {
	r.mu.Lock()
	unchanged := r.descriptor != nil &&
		!dataChanged &&
		handle == r.lastHandle &&
		visParams.Equal(r.lastVisParams) &&
		animate == r.lastAnimate
	previous := r.descriptor
	r.mu.Unlock()

	if unchanged {
		return previous, nil
	}

	if handle == nil {
		r.commit(nil, nil, nil, animate)
		return nil, nil
	}

	if !handle.SupportsMapEval {
		return nil, eelayer.Errorf(eelayer.ErrMissingCapability,
			"%s object must support map evaluation", handle.Kind)
	}
	if animate && !handle.SupportsAnimatedThumbnail {
		return nil, eelayer.Errorf(eelayer.ErrMissingCapability,
			"%s object must support animated thumbnail retrieval", handle.Kind)
	}

	mapDescriptor, err := r.client.GetMapDescriptor(ctx, handle, visParams)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	var descriptor eelayer.RenderDescriptor
	if animate {
		descriptor = &eelayer.FilmstripDescriptor{MapID: mapDescriptor.MapID}
	} else {
		descriptor = &eelayer.TiledDescriptor{MapID: mapDescriptor.MapID, URLTemplate: mapDescriptor.URLTemplate}
	}

	r.commit(descriptor, handle, visParams, animate)

	return descriptor, nil
}

func (r *DescriptorResolver) commit(descriptor eelayer.RenderDescriptor, handle *eelayer.ObjectHandle, visParams eelayer.VisParams, animate bool) {
	r.mu.Lock()
	r.descriptor = descriptor
	r.lastHandle = handle
	r.lastVisParams = visParams.Clone()
	r.lastAnimate = animate
	r.mu.Unlock()
}
