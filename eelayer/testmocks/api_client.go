package testmocks

import (
	"context"

	"github.com/geolayers/eelayer/eeclient"
	"github.com/geolayers/eelayer/eelayer"
	"github.com/jamesrr39/goutil/errorsx"
)

type MockAPIClient struct {
	InitializeSessionFunc       func(ctx context.Context, token string) errorsx.Error
	GetMapDescriptorFunc        func(ctx context.Context, handle *eelayer.ObjectHandle, visParams eelayer.VisParams) (*eeclient.MapDescriptor, errorsx.Error)
	GetAnimatedThumbnailURLFunc func(ctx context.Context, handle *eelayer.ObjectHandle, params eeclient.ThumbnailParams) (string, errorsx.Error)
}

func (c *MockAPIClient) InitializeSession(ctx context.Context, token string) errorsx.Error {
	return c.InitializeSessionFunc(ctx, token)
}

func (c *MockAPIClient) GetMapDescriptor(ctx context.Context, handle *eelayer.ObjectHandle, visParams eelayer.VisParams) (*eeclient.MapDescriptor, errorsx.Error) {
	return c.GetMapDescriptorFunc(ctx, handle, visParams)
}

func (c *MockAPIClient) GetAnimatedThumbnailURL(ctx context.Context, handle *eelayer.ObjectHandle, params eeclient.ThumbnailParams) (string, errorsx.Error) {
	return c.GetAnimatedThumbnailURLFunc(ctx, handle, params)
}
