package prefetch

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/geolayers/eelayer/eeclient"
	"github.com/geolayers/eelayer/eelayer/testmocks"
	"github.com/geolayers/eelayer/layer"
	"github.com/geolayers/eelayer/tilefetch"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPrefetcher() *Prefetcher {
	logger := logpkg.NewLogger(os.Stderr, logpkg.LogLevelError)
	client := &testmocks.MockAPIClient{
		InitializeSessionFunc: func(ctx context.Context, token string) errorsx.Error {
			return nil
		},
	}
	session := eeclient.NewSessionContext(client)
	fetcher := tilefetch.NewFetcher(logger, nil, nil, tilefetch.DefaultMaxConcurrentFetches)
	controller := layer.NewController(logger, session, client, fetcher)

	return NewPrefetcher(logger, controller, 2)
}

func Test_Queue_AddJob_validatesZoomRange(t *testing.T) {
	queue := NewQueue(newTestPrefetcher())

	err := queue.AddJob(osm.Bounds{}, 5, 2)
	require.Error(t, err)

	err = queue.AddJob(osm.Bounds{}, -1, 2)
	require.Error(t, err)

	assert.Empty(t, queue.GetJobs())
}

func Test_Queue_runsJobInBackground(t *testing.T) {
	// the layer has no resolved descriptor, so the job must run and fail
	queue := NewQueue(newTestPrefetcher())

	bounds := osm.Bounds{MinLat: -1, MaxLat: 1, MinLon: -1, MaxLon: 1}
	require.NoError(t, queue.AddJob(bounds, 0, 1))

	require.Eventually(t, func() bool {
		jobs := queue.GetJobs()
		return len(jobs) == 1 && jobs[0].Status == JobStatusFailed
	}, time.Second*5, time.Millisecond*10)

	job := queue.GetJobs()[0]
	assert.NotEmpty(t, job.ErrorMessage)
	assert.Nil(t, job.Result)
}

func Test_PrefetchBounds_requiresResolvedDescriptor(t *testing.T) {
	prefetcher := newTestPrefetcher()

	result, err := prefetcher.PrefetchBounds(context.Background(), osm.Bounds{}, 0, 0, nil)
	require.Error(t, err)
	assert.Nil(t, result)
}
