package tilefetch

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"

	"github.com/geolayers/eelayer/eelayer"
	"github.com/geolayers/eelayer/tilecache"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/semaphore"
)

const DefaultMaxConcurrentFetches = 4

// Fetcher turns a resolved descriptor plus a tile coordinate into decoded
// imagery. Fetches for different tiles run independently; the semaphore
// bounds how many are on the network at once.
type Fetcher struct {
	logger *logpkg.Logger
	doer   httpextra.Doer
	sema   *semaphore.Semaphore
	cache  tilecache.TileCache // may be nil
}

func NewFetcher(logger *logpkg.Logger, doer httpextra.Doer, cache tilecache.TileCache, maxConcurrentFetches uint) *Fetcher {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Fetcher{logger, doer, semaphore.NewSemaphore(maxConcurrentFetches), cache}
}

// SubstituteTileURL replaces the literal {x}, {y} and {z} tokens with tile
// coordinates. Only the first occurrence of each token is replaced.
func SubstituteTileURL(urlTemplate string, req eelayer.TileRequest) string {
	substituted := strings.Replace(urlTemplate, "{x}", strconv.Itoa(req.X), 1)
	substituted = strings.Replace(substituted, "{y}", strconv.Itoa(req.Y), 1)
	substituted = strings.Replace(substituted, "{z}", strconv.Itoa(req.Z), 1)
	return substituted
}

// FetchTile fetches and decodes one tile in tiled mode. Returns a
// single-element frame sequence, or nil when the descriptor has no URL
// template yet (not ready is not an error).
func (f *Fetcher) FetchTile(ctx context.Context, descriptor *eelayer.TiledDescriptor, req eelayer.TileRequest) ([]image.Image, errorsx.Error) {
	if descriptor == nil || descriptor.URLTemplate == "" {
		return nil, nil
	}

	cacheKey := tilecache.TileKey{MapID: descriptor.MapID, Z: req.Z, X: req.X, Y: req.Y}
	if f.cache != nil {
		data, err := f.cache.Get(cacheKey)
		if err == nil {
			img, decodeErr := decodeImage(data)
			if decodeErr == nil {
				return []image.Image{img}, nil
			}
			// fall through and refetch; a corrupt cache entry shouldn't kill the tile
			f.logger.Warn("discarding undecodable cached tile %s: %s", cacheKey, decodeErr)
		} else if !eelayer.IsKind(err, tilecache.ErrTileNotCached) {
			f.logger.Warn("tile cache read failed for %s: %s", cacheKey, err)
		}
	}

	tileURL := SubstituteTileURL(descriptor.URLTemplate, req)

	data, err := f.fetchBytes(ctx, tileURL)
	if err != nil {
		return nil, err
	}

	img, err := decodeImage(data)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		putErr := f.cache.Put(cacheKey, data)
		if putErr != nil {
			f.logger.Warn("tile cache write failed for %s: %s", cacheKey, putErr)
		}
	}

	return []image.Image{img}, nil
}

func (f *Fetcher) fetchBytes(ctx context.Context, url string) ([]byte, errorsx.Error) {
	f.sema.Add()
	defer f.sema.Done()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	resp, err := f.doer.Do(req)
	if err != nil {
		return nil, eelayer.Errorf(eelayer.ErrTileFetch, "GET %q failed", url)
	}
	defer resp.Body.Close()

	statusErr := httpextra.CheckResponseCode(http.StatusOK, resp.StatusCode)
	if statusErr != nil {
		return nil, eelayer.Errorf(eelayer.ErrTileFetch, "GET %q: %s", url, statusErr)
	}

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, eelayer.Errorf(eelayer.ErrTileFetch, "couldn't read response body of %q", url)
	}

	return data, nil
}

func decodeImage(data []byte) (image.Image, errorsx.Error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, eelayer.Errorf(eelayer.ErrTileDecode, "couldn't decode image (%d bytes)", len(data))
	}

	return img, nil
}
