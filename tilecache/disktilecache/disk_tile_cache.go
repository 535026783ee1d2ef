package disktilecache

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/geolayers/eelayer/tilecache"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"golang.org/x/exp/errors/fmt"
)

const tileFileSuffix = ".png"

// DiskTileCache lays tiles out as {basePath}/{mapId}/{z}/{x}/{y}.png.
type DiskTileCache struct {
	fs       gofs.Fs
	basePath string
}

func NewDiskTileCache(fs gofs.Fs, basePath string) (*DiskTileCache, errorsx.Error) {
	err := fs.MkdirAll(basePath, 0755)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return &DiskTileCache{fs, basePath}, nil
}

func (c *DiskTileCache) Name() string {
	return fmt.Sprintf("disk cache (%s)", c.basePath)
}

func (c *DiskTileCache) Get(key tilecache.TileKey) ([]byte, errorsx.Error) {
	data, err := c.fs.ReadFile(c.tileFilePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errorsx.Wrap(tilecache.ErrTileNotCached)
		}
		return nil, errorsx.Wrap(fmt.Errorf("couldn't read cached tile %s: %w", key, err))
	}

	return data, nil
}

func (c *DiskTileCache) Put(key tilecache.TileKey, data []byte) errorsx.Error {
	filePath := c.tileFilePath(key)

	err := c.fs.MkdirAll(filepath.Dir(filePath), 0755)
	if err != nil {
		return errorsx.Wrap(err)
	}

	err = c.fs.WriteFile(filePath, data, 0644)
	if err != nil {
		return errorsx.Wrap(fmt.Errorf("couldn't write cached tile %s: %w", key, err))
	}

	return nil
}

func (c *DiskTileCache) tileFilePath(key tilecache.TileKey) string {
	return filepath.Join(
		c.basePath,
		key.MapID,
		strconv.Itoa(key.Z),
		strconv.Itoa(key.X),
		strconv.Itoa(key.Y)+tileFileSuffix,
	)
}
