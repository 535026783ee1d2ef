package tilecache

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
)

var (
	ErrTileNotCached = errors.New("tile not cached")
)

// TileKey addresses one cached tile image within a resolved map.
type TileKey struct {
	MapID string
	Z     int
	X     int
	Y     int
}

func (k TileKey) String() string {
	return fmt.Sprintf("%s/%d/%d/%d", k.MapID, k.Z, k.X, k.Y)
}

// TileCache stores encoded tile images. Implementations must return
// ErrTileNotCached (as the error cause) from Get for absent tiles.
type TileCache interface {
	Name() string
	Get(key TileKey) ([]byte, errorsx.Error)
	Put(key TileKey, data []byte) errorsx.Error
}

type CacheType string

const (
	CacheTypeDisk       CacheType = "disk"
	CacheTypePostgresql CacheType = "postgresql"
)

type CacheConnectionURL struct {
	Type           CacheType
	ConnectionPath string
}

const ConnectionPathSeparator = "://"

func ParseCacheConnString(str string) (CacheConnectionURL, errorsx.Error) {
	idx := strings.Index(str, ConnectionPathSeparator)
	if idx < 0 {
		return CacheConnectionURL{}, errorsx.Errorf("couldn't find connection path separator %q in cache connection string", ConnectionPathSeparator)
	}

	return CacheConnectionURL{
		Type:           CacheType(str[:idx]),
		ConnectionPath: str[idx+len(ConnectionPathSeparator):],
	}, nil
}
