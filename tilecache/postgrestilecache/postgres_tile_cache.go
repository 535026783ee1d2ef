package postgrestilecache

import (
	"database/sql"

	"github.com/geolayers/eelayer/tilecache"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const postgresqlSchema = `
CREATE TABLE IF NOT EXISTS tiles (
	map_id TEXT NOT NULL,
	z INTEGER NOT NULL,
	x INTEGER NOT NULL,
	y INTEGER NOT NULL,
	data BYTEA NOT NULL,
	fetched_at TIMESTAMP WITHOUT TIME ZONE NOT NULL DEFAULT now(),
	PRIMARY KEY (map_id, z, x, y)
)`

type PostgresTileCache struct {
	db *sqlx.DB
}

func NewPostgresTileCache(connStr string) (*PostgresTileCache, errorsx.Error) {
	db, err := sqlx.Open("postgres", "postgresql://"+connStr)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	_, err = db.Exec(postgresqlSchema)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return &PostgresTileCache{db}, nil
}

func (c *PostgresTileCache) Name() string {
	return "postgresql tile cache"
}

func (c *PostgresTileCache) Get(key tilecache.TileKey) ([]byte, errorsx.Error) {
	var data []byte
	err := c.db.Get(&data,
		`SELECT data FROM tiles WHERE map_id = $1 AND z = $2 AND x = $3 AND y = $4`,
		key.MapID, key.Z, key.X, key.Y)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errorsx.Wrap(tilecache.ErrTileNotCached)
		}
		return nil, errorsx.Wrap(err, "tile key", key.String())
	}

	return data, nil
}

func (c *PostgresTileCache) Put(key tilecache.TileKey, data []byte) errorsx.Error {
	_, err := c.db.Exec(
		`INSERT INTO tiles (map_id, z, x, y, data) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (map_id, z, x, y) DO UPDATE SET data = EXCLUDED.data, fetched_at = now()`,
		key.MapID, key.Z, key.X, key.Y, data)
	if err != nil {
		return errorsx.Wrap(err, "tile key", key.String())
	}

	return nil
}
