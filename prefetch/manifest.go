package prefetch

import (
	_ "embed"
	"encoding/json"
	"runtime"
	"sync"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	parquetwriter "github.com/xitongsys/parquet-go/writer"
)

//go:embed tiles_schema.json
var tilesSchema string

// ManifestRow records the outcome of one tile fetch in a prefetch run.
type ManifestRow struct {
	MapID       string `json:"MapID"`
	Z           int32  `json:"Z"`
	X           int32  `json:"X"`
	Y           int32  `json:"Y"`
	FrameCount  int32  `json:"FrameCount"`
	OK          bool   `json:"OK"`
	Error       string `json:"Error,omitempty"`
	FetchedAtMs int64  `json:"FetchedAtMs"`
}

// ManifestWriter writes prefetch outcomes to a parquet file. Safe for
// concurrent use by the prefetch workers.
type ManifestWriter struct {
	mu     sync.Mutex
	writer *parquetwriter.JSONWriter
}

func NewManifestWriter(filePath string) (*ManifestWriter, errorsx.Error) {
	f, err := local.NewLocalFileWriter(filePath)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	writer, err := parquetwriter.NewJSONWriter(tilesSchema, f, int64(runtime.NumCPU()))
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	writer.CompressionType = parquet.CompressionCodec_SNAPPY

	return &ManifestWriter{writer: writer}, nil
}

func (mw *ManifestWriter) WriteRow(row ManifestRow) errorsx.Error {
	j, err := json.Marshal(row)
	if err != nil {
		return errorsx.Wrap(err)
	}

	mw.mu.Lock()
	defer mw.mu.Unlock()

	err = mw.writer.Write(string(j))
	if err != nil {
		return errorsx.Wrap(err)
	}

	return nil
}

func (mw *ManifestWriter) Close() errorsx.Error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	err := mw.writer.WriteStop()
	if err != nil {
		return errorsx.Wrap(err)
	}

	return nil
}
