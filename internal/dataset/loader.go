package dataset

import (
	"context"
	"fmt"
	"path"

	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/storage/archive"
)

// Loader reads and writes candle datasets through archive storage. The
// format follows the key extension: ".csv" or ".json".
type Loader struct {
	storage archive.Storage
}

// NewLoader creates a dataset loader.
func NewLoader(storage archive.Storage) *Loader {
	return &Loader{storage: storage}
}

// Save encodes candles by the key's extension and writes them.
func (l *Loader) Save(ctx context.Context, key string, candles []core.Candle) error {
	data, err := encodeFor(key, candles)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	if err := l.storage.Write(ctx, key, data); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}

// Load reads and decodes candles from the key.
func (l *Loader) Load(ctx context.Context, key string) ([]core.Candle, error) {
	data, err := l.storage.Read(ctx, key)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	candles, err := decodeFor(key, data)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	return candles, nil
}

// ListKeys lists stored dataset keys under the prefix.
func (l *Loader) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := l.storage.List(ctx, prefix)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	return keys, nil
}

func encodeFor(key string, candles []core.Candle) ([]byte, error) {
	switch path.Ext(key) {
	case ".csv":
		return EncodeCSV(candles)
	case ".json":
		return EncodeJSON(candles)
	default:
		return nil, fmt.Errorf("unsupported dataset format: %s", key)
	}
}

func decodeFor(key string, data []byte) ([]core.Candle, error) {
	switch path.Ext(key) {
	case ".csv":
		return DecodeCSV(data)
	case ".json":
		return DecodeJSON(data)
	default:
		return nil, fmt.Errorf("unsupported dataset format: %s", key)
	}
}
