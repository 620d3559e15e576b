// Package source provides row sources for the narrative service: a local
// snapshot reader and a circuit breaker that wraps any other source.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"transitinsight/internal/types"
)

// Snapshot file suffixes, tried in order.
const (
	suffixZstd  = ".jsonl.zst"
	suffixPlain = ".jsonl"
)

// FileSource reads newline-delimited JSON rows from <dir>/<dataset>.jsonl,
// or its zstd-compressed sibling <dataset>.jsonl.zst when present.
type FileSource struct {
	dir    string
	logger *slog.Logger

	// decoderPool provides reusable zstd decoders to avoid repeated allocations.
	decoderPool sync.Pool
}

// NewFileSource creates a FileSource rooted at dir.
func NewFileSource(dir string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		dir:    dir,
		logger: logger,
		decoderPool: sync.Pool{
			New: func() any {
				d, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
				if err != nil {
					// This should never fail with nil input and default options.
					panic(fmt.Sprintf("failed to create zstd decoder: %v", err))
				}
				return d
			},
		},
	}
}

// Rows loads the whole dataset. A missing snapshot is a not-found error;
// undecodable content is reported as snapshot corruption.
func (s *FileSource) Rows(ctx context.Context, dataset string) ([]types.Row, error) {
	if dataset == "" || filepath.Base(dataset) != dataset || dataset == "." || dataset == ".." {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeNotFoundDataset,
			"invalid dataset name", nil, map[string]any{"dataset": dataset})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, compressed, err := s.locate(dataset)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected,
			fmt.Sprintf("failed to read snapshot %s", filepath.Base(path)), err)
	}
	if compressed {
		data, err = s.decompress(data)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalSnapshot,
				fmt.Sprintf("zstd decompression failed for %s", filepath.Base(path)), err)
		}
	}

	rows, err := DecodeRows(bytes.NewReader(data))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalSnapshot,
			fmt.Sprintf("malformed snapshot %s", filepath.Base(path)), err)
	}

	s.logger.DebugContext(ctx, "snapshot loaded",
		"dataset", dataset,
		"rows", len(rows),
		"compressed", compressed,
	)
	return rows, nil
}

func (s *FileSource) locate(dataset string) (string, bool, error) {
	for _, suffix := range []string{suffixZstd, suffixPlain} {
		path := filepath.Join(s.dir, dataset+suffix)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, suffix == suffixZstd, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", false, types.NewAppError(types.ErrCodeInternalUnexpected,
				"failed to stat snapshot", err)
		}
	}
	return "", false, types.NewAppErrorWithDetails(types.ErrCodeNotFoundDataset,
		"no snapshot for dataset", nil, map[string]any{"dataset": dataset})
}

func (s *FileSource) decompress(data []byte) ([]byte, error) {
	decoder := s.decoderPool.Get().(*zstd.Decoder)
	defer s.decoderPool.Put(decoder)

	return decoder.DecodeAll(data, nil)
}

// DecodeRows reads a stream of JSON row objects. Blank input yields an empty
// dataset rather than an error. Nil maps are normalised to empty ones so
// that callers can index rows without checks.
func DecodeRows(r io.Reader) ([]types.Row, error) {
	dec := json.NewDecoder(r)
	var rows []types.Row
	for i := 1; ; i++ {
		var row types.Row
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if row.Dimensions == nil {
			row.Dimensions = map[string]string{}
		}
		if row.Measures == nil {
			row.Measures = map[string]float64{}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
