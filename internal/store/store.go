// Package store persists raw upstream observations so the extractor can run
// again without reaching Ipeadata.
package store

import (
	"context"

	"github.com/ipeadata-tools/inflation-indices/internal/indices"
)

// Store keeps raw points per series code.
type Store interface {
	UpsertPoints(ctx context.Context, code string, points []indices.Point) error
	ListPoints(ctx context.Context, code string) ([]indices.Point, error)
	Close() error
}

// NopStore discards writes and has no points.
type NopStore struct{}

func (s *NopStore) UpsertPoints(ctx context.Context, code string, points []indices.Point) error {
	_ = ctx
	_ = code
	_ = points
	return nil
}

func (s *NopStore) ListPoints(ctx context.Context, code string) ([]indices.Point, error) {
	_ = ctx
	_ = code
	return nil, nil
}

func (s *NopStore) Close() error {
	return nil
}
