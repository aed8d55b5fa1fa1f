// Package etl runs the extraction: fetch every configured series, derive the
// factor columns and merge them into the wide dataset table.
package etl

import (
	"context"
	"fmt"

	"github.com/ipeadata-tools/inflation-indices/internal/config"
	"github.com/ipeadata-tools/inflation-indices/internal/dataset"
	"github.com/ipeadata-tools/inflation-indices/internal/indices"
	"github.com/ipeadata-tools/inflation-indices/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source fetches the raw observations of one upstream series.
type Source interface {
	FetchSeries(ctx context.Context, sourceID string) ([]indices.Point, error)
}

// Run fetches and derives every series in cfg and returns the merged table.
// Raw points are written to st; in offline mode they are read from it instead
// of calling source. The first failure cancels the remaining work.
func Run(ctx context.Context, logger *zap.Logger, cfg config.ExtractorConfig, source Source, st store.Store) (*dataset.Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if st == nil {
		st = &store.NopStore{}
	}
	if source == nil && !cfg.Offline {
		return nil, fmt.Errorf("etl: a source is required unless running offline")
	}

	limit := cfg.Concurrency
	if limit < 1 {
		limit = 1
	}

	derived := make([]indices.Derived, len(cfg.Series))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, s := range cfg.Series {
		i, s := i, s
		g.Go(func() error {
			points, err := loadPoints(gctx, logger, cfg, source, st, s)
			if err != nil {
				return err
			}

			d, err := indices.Derive(s, keepFrom(points, cfg.StartYear), cfg.StartYear)
			if err != nil {
				return err
			}
			derived[i] = d

			logger.Info("series derived",
				zap.String("op", "etl.Run"),
				zap.String("series", s.Code),
				zap.String("source", s.SourceID),
				zap.Int("points", len(points)),
				zap.Int("published", len(d.Dates)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return indices.Merge(derived)
}

func loadPoints(ctx context.Context, logger *zap.Logger, cfg config.ExtractorConfig, source Source, st store.Store, s indices.Series) ([]indices.Point, error) {
	if cfg.Offline {
		points, err := st.ListPoints(ctx, s.SourceID)
		if err != nil {
			return nil, fmt.Errorf("failed to read cached series %s: %w", s.Code, err)
		}
		if len(points) == 0 {
			return nil, fmt.Errorf("no cached observations for series %s (%s)", s.Code, s.SourceID)
		}
		return points, nil
	}

	logger.Debug("fetching series",
		zap.String("op", "etl.loadPoints"),
		zap.String("series", s.Code),
		zap.String("source", s.SourceID),
	)
	points, err := source.FetchSeries(ctx, s.SourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch series %s (%s): %w", s.Code, s.SourceID, err)
	}
	if err := st.UpsertPoints(ctx, s.SourceID, points); err != nil {
		return nil, fmt.Errorf("failed to cache series %s: %w", s.Code, err)
	}
	return points, nil
}

// keepFrom drops points before January of startYear.
func keepFrom(points []indices.Point, startYear int) []indices.Point {
	from := indices.FetchStart(startYear)
	kept := make([]indices.Point, 0, len(points))
	for _, p := range points {
		if !p.Date.Before(from) {
			kept = append(kept, p)
		}
	}
	return kept
}
