package catalog

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/moodmix/internal/core/domain"
	"github.com/ewilliams-labs/moodmix/internal/core/ports"
	"github.com/ewilliams-labs/moodmix/internal/metrics"
)

// Store publishes the active Index. Readers call Current and keep using the
// index they got for the whole request; a reload swaps the pointer in one
// step so no reader observes a partially built catalog.
type Store struct {
	current atomic.Pointer[Index]
	logger  *zap.Logger
}

// NewStore returns a Store serving idx.
func NewStore(idx *Index, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{logger: logger}
	s.current.Store(idx)
	metrics.CatalogTracks.Set(float64(idx.Len()))
	return s
}

// Load builds the initial store from source. Startup treats an error as
// fatal.
func Load(ctx context.Context, source ports.CatalogSource, logger *zap.Logger) (*Store, error) {
	idx, err := buildFrom(ctx, source)
	metrics.RecordCatalogReload(lenOf(idx), err)
	if err != nil {
		return nil, err
	}
	return NewStore(idx, logger), nil
}

// Current returns the active index.
func (s *Store) Current() *Index {
	return s.current.Load()
}

// Swap replaces the active index and returns the previous one.
func (s *Store) Swap(idx *Index) *Index {
	return s.current.Swap(idx)
}

// Reload rebuilds the index from source and swaps it in. On failure the
// previous index keeps serving and the error is returned.
func (s *Store) Reload(ctx context.Context, source ports.CatalogSource) error {
	start := time.Now()
	idx, err := buildFrom(ctx, source)
	metrics.RecordCatalogReload(lenOf(idx), err)
	if err != nil {
		s.logger.Warn("catalog reload failed, keeping current catalog",
			zap.Int("tracks", s.Current().Len()),
			zap.Error(err),
		)
		return err
	}

	prev := s.Swap(idx)
	s.logger.Info("catalog reloaded",
		zap.Int("tracks", idx.Len()),
		zap.Int("previous_tracks", prev.Len()),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// Watch reloads from source every interval until ctx is done. Failed
// reloads are logged and retried on the next tick.
func (s *Store) Watch(ctx context.Context, interval time.Duration, source ports.CatalogSource) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Reload(ctx, source)
		}
	}
}

func buildFrom(ctx context.Context, source ports.CatalogSource) (*Index, error) {
	tracks, err := source.LoadTracks(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.KindCatalogLoad, err, "catalog: failed to load tracks")
	}
	idx, err := Build(tracks)
	if err != nil {
		return nil, fmt.Errorf("catalog: build failed: %w", err)
	}
	return idx, nil
}

func lenOf(idx *Index) int {
	if idx == nil {
		return 0
	}
	return idx.Len()
}
