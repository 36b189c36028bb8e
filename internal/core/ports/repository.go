package ports

import (
	"context"

	"github.com/ewilliams-labs/moodmix/internal/core/domain"
)

// CatalogSource loads the tracks a catalog index is built from. Profiles are
// returned as stored; validation happens when the index is built.
type CatalogSource interface {
	LoadTracks(ctx context.Context) ([]domain.Track, error)
}

// HistoryRepository persists served recommendations.
type HistoryRepository interface {
	RecordRecommendation(ctx context.Context, entry domain.HistoryEntry) error
	ListHistory(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

// HistoryRecorder accepts entries for asynchronous persistence. Submit must
// not block the caller.
type HistoryRecorder interface {
	Submit(entry domain.HistoryEntry)
}

// CatalogWriter stores tracks into a catalog source, replacing tracks that
// share an id.
type CatalogWriter interface {
	UpsertTracks(ctx context.Context, tracks []domain.Track) error
}
