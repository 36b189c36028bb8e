package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/moodmix/internal/core/catalog"
	"github.com/ewilliams-labs/moodmix/internal/core/domain"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := NewAdapter(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestAdapter_LoadTracks(t *testing.T) {
	tests := []struct {
		name    string
		batches [][]domain.Track
		wantIDs []string
		check   func(t *testing.T, tracks []domain.Track)
	}{
		{
			name:    "empty catalog",
			wantIDs: []string{},
		},
		{
			name: "insertion order and raw profile keys",
			batches: [][]domain.Track{{
				{ID: "B", Title: "Bloom", Artist: "Ivy", Popularity: 90, Profile: domain.EmotionProfile{"joy": 0.2, "Sad": 0.7}},
				{ID: "A", Title: "Ash", Artist: "Oak", Album: "Embers", URI: "spotify:track:A", Profile: domain.EmotionProfile{"joy": 0.9}},
			}},
			wantIDs: []string{"B", "A"},
			check: func(t *testing.T, tracks []domain.Track) {
				assert.Equal(t, domain.EmotionProfile{"joy": 0.2, "Sad": 0.7}, tracks[0].Profile)
				assert.Equal(t, 90, tracks[0].Popularity)
				assert.Equal(t, "Embers", tracks[1].Album)
				assert.Equal(t, "spotify:track:A", tracks[1].URI)
			},
		},
		{
			name: "track without profile",
			batches: [][]domain.Track{{
				{ID: "Q", Title: "Quiet", Artist: "Nobody"},
			}},
			wantIDs: []string{"Q"},
			check: func(t *testing.T, tracks []domain.Track) {
				assert.Empty(t, tracks[0].Profile)
			},
		},
		{
			name: "upsert keeps position and replaces profile",
			batches: [][]domain.Track{
				{
					{ID: "A", Title: "Ash", Artist: "Oak", Profile: domain.EmotionProfile{"joy": 0.9, "fear": 0.1}},
					{ID: "B", Title: "Bloom", Artist: "Ivy", Profile: domain.EmotionProfile{"love": 0.5}},
				},
				{
					{ID: "C", Title: "Cinder", Artist: "Elm", Profile: domain.EmotionProfile{"anger": 0.4}},
					{ID: "A", Title: "Ash (Remaster)", Artist: "Oak", Profile: domain.EmotionProfile{"sadness": 0.3}},
				},
			},
			wantIDs: []string{"A", "B", "C"},
			check: func(t *testing.T, tracks []domain.Track) {
				assert.Equal(t, "Ash (Remaster)", tracks[0].Title)
				assert.Equal(t, domain.EmotionProfile{"sadness": 0.3}, tracks[0].Profile)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAdapter(t)
			ctx := context.Background()
			for _, batch := range tt.batches {
				require.NoError(t, a.UpsertTracks(ctx, batch))
			}

			tracks, err := a.LoadTracks(ctx)
			require.NoError(t, err)

			ids := make([]string, 0, len(tracks))
			for _, tr := range tracks {
				ids = append(ids, tr.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			if tt.check != nil {
				tt.check(t, tracks)
			}
		})
	}
}

func TestAdapter_LoadTracksBuildsCatalog(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	require.NoError(t, a.UpsertTracks(ctx, []domain.Track{
		{ID: "A", Title: "Ash", Artist: "Oak", Profile: domain.EmotionProfile{"happy": 0.9}},
		{ID: "B", Title: "Bloom", Artist: "Ivy", Profile: domain.EmotionProfile{"joy": 0.4}},
	}))

	store, err := catalog.Load(ctx, a, nil)
	require.NoError(t, err)

	entries := store.Current().Lookup(domain.EmotionLabel("joy"))
	require.Len(t, entries, 2)
	assert.Equal(t, "A", entries[0].TrackID)
}

func TestAdapter_History(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"h1", "h2", "h3"} {
		require.NoError(t, a.RecordRecommendation(ctx, domain.HistoryEntry{
			ID:        id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Source:    "emotion",
			Emotions:  []domain.EmotionScore{{Label: "joy", Confidence: 0.8}},
			Requested: 5,
			TrackIDs:  []string{"A", "B"},
			Fallback:  i == 2,
		}))
	}

	tests := []struct {
		name    string
		limit   int
		wantIDs []string
	}{
		{name: "newest first", limit: 10, wantIDs: []string{"h3", "h2", "h1"}},
		{name: "limited", limit: 2, wantIDs: []string{"h3", "h2"}},
		{name: "zero", limit: 0, wantIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := a.ListHistory(ctx, tt.limit)
			require.NoError(t, err)

			ids := make([]string, 0, len(entries))
			for _, e := range entries {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	entries, err := a.ListHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	got := entries[0]
	assert.True(t, got.CreatedAt.Equal(base.Add(2*time.Minute)))
	assert.Equal(t, "emotion", got.Source)
	assert.Equal(t, []domain.EmotionScore{{Label: "joy", Confidence: 0.8}}, got.Emotions)
	assert.Equal(t, 5, got.Requested)
	assert.Equal(t, []string{"A", "B"}, got.TrackIDs)
	assert.True(t, got.Fallback)
}

func TestAdapter_DuplicateHistoryID(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	entry := domain.HistoryEntry{ID: "dup", CreatedAt: time.Now(), Source: "text"}

	require.NoError(t, a.RecordRecommendation(ctx, entry))
	err := a.RecordRecommendation(ctx, entry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite: failed to record recommendation dup")
}

func TestAdapter_MigrateIsIdempotent(t *testing.T) {
	a := newTestAdapter(t)
	require.NoError(t, a.migrate())
	require.NoError(t, a.migrate())
}
