// Package ranker scores catalog tracks against an emotion vector.
package ranker

import (
	"cmp"
	"slices"
	"strings"

	"github.com/ewilliams-labs/moodmix/internal/core/catalog"
	"github.com/ewilliams-labs/moodmix/internal/core/domain"
)

// Index is the read side of a catalog the ranker needs.
type Index interface {
	Lookup(label domain.EmotionLabel) []catalog.Entry
	Track(id string) (domain.Track, bool)
	DefaultOrder() []string
}

// Options tune candidate selection and diversity.
type Options struct {
	// MinRelevance excludes labels whose vector weight is not above it from
	// candidate selection. They still count toward the score.
	MinRelevance float64
	// MaxPerArtist caps how many tracks by one artist a result may hold.
	// Zero disables the cap.
	MaxPerArtist int
}

// Ranker is stateless and safe for concurrent use.
type Ranker struct {
	opts Options
}

// New returns a Ranker. Negative option values are treated as zero.
func New(opts Options) *Ranker {
	opts.MinRelevance = max(opts.MinRelevance, 0)
	opts.MaxPerArtist = max(opts.MaxPerArtist, 0)
	return &Ranker{opts: opts}
}

// Rank returns at most k tracks ordered by match score descending, then track
// id ascending. The zero vector falls back to the index's default order with
// a score of 0.
func (r *Ranker) Rank(idx Index, v domain.EmotionVector, k int) (domain.RecommendationResult, error) {
	if k < 0 {
		return domain.RecommendationResult{}, domain.NewError(domain.KindInvalidArgument,
			"number of recommendations must not be negative, got %d", k)
	}

	if v.IsZero() {
		return r.fallback(idx, k), nil
	}

	result := domain.RecommendationResult{Items: []domain.Recommendation{}}
	if k == 0 {
		return result, nil
	}

	scored := r.score(idx, v)
	slices.SortFunc(scored, compareRecommendations)
	result.Items = r.truncate(scored, k)
	return result, nil
}

// score builds the candidate set from the active labels' postings and
// computes each candidate's full dot product once.
func (r *Ranker) score(idx Index, v domain.EmotionVector) []domain.Recommendation {
	seen := make(map[string]struct{})
	out := make([]domain.Recommendation, 0)

	for _, label := range v.Active(r.opts.MinRelevance) {
		for _, entry := range idx.Lookup(label) {
			if _, ok := seen[entry.TrackID]; ok {
				continue
			}
			seen[entry.TrackID] = struct{}{}

			track, ok := idx.Track(entry.TrackID)
			if !ok {
				continue
			}
			out = append(out, domain.Recommendation{Track: track, MatchScore: v.Dot(track.Profile)})
		}
	}
	return out
}

func (r *Ranker) fallback(idx Index, k int) domain.RecommendationResult {
	result := domain.RecommendationResult{Items: []domain.Recommendation{}, Fallback: true}
	if k == 0 {
		return result
	}

	order := idx.DefaultOrder()
	items := make([]domain.Recommendation, 0, min(k, len(order)))
	for _, id := range order {
		if track, ok := idx.Track(id); ok {
			items = append(items, domain.Recommendation{Track: track})
		}
	}
	result.Items = r.truncate(items, k)
	return result
}

// truncate keeps the first k items, skipping tracks whose artist has
// already reached MaxPerArtist.
func (r *Ranker) truncate(items []domain.Recommendation, k int) []domain.Recommendation {
	if r.opts.MaxPerArtist == 0 {
		if len(items) > k {
			items = items[:k]
		}
		return items
	}

	perArtist := make(map[string]int)
	out := make([]domain.Recommendation, 0, min(k, len(items)))
	for _, item := range items {
		if len(out) == k {
			break
		}
		artist := strings.ToLower(strings.TrimSpace(item.Track.Artist))
		if artist != "" && perArtist[artist] >= r.opts.MaxPerArtist {
			continue
		}
		perArtist[artist]++
		out = append(out, item)
	}
	return out
}

func compareRecommendations(a, b domain.Recommendation) int {
	if a.MatchScore != b.MatchScore {
		return cmp.Compare(b.MatchScore, a.MatchScore)
	}
	return strings.Compare(a.Track.ID, b.Track.ID)
}
