package domain

import "time"

// Recommendation is one ranked entry of a result.
type Recommendation struct {
	Track      Track
	MatchScore float64
}

// RecommendationResult is ordered by MatchScore descending, then Track.ID
// ascending. Fallback is set when the input carried no emotion and the
// catalog's default ordering was used.
type RecommendationResult struct {
	Items    []Recommendation
	Fallback bool
}

// TrackIDs returns the ids of the result in rank order.
func (r RecommendationResult) TrackIDs() []string {
	ids := make([]string, 0, len(r.Items))
	for _, item := range r.Items {
		ids = append(ids, item.Track.ID)
	}
	return ids
}

// HistoryEntry is the persisted record of one served recommendation.
type HistoryEntry struct {
	ID        string
	CreatedAt time.Time
	Source    string // "emotion" or "text"
	Emotions  []EmotionScore
	Requested int
	TrackIDs  []string
	Fallback  bool
}
