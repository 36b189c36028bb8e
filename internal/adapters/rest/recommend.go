package rest

import (
	"bytes"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/ewilliams-labs/moodmix/internal/core/domain"
)

type recommendSongsRequest struct {
	Emotion            json.RawMessage `json:"emotion"`
	NumRecommendations json.RawMessage `json:"num_recommendations"`
}

type recommendFromTextRequest struct {
	Text               string          `json:"text" validate:"required,max=2000"`
	NumRecommendations json.RawMessage `json:"num_recommendations"`
}

type recommendationView struct {
	TrackID string  `json:"track_id"`
	Title   string  `json:"title"`
	Artist  string  `json:"artist"`
	Album   string  `json:"album,omitempty"`
	URI     string  `json:"uri,omitempty"`
	Score   float64 `json:"score"`
}

type recommendResponse struct {
	Recommendations []recommendationView `json:"recommendations"`
	Fallback        bool                 `json:"fallback"`
}

type textRecommendResponse struct {
	Emotions        []domain.EmotionScore `json:"emotions"`
	Recommendations []recommendationView  `json:"recommendations"`
	Fallback        bool                  `json:"fallback"`
}

// RecommendSongs handles POST /api/recommend-songs
func (h *Handler) RecommendSongs(w http.ResponseWriter, r *http.Request) {
	var req recommendSongsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if isAbsent(req.Emotion) {
		writeErrorWithCode(w, http.StatusBadRequest, "emotion is required", string(domain.KindInvalidInput))
		return
	}
	input, err := domain.ParseEmotionInput(req.Emotion)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	k, err := parseCount(req.NumRecommendations, h.opts.DefaultRecommendations, h.opts.MaxRecommendations)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	result, err := h.svc.Recommend(input, k)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recommendResponse{
		Recommendations: toViews(result),
		Fallback:        result.Fallback,
	})
}

// RecommendFromText handles POST /api/recommend-from-text
func (h *Handler) RecommendFromText(w http.ResponseWriter, r *http.Request) {
	var req recommendFromTextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if !validateRequest(w, req) {
		return
	}

	k, err := parseCount(req.NumRecommendations, h.opts.DefaultRecommendations, h.opts.MaxRecommendations)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	vector, result, err := h.svc.RecommendForText(r.Context(), req.Text, k)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, textRecommendResponse{
		Emotions:        vector.Scores(),
		Recommendations: toViews(result),
		Fallback:        result.Fallback,
	})
}

func toViews(result domain.RecommendationResult) []recommendationView {
	views := make([]recommendationView, 0, len(result.Items))
	for _, item := range result.Items {
		views = append(views, recommendationView{
			TrackID: item.Track.ID,
			Title:   item.Track.Title,
			Artist:  item.Track.Artist,
			Album:   item.Track.Album,
			URI:     item.Track.URI,
			Score:   item.MatchScore,
		})
	}
	return views
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// parseCount reads a requested result count. Integers, integral floats and
// numeric strings are accepted; the value is clamped to limit.
func parseCount(raw json.RawMessage, def, limit int) (int, error) {
	if isAbsent(raw) {
		return def, nil
	}

	var n float64
	trimmed := bytes.TrimSpace(raw)
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return 0, invalidCount(string(trimmed))
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, invalidCount(s)
		}
		n = parsed
	} else if err := json.Unmarshal(trimmed, &n); err != nil {
		return 0, invalidCount(string(trimmed))
	}

	if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
		return 0, invalidCount(string(trimmed))
	}
	if n < 0 {
		return 0, domain.NewError(domain.KindInvalidArgument, "num_recommendations must not be negative")
	}
	if n > float64(limit) {
		return limit, nil
	}
	return int(n), nil
}

func invalidCount(raw string) error {
	return domain.NewError(domain.KindInvalidArgument, "num_recommendations must be a whole number, got %s", raw)
}
