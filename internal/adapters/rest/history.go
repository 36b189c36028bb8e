package rest

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/moodmix/internal/core/domain"
)

type historyEntryView struct {
	ID        string                `json:"id"`
	CreatedAt time.Time             `json:"created_at"`
	Source    string                `json:"source"`
	Emotions  []domain.EmotionScore `json:"emotions"`
	Requested int                   `json:"num_recommendations"`
	TrackIDs  []string              `json:"track_ids"`
	Fallback  bool                  `json:"fallback"`
}

// History handles GET /api/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeErrorWithCode(w, http.StatusBadRequest, "limit must be a non-negative integer", string(domain.KindInvalidArgument))
			return
		}
		limit = n
	}

	entries, err := h.svc.History(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	views := make([]historyEntryView, 0, len(entries))
	for _, e := range entries {
		emotions := e.Emotions
		if emotions == nil {
			emotions = []domain.EmotionScore{}
		}
		trackIDs := e.TrackIDs
		if trackIDs == nil {
			trackIDs = []string{}
		}
		views = append(views, historyEntryView{
			ID:        e.ID,
			CreatedAt: e.CreatedAt,
			Source:    e.Source,
			Emotions:  emotions,
			Requested: e.Requested,
			TrackIDs:  trackIDs,
			Fallback:  e.Fallback,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": views})
}

// ReloadCatalog handles POST /api/catalog/reload
func (h *Handler) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	if h.opts.Reload == nil {
		writeErrorWithCode(w, http.StatusNotImplemented, "catalog reload is not configured", string(domain.KindNotConfigured))
		return
	}

	tracks, err := h.opts.Reload(r.Context())
	if err != nil {
		h.logger.Warn("catalog reload failed", zap.Error(err))
		if _, ok := domain.KindOf(err); !ok {
			err = domain.WrapError(domain.KindCatalogLoad, err, "catalog reload failed")
		}
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "reloaded", "tracks": tracks})
}
