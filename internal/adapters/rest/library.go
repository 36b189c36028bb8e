package rest

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ewilliams-labs/moodmix/internal/core/domain"
)

type saveToSpotifyRequest struct {
	TrackURIs   []string `json:"track_uris"`
	AccessToken string   `json:"access_token"`
}

// SaveToSpotify handles POST /api/save-to-spotify
func (h *Handler) SaveToSpotify(w http.ResponseWriter, r *http.Request) {
	var req saveToSpotifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if len(req.TrackURIs) == 0 {
		writeErrorWithCode(w, http.StatusBadRequest, "No tracks provided", string(domain.KindInvalidInput))
		return
	}
	token := strings.TrimSpace(req.AccessToken)
	if token == "" {
		token = bearerToken(r)
	}
	if token == "" {
		writeError(w, http.StatusUnauthorized, "No access token provided")
		return
	}

	if err := h.svc.SaveToLibrary(r.Context(), token, req.TrackURIs); err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Tracks saved successfully"})
}

// SpotifyAuthURL handles GET /api/spotify-auth-url
func (h *Handler) SpotifyAuthURL(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.svc.AuthorizationURL(uuid.NewString())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"auth_url": authURL})
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
