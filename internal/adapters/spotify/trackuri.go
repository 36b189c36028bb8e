package spotify

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/zmb3/spotify/v2"

	"github.com/ewilliams-labs/moodmix/internal/core/ports"
)

const (
	uriPrefix = "spotify:track:"
	idLength  = 22
)

// parseTrackIDs converts every value to a track id, dropping duplicates
// while keeping first-seen order. The first invalid value fails the batch.
func parseTrackIDs(values []string) ([]spotify.ID, error) {
	seen := make(map[spotify.ID]struct{}, len(values))
	ids := make([]spotify.ID, 0, len(values))
	for _, v := range values {
		id, err := parseTrackID(v)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseTrackID accepts
//
//	spotify:track:<id>
//	https://open.spotify.com/track/<id>?si=...
//	https://open.spotify.com/intl-de/track/<id>
//	<id>
func parseTrackID(raw string) (spotify.ID, error) {
	value := strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(value, uriPrefix):
		value = strings.TrimPrefix(value, uriPrefix)
	case strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://"):
		id, ok := idFromURL(value)
		if !ok {
			return "", ports.InvalidTrackURIError{Value: raw}
		}
		value = id
	}

	if !isBase62ID(value) {
		return "", ports.InvalidTrackURIError{Value: raw}
	}
	return spotify.ID(value), nil
}

func idFromURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host != "open.spotify.com" {
		return "", false
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == "track" {
			return segments[i+1], true
		}
	}
	return "", false
}

func isBase62ID(value string) bool {
	if len(value) != idLength {
		return false
	}
	for _, r := range value {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}
