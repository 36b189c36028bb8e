package ports

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidTrackURI indicates a value that is not a track URI, URL or id.
var ErrInvalidTrackURI = errors.New("invalid track uri")

// InvalidTrackURIError names the offending value.
type InvalidTrackURIError struct {
	Value string
}

func (e InvalidTrackURIError) Error() string {
	if e.Value == "" {
		return ErrInvalidTrackURI.Error()
	}
	return fmt.Sprintf("invalid track uri %q", e.Value)
}

func (e InvalidTrackURIError) Is(target error) bool {
	return target == ErrInvalidTrackURI
}

// LibraryClient saves tracks to the library of the user owning accessToken.
type LibraryClient interface {
	SaveTracks(ctx context.Context, accessToken string, trackURIs []string) error
}

// Authorizer builds the OAuth consent URL for the music service.
type Authorizer interface {
	AuthURL(state string) string
}
