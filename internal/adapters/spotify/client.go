// Package spotify saves recommended tracks to a user's Spotify library and
// builds the OAuth consent URL.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/ewilliams-labs/moodmix/internal/core/ports"
)

// maxIDsPerCall is the library endpoint's limit.
const maxIDsPerCall = 50

// Config configures a Client. BaseURL and HTTPClient are for tests.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	BaseURL      string
	HTTPClient   *http.Client
}

// Client is the Spotify library adapter.
type Client struct {
	auth       *spotifyauth.Authenticator
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// compile-time interface assertions
var (
	_ ports.LibraryClient = (*Client)(nil)
	_ ports.Authorizer    = (*Client)(nil)
)

// NewClient constructs a new Spotify client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := cfg.BaseURL
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		auth: spotifyauth.New(
			spotifyauth.WithClientID(cfg.ClientID),
			spotifyauth.WithClientSecret(cfg.ClientSecret),
			spotifyauth.WithRedirectURL(cfg.RedirectURL),
			spotifyauth.WithScopes(spotifyauth.ScopeUserLibraryModify, spotifyauth.ScopeUserLibraryRead),
		),
		baseURL:    baseURL,
		httpClient: cfg.HTTPClient,
		logger:     logger,
	}
}

// AuthURL returns the consent URL carrying state.
func (c *Client) AuthURL(state string) string {
	return c.auth.AuthURL(state)
}

// SaveTracks adds the tracks to the library of the user owning accessToken.
// trackURIs may be Spotify URIs, open.spotify.com links or bare ids; all of
// them are validated before any request is sent.
func (c *Client) SaveTracks(ctx context.Context, accessToken string, trackURIs []string) error {
	ids, err := parseTrackIDs(trackURIs)
	if err != nil {
		return err
	}

	api := c.apiClient(ctx, accessToken)
	for start := 0; start < len(ids); start += maxIDsPerCall {
		end := min(start+maxIDsPerCall, len(ids))
		if err := api.AddTracksToLibrary(ctx, ids[start:end]...); err != nil {
			var se spotify.Error
			if errors.As(err, &se) {
				return fmt.Errorf("spotify adapter: save tracks: status %d: %w", se.Status, err)
			}
			return fmt.Errorf("spotify adapter: save tracks: %w", err)
		}
	}

	c.logger.Debug("spotify adapter: saved tracks", zap.Int("tracks", len(ids)))
	return nil
}

func (c *Client) apiClient(ctx context.Context, accessToken string) *spotify.Client {
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	token := &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	opts := []spotify.ClientOption{spotify.WithRetry(true)}
	if c.baseURL != "" {
		opts = append(opts, spotify.WithBaseURL(c.baseURL))
	}
	return spotify.New(httpClient, opts...)
}
