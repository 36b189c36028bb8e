// Package services holds the recommendation service, the single entry point
// the boundary layer calls into.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/moodmix/internal/core/catalog"
	"github.com/ewilliams-labs/moodmix/internal/core/domain"
	"github.com/ewilliams-labs/moodmix/internal/core/ports"
	"github.com/ewilliams-labs/moodmix/internal/core/ranker"
	"github.com/ewilliams-labs/moodmix/internal/metrics"
)

const (
	SourceEmotion = "emotion"
	SourceText    = "text"

	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// CatalogProvider hands out the catalog index active at call time.
type CatalogProvider interface {
	Current() *catalog.Index
}

// Recommender normalizes emotion input and ranks the current catalog
// against it. Collaborators other than the catalog are optional; operations
// that need a missing one fail with KindNotConfigured.
type Recommender struct {
	catalog    CatalogProvider
	ranker     *ranker.Ranker
	normalizer domain.Normalizer
	logger     *zap.Logger

	maxResults int
	classifier ports.EmotionClassifier
	library    ports.LibraryClient
	authorizer ports.Authorizer
	history    ports.HistoryRepository
	recorder   ports.HistoryRecorder

	now func() time.Time
}

// Option configures optional collaborators of a Recommender.
type Option func(*Recommender)

// WithMaxResults clamps every request to at most n tracks. Zero disables the
// clamp.
func WithMaxResults(n int) Option {
	return func(r *Recommender) { r.maxResults = max(n, 0) }
}

// WithClassifier enables RecommendForText.
func WithClassifier(c ports.EmotionClassifier) Option {
	return func(r *Recommender) { r.classifier = c }
}

// WithLibrary enables SaveToLibrary.
func WithLibrary(l ports.LibraryClient) Option {
	return func(r *Recommender) { r.library = l }
}

// WithAuthorizer enables AuthorizationURL.
func WithAuthorizer(a ports.Authorizer) Option {
	return func(r *Recommender) { r.authorizer = a }
}

// WithHistory enables History and records served recommendations through
// recorder. recorder may be nil to read history without recording.
func WithHistory(repo ports.HistoryRepository, recorder ports.HistoryRecorder) Option {
	return func(r *Recommender) {
		r.history = repo
		r.recorder = recorder
	}
}

// NewRecommender constructs a Recommender.
func NewRecommender(cat CatalogProvider, rk *ranker.Ranker, normalizer domain.Normalizer, logger *zap.Logger, opts ...Option) *Recommender {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Recommender{
		catalog:    cat,
		ranker:     rk,
		normalizer: normalizer,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recommend ranks the current catalog against input and returns at most k
// tracks. Every failure is a *domain.Error.
func (r *Recommender) Recommend(input domain.EmotionInput, k int) (domain.RecommendationResult, error) {
	_, res, err := r.recommend(SourceEmotion, input.AsScores(), k)
	return res, err
}

// RecommendForText classifies text and recommends for the detected
// emotions. The normalized emotions are returned with the result.
func (r *Recommender) RecommendForText(ctx context.Context, text string, k int) (domain.EmotionVector, domain.RecommendationResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.EmotionVector{}, domain.RecommendationResult{}, domain.NewError(domain.KindInvalidInput, "text must not be empty")
	}
	if r.classifier == nil {
		return domain.EmotionVector{}, domain.RecommendationResult{}, domain.NewError(domain.KindNotConfigured, "no emotion classifier configured")
	}

	scores, err := r.classifier.Classify(ctx, text)
	metrics.RecordClassification(err)
	if err != nil {
		return domain.EmotionVector{}, domain.RecommendationResult{}, asUpstream(err, "service: failed to classify text")
	}
	v, res, err := r.recommend(SourceText, scores, k)
	if kind, ok := domain.KindOf(err); ok && kind == domain.KindInvalidInput {
		// Unusable classifier scores are an upstream fault, not a bad request.
		return domain.EmotionVector{}, domain.RecommendationResult{}, domain.WrapError(domain.KindUpstream, err, "service: classifier returned malformed emotions")
	}
	return v, res, err
}

func (r *Recommender) recommend(source string, scores []domain.EmotionScore, k int) (domain.EmotionVector, domain.RecommendationResult, error) {
	start := time.Now()
	if r.maxResults > 0 && k > r.maxResults {
		k = r.maxResults
	}

	v, res, err := r.rank(scores, k)
	if err != nil {
		outcome := "error"
		if kind, ok := domain.KindOf(err); ok {
			outcome = string(kind)
		}
		metrics.RecordRecommendation(outcome, -1, time.Since(start))
		return domain.EmotionVector{}, domain.RecommendationResult{}, err
	}

	outcome := "ok"
	if res.Fallback {
		outcome = "fallback"
	}
	metrics.RecordRecommendation(outcome, len(res.Items), time.Since(start))
	r.record(source, v, k, res)
	return v, res, nil
}

func (r *Recommender) rank(scores []domain.EmotionScore, k int) (domain.EmotionVector, domain.RecommendationResult, error) {
	v, err := r.normalizer.Normalize(scores)
	if err != nil {
		return domain.EmotionVector{}, domain.RecommendationResult{}, asDomainError(err, domain.KindInvalidInput)
	}

	idx := r.catalog.Current()
	if idx == nil {
		return domain.EmotionVector{}, domain.RecommendationResult{}, domain.NewError(domain.KindCatalogLoad, "no catalog loaded")
	}

	res, err := r.ranker.Rank(idx, v, k)
	if err != nil {
		return domain.EmotionVector{}, domain.RecommendationResult{}, asDomainError(err, domain.KindInvalidArgument)
	}
	return v, res, nil
}

func (r *Recommender) record(source string, v domain.EmotionVector, k int, res domain.RecommendationResult) {
	if r.recorder == nil {
		return
	}
	r.recorder.Submit(domain.HistoryEntry{
		ID:        uuid.NewString(),
		CreatedAt: r.now().UTC(),
		Source:    source,
		Emotions:  v.Scores(),
		Requested: k,
		TrackIDs:  res.TrackIDs(),
		Fallback:  res.Fallback,
	})
}

// SaveToLibrary saves the given track URIs to the library of the user the
// access token belongs to.
func (r *Recommender) SaveToLibrary(ctx context.Context, accessToken string, trackURIs []string) error {
	if len(trackURIs) == 0 {
		return domain.NewError(domain.KindInvalidInput, "no tracks to save")
	}
	if strings.TrimSpace(accessToken) == "" {
		return domain.NewError(domain.KindInvalidInput, "access token is required")
	}
	if r.library == nil {
		return domain.NewError(domain.KindNotConfigured, "no music library configured")
	}

	if err := r.library.SaveTracks(ctx, accessToken, trackURIs); err != nil {
		if errors.Is(err, ports.ErrInvalidTrackURI) {
			return domain.WrapError(domain.KindInvalidInput, err, "service: rejected track list")
		}
		return asUpstream(err, "service: failed to save tracks")
	}
	r.logger.Info("saved tracks to library", zap.Int("tracks", len(trackURIs)))
	return nil
}

// AuthorizationURL returns the music service's consent URL for state.
func (r *Recommender) AuthorizationURL(state string) (string, error) {
	if r.authorizer == nil {
		return "", domain.NewError(domain.KindNotConfigured, "no music service authorization configured")
	}
	return r.authorizer.AuthURL(state), nil
}

// History returns the most recent recommendation log entries, newest first.
// Non-positive limits select the default.
func (r *Recommender) History(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if r.history == nil {
		return nil, domain.NewError(domain.KindNotConfigured, "no history store configured")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	entries, err := r.history.ListHistory(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list history: %w", err)
	}
	return entries, nil
}

// asDomainError returns err unchanged when it already carries a kind.
func asDomainError(err error, fallback domain.ErrorKind) error {
	if _, ok := domain.KindOf(err); ok {
		return err
	}
	return domain.WrapError(fallback, err, "service")
}

func asUpstream(err error, message string) error {
	if _, ok := domain.KindOf(err); ok {
		return err
	}
	return domain.WrapError(domain.KindUpstream, err, message)
}
