// Package ollama provides an adapter for the Ollama LLM service.
// It classifies free text into emotion scores by prompting a local Ollama
// instance for structured JSON.
package ollama

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/moodmix/internal/core/domain"
	"github.com/ewilliams-labs/moodmix/internal/metrics"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama3"
	defaultTimeout = 30 * time.Second
	breakerName    = "ollama-classifier"
)

const systemPrompt = "You are an emotion classifier. Read the user's text and estimate which emotions it expresses.\n\nRules:\nLabels: use only anger, disgust, fear, joy, love, neutral, sadness, surprise.\nConfidence: a number from 0.0 to 1.0 per label. Omit labels that do not apply.\nOutput: Return ONLY a valid JSON object. No conversational text.\nExample: 'I finally got the job!' -> {\"emotions\": [{\"label\": \"joy\", \"confidence\": 0.92}, {\"label\": \"surprise\", \"confidence\": 0.35}]}"

// Config configures a Client. Zero values select defaults.
type Config struct {
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	BaseBackoff time.Duration
}

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]domain.EmotionScore]
	logger     *zap.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

type classification struct {
	Emotions json.RawMessage `json:"emotions"`
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	baseBackoff := cfg.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = defaultBackoff
	}

	return &Client{
		baseURL:    baseURL,
		model:      model,
		httpClient: newRetryClient(timeout, maxRetries, baseBackoff, logger),
		breaker:    newBreaker(logger),
		logger:     logger,
	}
}

func newBreaker(logger *zap.Logger) *gobreaker.CircuitBreaker[[]domain.EmotionScore] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	return gobreaker.NewCircuitBreaker[[]domain.EmotionScore](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// callers giving up is not the classifier's fault
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("ollama: circuit breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
}

// Classify asks the model for emotion scores for text. Labels are returned
// as the model wrote them; normalization happens in the core.
func (c *Client) Classify(ctx context.Context, text string) ([]domain.EmotionScore, error) {
	scores, err := c.breaker.Execute(func() ([]domain.EmotionScore, error) {
		return c.classify(ctx, text)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("ollama: classifier unavailable: %w", err)
	}
	return scores, err
}

func (c *Client) classify(ctx context.Context, text string) ([]domain.EmotionScore, error) {
	payload := chatRequest{
		Model:  c.model,
		Stream: false,
		Format: "json",
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ollama: unexpected status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("ollama: decode response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("ollama: %s", parsed.Error)
	}

	return parseClassification(parsed.Message.Content)
}

// parseClassification extracts the JSON object from the model's reply.
// Reasoning models may wrap it in extra text, so only the outermost braces
// are decoded.
func parseClassification(content string) ([]domain.EmotionScore, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("ollama: empty response")
	}

	var out classification
	if err := json.Unmarshal([]byte(content[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("ollama: decode classification: %w", err)
	}

	input, err := domain.ParseEmotionInput(out.Emotions)
	if err != nil {
		return nil, fmt.Errorf("ollama: decode emotions: %v", err)
	}
	scores := input.AsScores()
	for _, s := range scores {
		if math.IsNaN(s.Confidence) || s.Confidence < 0 || s.Confidence > 1 {
			return nil, fmt.Errorf("ollama: confidence %v for %q is outside [0,1]", s.Confidence, s.Label)
		}
	}
	return scores, nil
}
