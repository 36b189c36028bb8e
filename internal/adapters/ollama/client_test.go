package ollama

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/moodmix/internal/core/domain"
)

func chatReply(t *testing.T, content string) string {
	t.Helper()
	b, err := json.Marshal(chatResponse{Message: chatMessage{Role: "assistant", Content: content}})
	require.NoError(t, err)
	return string(b)
}

func testClient(url string) *Client {
	return NewClient(Config{BaseURL: url, Model: "test-model", MaxRetries: 2, BaseBackoff: time.Millisecond}, nil)
}

func TestClient_Classify(t *testing.T) {
	tests := []struct {
		name     string
		statuses []int
		content  string
		want     []domain.EmotionScore
		wantErr  bool
		attempts int32
	}{
		{
			name:     "score objects",
			statuses: []int{http.StatusOK},
			content:  `{"emotions":[{"label":"joy","confidence":0.9},{"label":"surprise","confidence":0.3}]}`,
			want:     []domain.EmotionScore{{Label: "joy", Confidence: 0.9}, {Label: "surprise", Confidence: 0.3}},
			attempts: 1,
		},
		{
			name:     "reasoning text around the object",
			statuses: []int{http.StatusOK},
			content:  "<think>the user sounds sad</think>\n{\"emotions\":[[\"sadness\",0.7]]}",
			want:     []domain.EmotionScore{{Label: "sadness", Confidence: 0.7}},
			attempts: 1,
		},
		{
			name:     "retries on 503 then succeeds",
			statuses: []int{http.StatusServiceUnavailable, http.StatusOK},
			content:  `{"emotions":"fear"}`,
			want:     []domain.EmotionScore{{Label: "fear", Confidence: 1}},
			attempts: 2,
		},
		{
			name:     "does not retry client errors",
			statuses: []int{http.StatusBadRequest},
			wantErr:  true,
			attempts: 1,
		},
		{
			name:     "gives up after retries",
			statuses: []int{http.StatusTooManyRequests},
			wantErr:  true,
			attempts: 3,
		},
		{
			name:     "no json in reply",
			statuses: []int{http.StatusOK},
			content:  "I cannot help with that",
			wantErr:  true,
			attempts: 1,
		},
		{
			name:     "confidence out of range",
			statuses: []int{http.StatusOK},
			content:  `{"emotions":[{"label":"joy","confidence":92}]}`,
			wantErr:  true,
			attempts: 1,
		},
		{
			name:     "malformed emotions",
			statuses: []int{http.StatusOK},
			content:  `{"emotions":[{"label":"joy"}]}`,
			wantErr:  true,
			attempts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			var gotRequest chatRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := int(attempts.Add(1))
				if r.URL.Path != "/api/chat" || r.Method != http.MethodPost {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				status := tt.statuses[min(n, len(tt.statuses))-1]
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				if status == http.StatusOK {
					_, _ = w.Write([]byte(chatReply(t, tt.content)))
				}
			}))
			defer srv.Close()

			got, err := testClient(srv.URL).Classify(context.Background(), "test message")
			assert.Equal(t, tt.attempts, attempts.Load())
			if tt.wantErr {
				assert.Error(t, err)
				_, isDomain := domain.KindOf(err)
				assert.False(t, isDomain, "adapter errors carry no domain kind")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			assert.Equal(t, "test-model", gotRequest.Model)
			assert.Equal(t, "json", gotRequest.Format)
			require.Len(t, gotRequest.Messages, 2)
			assert.Equal(t, systemPrompt, gotRequest.Messages[0].Content)
			assert.Equal(t, "test message", gotRequest.Messages[1].Content)
		})
	}
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	for i := 0; i < 5; i++ {
		_, err := c.Classify(context.Background(), "x")
		require.Error(t, err)
	}
	before := attempts.Load()

	_, err := c.Classify(context.Background(), "x")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, before, attempts.Load(), "open breaker short-circuits the call")
}

func TestBackoff(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"2"}}}
	assert.Equal(t, 2*time.Second, backoff(time.Millisecond, time.Minute, 0, resp))
	assert.Equal(t, time.Second, backoff(time.Millisecond, time.Second, 0, resp), "capped at max")
	assert.Equal(t, 4*time.Millisecond, backoff(time.Millisecond, time.Minute, 2, nil))
	assert.Equal(t, time.Minute, backoff(time.Second, time.Minute, 10, nil))
}

func TestCheckRetry(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{name: "ok", status: http.StatusOK, want: false},
		{name: "bad request", status: http.StatusBadRequest, want: false},
		{name: "rate limited", status: http.StatusTooManyRequests, want: true},
		{name: "server error", status: http.StatusInternalServerError, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retry, err := checkRetry(ctx, &http.Response{StatusCode: tt.status}, nil)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, retry)
		})
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	retry, err := checkRetry(cancelled, nil, assert.AnError)
	assert.False(t, retry)
	assert.ErrorIs(t, err, context.Canceled)
}
