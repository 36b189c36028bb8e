package ollama

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
	maxBackoff        = 10 * time.Second
)

// checkRetry retries transport errors, 429 and 5xx responses. Cancelled or
// expired contexts are never retried.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	if resp == nil {
		return false, nil
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return true, nil
	}
	return false, nil
}

// backoff doubles the wait per attempt and honours Retry-After when the
// server sends one.
func backoff(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
	if wait := parseRetryAfter(resp); wait > 0 {
		if wait > max {
			return max
		}
		return wait
	}

	wait := min * time.Duration(1<<attemptNum)
	if wait <= 0 || wait > max {
		return max
	}
	return wait
}

func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if when, err := http.ParseTime(retryAfter); err == nil {
		until := time.Until(when)
		if until > 0 {
			return until
		}
	}

	return 0
}

// leveledLogger routes retryablehttp's logging into zap.
type leveledLogger struct {
	logger *zap.Logger
}

var _ retryablehttp.LeveledLogger = leveledLogger{}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.logger.Error(msg, fields(kv)...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.logger.Warn(msg, fields(kv)...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.logger.Debug(msg, fields(kv)...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.logger.Debug(msg, fields(kv)...) }

func fields(kv []interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = "field" + strconv.Itoa(i/2)
		}
		out = append(out, zap.Any(key, kv[i+1]))
	}
	return out
}

func newRetryClient(timeout time.Duration, maxRetries int, baseBackoff time.Duration, logger *zap.Logger) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = maxRetries
	rc.RetryWaitMin = baseBackoff
	rc.RetryWaitMax = maxBackoff
	rc.CheckRetry = checkRetry
	rc.Backoff = backoff
	rc.Logger = leveledLogger{logger: logger}

	client := rc.StandardClient()
	client.Timeout = timeout
	return client
}
