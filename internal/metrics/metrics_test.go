package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCatalogReload(t *testing.T) {
	okBefore := testutil.ToFloat64(CatalogReloadsTotal.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(CatalogReloadsTotal.WithLabelValues("error"))

	RecordCatalogReload(42, nil)
	assert.Equal(t, 42.0, testutil.ToFloat64(CatalogTracks))
	assert.Equal(t, okBefore+1, testutil.ToFloat64(CatalogReloadsTotal.WithLabelValues("ok")))

	RecordCatalogReload(7, errors.New("boom"))
	assert.Equal(t, 42.0, testutil.ToFloat64(CatalogTracks), "failed reload keeps the gauge")
	assert.Equal(t, errBefore+1, testutil.ToFloat64(CatalogReloadsTotal.WithLabelValues("error")))
}

func TestRecordRecommendation(t *testing.T) {
	tests := []struct {
		name    string
		outcome string
		size    int
	}{
		{name: "served", outcome: "ok", size: 10},
		{name: "fallback", outcome: "fallback", size: 3},
		{name: "rejected", outcome: "invalid_input", size: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(RecommendationsTotal.WithLabelValues(tt.outcome))
			RecordRecommendation(tt.outcome, tt.size, time.Millisecond)
			assert.Equal(t, before+1, testutil.ToFloat64(RecommendationsTotal.WithLabelValues(tt.outcome)))
		})
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/recommend-songs", "200"))
	RecordAPIRequest("POST", "/api/recommend-songs", 200, 5*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/recommend-songs", "200")))
}
