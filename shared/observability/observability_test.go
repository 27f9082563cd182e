package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetupMetricsServesRecordedCounters(t *testing.T) {
	m, err := SetupMetrics("chat-sentiment-test", "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	counter, err := otel.Meter("test").Int64Counter("observability_test_events")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	srv := httptest.NewServer(m.Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "observability_test_events_total")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestSetupTracingDisabled(t *testing.T) {
	shutdown, err := SetupTracing("chat-sentiment-test", "test", false)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
