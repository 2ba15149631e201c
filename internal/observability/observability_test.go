package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tech-insights/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
	assert.Equal(t, "WARN", parseLogLevel("warning").String())
	assert.Equal(t, "ERROR", parseLogLevel("ERROR").String())
	assert.Equal(t, "INFO", parseLogLevel("nonsense").String())
}

func TestLogger_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LoggerConfig{Level: "info", Format: "json"})

	ctx := WithRequestID(context.Background(), "req-123")
	logger.InfoContext(ctx, "hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, "hello", entry["msg"])
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LoggerConfig{Level: "debug", Format: "text"}).With("component", "test")

	logger.Debug("visible")

	assert.Contains(t, buf.String(), "msg=visible")
	assert.Contains(t, buf.String(), "component=test")
}

func TestGetRequestID_Missing(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestTracing_Disabled(t *testing.T) {
	tr, err := NewTracing(config.TelemetryConfig{TracingEnabled: false}, &bytes.Buffer{})
	require.NoError(t, err)

	_, span := tr.Tracer().Start(context.Background(), "noop")
	span.End()
	assert.False(t, span.SpanContext().IsValid())
	assert.NoError(t, tr.Shutdown(context.Background()))
}

func TestTracing_EnabledExportsOnShutdown(t *testing.T) {
	var buf bytes.Buffer
	tr, err := NewTracing(config.TelemetryConfig{TracingEnabled: true, SampleRatio: 1}, &buf)
	require.NoError(t, err)

	_, span := tr.Tracer().Start(context.Background(), "load-dataset")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, tr.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "load-dataset")
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RequestsTotal.WithLabelValues("GET", "/", "200").Inc()
	m.DatasetRows.WithLabelValues("sales").Set(42)
	m.RestockOrders.Inc()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `tech_insights_http_requests_total{method="GET",route="/",status="200"} 1`))
	assert.Contains(t, body, `tech_insights_dataset_rows{dataset="sales"} 42`)
	assert.Contains(t, body, "tech_insights_restock_orders_total 1")
}
