package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("WARN", false, &buf)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Str("component", "test").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"component":"test"`)
	assert.Contains(t, out, `"level":"warn"`)

	logger, err = NewLogger("", false, &buf)
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	_, err = NewLogger("loud", false, &buf)
	assert.Error(t, err)
}

func TestHandlerExposesRecordedMetrics(t *testing.T) {
	RecordAlerts(2)
	RecordRuleFallback()
	RecordCycle("cobuy", "success", 1.5, 1_700_000_000)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, name := range []string{"cobuy_alerts", "rule", "cycle"} {
		assert.True(t, strings.Contains(body, name), "missing %s in metrics output", name)
	}
}
