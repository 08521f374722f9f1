package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsExposure(t *testing.T) {
	ObserveEpoch(time.Now().Add(-20*time.Millisecond), 1.5)
	BestLoss.Set(1.5)
	Checkpoints.Inc()
	CheckpointErrors.Inc()
	IncPrediction(3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, m := range []string{
		"lightcurve_epochs_total",
		"lightcurve_loss 1.5",
		"lightcurve_best_loss",
		"lightcurve_checkpoints_total",
		"lightcurve_checkpoint_errors_total",
		`lightcurve_predictions_total{class="3"}`,
		"lightcurve_epoch_duration_seconds",
	} {
		assert.Contains(t, body, m)
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStartServerDisabled(t *testing.T) {
	assert.Nil(t, StartServer(""))
}
