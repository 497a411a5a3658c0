package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sunset_reminder_bot/internal/domain/reminder"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counts(t *testing.T) {
	r := NewRecorder(prom.NewRegistry())

	r.IncDispatch(reminder.DispatchSunsetWarning, ResultSent)
	r.IncDispatch(reminder.DispatchSunsetWarning, ResultSent)
	r.IncDispatch(reminder.DispatchRent, ResultFailed)
	r.IncMissedWindow()
	r.SetState(reminder.StateDispatched)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.dispatches.WithLabelValues(string(reminder.DispatchSunsetWarning), ResultSent)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.dispatches.WithLabelValues(string(reminder.DispatchRent), ResultFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.missed))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.loopState.WithLabelValues(string(reminder.StateDispatched))))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.loopState.WithLabelValues(string(reminder.StatePastSunset))))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	r.IncDispatch(reminder.DispatchRent, ResultSent)
	r.IncTick()
	r.SetState(reminder.StatePastSunset)
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder(nil)
	r.IncTick()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "sunset_reminder_ticks_total"))
}
