package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordSignIn(t *testing.T) {
	m := New()

	m.RecordSignIn(OutcomeSuccess)
	m.RecordSignIn(OutcomeSuccess)
	m.RecordSignIn(OutcomeInvalidPassword)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.signIns.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.signIns.WithLabelValues(OutcomeInvalidPassword)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.signIns.WithLabelValues(OutcomeUserNotFound)))
}

func TestMetrics_Instrument(t *testing.T) {
	m := New()

	cases := map[string]struct {
		handler        http.HandlerFunc
		expectedStatus string
	}{
		"should record explicit status": {
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			expectedStatus: "401",
		},
		"should record implicit 200": {
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("ok"))
			},
			expectedStatus: "200",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			route := "route-" + tc.expectedStatus
			h := m.Instrument(route, tc.handler)
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

			assert.Equal(t, 1.0, testutil.ToFloat64(m.requestTotal.WithLabelValues(http.MethodGet, route, tc.expectedStatus)))
		})
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordSignIn(OutcomeUserNotFound)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `user_session_api_sign_in_attempts_total{outcome="user_not_found"} 1`)
}
