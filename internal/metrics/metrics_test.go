package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordApply(t *testing.T) {
	before := testutil.ToFloat64(applications.WithLabelValues(OutcomeApplied))

	RecordApply(OutcomeApplied)
	RecordApply(OutcomeApplied)

	after := testutil.ToFloat64(applications.WithLabelValues(OutcomeApplied))
	assert.Equal(t, before+2, after)
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/accounts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/accounts/{id}", "404"))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/abc", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	after := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/accounts/{id}", "404"))
	assert.Equal(t, before+1, after)
}

func TestHandler_ExposesCollectors(t *testing.T) {
	RecordReseed()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	res := rec.Result()
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, strings.Contains(string(body), "jobmarket_catalog_reseeds_total"))
}
