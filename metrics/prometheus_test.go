package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_UsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Middleware())
	r.HandleFunc("/api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}).Methods(http.MethodGet)

	before := testutil.ToFloat64(totalErrors.WithLabelValues(http.MethodGet, "/api/users/{id}", "500"))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users/17", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(totalErrors.WithLabelValues(http.MethodGet, "/api/users/{id}", "500")))
}

func TestObserveDirectoryFetch(t *testing.T) {
	okBefore := testutil.ToFloat64(directoryFetches.WithLabelValues("list", "ok"))
	errBefore := testutil.ToFloat64(directoryFetches.WithLabelValues("list", "error"))

	ObserveDirectoryFetch("list", nil, time.Millisecond)
	ObserveDirectoryFetch("list", errors.New("down"), time.Millisecond)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(directoryFetches.WithLabelValues("list", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(directoryFetches.WithLabelValues("list", "error")))
}

func TestObserveStoreMutation(t *testing.T) {
	ObserveStoreMutation("add", 11)

	assert.Equal(t, float64(11), testutil.ToFloat64(storeUsers))
}
