package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveLookup(t *testing.T) {
	before := testutil.ToFloat64(LookupsTotal.WithLabelValues("not_found"))
	ObserveLookup("not_found", time.Now())
	assert.Equal(t, before+1, testutil.ToFloat64(LookupsTotal.WithLabelValues("not_found")))
}

func TestObserveTransport(t *testing.T) {
	okBefore := testutil.ToFloat64(TransportRequestsTotal.WithLabelValues("search", "ok"))
	errBefore := testutil.ToFloat64(TransportRequestsTotal.WithLabelValues("get", "error"))

	ObserveTransport("search", nil)
	ObserveTransport("get", errors.New("refused"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(TransportRequestsTotal.WithLabelValues("search", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(TransportRequestsTotal.WithLabelValues("get", "error")))
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/meals/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/meals/:id", "4xx"))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/meals/abc", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/meals/:id", "4xx")))
}
