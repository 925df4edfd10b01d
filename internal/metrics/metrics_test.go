package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Login("password", OutcomeSuccess)
	m.Login("password", OutcomeSuccess)
	m.Login("google", OutcomeFailure)
	m.TokenIssued("K1")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginAttemptsTotal.WithLabelValues("password", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginAttemptsTotal.WithLabelValues("google", OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokensIssuedTotal.WithLabelValues("K1")))
}

func TestHandlerExposesKeyGauge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	m.RegisterKeyGauge(func() int { return 2 })

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/metrics", gin.WrapH(m.Handler()))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "identity_signing_keys_published 2")
	assert.Contains(t, body, `identity_http_requests_total{method="GET",path="/ping",status="204"} 1`)
}
