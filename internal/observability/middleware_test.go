package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestRequestMiddlewareLogsAndCounts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	RegisterMetrics()

	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestLogger(zerolog.New(&buf)))
	r.Use(RequestMetricsMiddleware("mw-test"))
	r.GET("/v1/slots/:slot", func(c *gin.Context) {
		c.String(http.StatusNotFound, "missing")
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("mw-test", "GET", "/v1/slots/:slot", "404"))
	req := httptest.NewRequest(http.MethodGet, "/v1/slots/alpha", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	after := testutil.ToFloat64(httpRequests.WithLabelValues("mw-test", "GET", "/v1/slots/:slot", "404"))
	if after-before != 1 {
		t.Fatalf("expected one request counted under the route pattern, got %v", after-before)
	}
	line := buf.String()
	for _, want := range []string{`"level":"warn"`, `"slot":"alpha"`, `"path":"/v1/slots/:slot"`, `"status":404`} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line missing %s: %s", want, line)
		}
	}
}

func TestRequestMiddlewareUnmatchedPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	RegisterMetrics()

	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestLogger(zerolog.New(&buf)))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	if !strings.Contains(buf.String(), `"path":"/nowhere"`) {
		t.Fatalf("expected raw path for unmatched route: %s", buf.String())
	}
}
