package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type fakeProbe struct{ connected bool }

func (p *fakeProbe) IsConnected() bool { return p.connected }

func TestHealthChecker_Basic(t *testing.T) {
	hc := NewHealthChecker("svc", "v1")
	hc.AddCheck("ok", func() CheckResult { return CheckResult{Status: "healthy"} })
	status := hc.CheckHealth()
	if status.Status != "healthy" {
		t.Fatalf("expected healthy")
	}
}

func TestHealthChecker_DegradedWins(t *testing.T) {
	hc := NewHealthChecker("svc", "v1")
	hc.AddCheck("ok", func() CheckResult { return CheckResult{Status: StatusHealthy} })
	hc.AddCheck("meh", func() CheckResult { return CheckResult{Status: StatusDegraded} })
	if hc.CheckHealth().Status != StatusDegraded {
		t.Fatalf("expected degraded overall status")
	}
}

func TestHealthHandlerUnhealthy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hc := NewHealthChecker("svc", "v1")
	hc.AddCheck("bad", func() CheckResult { return CheckResult{Status: StatusUnhealthy} })

	r := gin.New()
	r.GET("/healthz", hc.Handler())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/healthz", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestToolServerHealthCheck(t *testing.T) {
	if res := ToolServerHealthCheck(nil)(); res.Status != StatusDegraded {
		t.Fatalf("expected degraded for nil probe, got %q", res.Status)
	}
	if res := ToolServerHealthCheck(&fakeProbe{connected: false})(); res.Status != StatusDegraded {
		t.Fatalf("expected degraded when disconnected, got %q", res.Status)
	}
	if res := ToolServerHealthCheck(&fakeProbe{connected: true})(); res.Status != StatusHealthy {
		t.Fatalf("expected healthy when connected, got %q", res.Status)
	}
}

func TestConfigurationHealthCheck(t *testing.T) {
	res := ConfigurationHealthCheck(map[string]string{"LLM_API_KEY": ""})()
	if res.Status != "unhealthy" {
		t.Fatalf("expected unhealthy for missing config, got %q", res.Status)
	}
	res = ConfigurationHealthCheck(map[string]string{"LLM_API_KEY": "set"})()
	if res.Status != "healthy" {
		t.Fatalf("expected healthy, got %q", res.Status)
	}
}
