package cli

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"powerpulse/internal/analytics"
	"powerpulse/internal/config"
	"powerpulse/internal/log"
	"powerpulse/internal/metrics"
	"powerpulse/internal/notify"
)

func TestSetupLogger(t *testing.T) {
	if _, err := SetupLogger("debug"); err != nil {
		t.Fatalf("SetupLogger(debug) error = %v", err)
	}
	if _, err := SetupLogger("loud"); err == nil {
		t.Error("SetupLogger(loud) should fail")
	}
}

func TestNewPublisher(t *testing.T) {
	cfg := config.Defaults()

	pub, err := NewPublisher(cfg, log.Discard())
	if err != nil {
		t.Fatalf("NewPublisher(none) error = %v", err)
	}
	if pub.Backend() != notify.BackendNone {
		t.Errorf("Backend() = %q, want %q", pub.Backend(), notify.BackendNone)
	}

	cfg.NotifyBackend = "carrier-pigeon"
	if _, err := NewPublisher(cfg, log.Discard()); err == nil {
		t.Error("unknown backend should fail")
	}

	cfg.NotifyBackend = notify.BackendMQTT
	cfg.MQTTBroker = ""
	if _, err := NewPublisher(cfg, log.Discard()); err == nil {
		t.Error("MQTT without a broker should fail")
	}
}

func TestNewReportCache(t *testing.T) {
	cfg := config.Defaults()

	m := metrics.New()
	reports, stop := NewReportCache(cfg, m, log.Discard())
	reports.Set(3, analytics.Report{Month: 3})
	if r, ok := reports.Get(3); !ok || r.Month != 3 {
		t.Errorf("Get(3) = %v, %v", r, ok)
	}
	stop()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `powerpulse_cache_hits_total{cache="reports"} 1`) {
		t.Errorf("report cache counters not exported:\n%s", rec.Body.String())
	}

	cfg.ReportCacheTTL = time.Minute
	_, stop = NewReportCache(cfg, nil, log.Discard())
	stop()
}
