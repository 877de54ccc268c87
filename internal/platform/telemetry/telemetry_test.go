package telemetry

import (
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

type fakePool struct{ acquired, idle, total int32 }

func (f fakePool) AcquiredConns() int32 { return f.acquired }
func (f fakePool) IdleConns() int32     { return f.idle }
func (f fakePool) TotalConns() int32    { return f.total }

func scrape(t *testing.T, p *Provider) map[string]*dto.MetricFamily {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := p.Handler()(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("expected text/plain content type, got %q", ct)
	}
	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(strings.NewReader(rec.Body.String()))
	if err != nil {
		t.Fatalf("output is not valid exposition format: %v\n%s", err, rec.Body.String())
	}
	return families
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

func TestMetricsMiddleware_CountsByRoute(t *testing.T) {
	p := NewProvider()
	e := echo.New()
	e.Use(p.MetricsMiddleware())
	e.GET("/api/mothers/:id", func(c echo.Context) error {
		if c.Param("id") == "missing" {
			return echo.NewHTTPError(http.StatusNotFound, "mother not found")
		}
		return c.String(http.StatusOK, "ok")
	})

	for _, id := range []string{"a", "b", "missing"} {
		req := httptest.NewRequest(http.MethodGet, "/api/mothers/"+id, nil)
		e.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := p.Counter(HTTPRequestsTotal, "GET", "/api/mothers/:id", "200"); got != 2 {
		t.Errorf("expected 2 successful requests, got %v", got)
	}
	if got := p.Counter(HTTPRequestsTotal, "GET", "/api/mothers/:id", "404"); got != 1 {
		t.Errorf("expected 1 not-found request, got %v", got)
	}
	if got := p.RequestCount("GET", "/api/mothers/:id"); got != 3 {
		t.Errorf("expected 3 latency observations, got %d", got)
	}
	if got := p.Counter(HTTPActiveRequests); got != 0 {
		t.Errorf("expected no active requests, got %v", got)
	}
}

func TestDomainCounters(t *testing.T) {
	p := NewProvider()
	p.ObserveAssessment("emergency")
	p.ObserveAssessment("emergency")
	p.ObserveAssessment("normal")
	p.ObserveVitalAlert("critical")
	p.ObserveSyncOutcome("success", 3)
	p.ObserveSyncOutcome("failed", 0)
	p.ObserveDeviceMessage("rejected")
	p.ObserveRulesReload(false)

	checks := []struct {
		name   string
		labels []string
		want   float64
	}{
		{AssessmentsTotal, []string{"emergency"}, 2},
		{AssessmentsTotal, []string{"normal"}, 1},
		{AssessmentsTotal, []string{"caution"}, 0},
		{VitalAlertsTotal, []string{"critical"}, 1},
		{SyncItemsTotal, []string{"success"}, 3},
		{SyncItemsTotal, []string{"failed"}, 0},
		{DeviceMessagesTotal, []string{"rejected"}, 1},
		{RulesReloadsTotal, []string{"error"}, 1},
		{"unknown_metric", nil, 0},
	}
	for _, c := range checks {
		if got := p.Counter(c.name, c.labels...); got != c.want {
			t.Errorf("%s%v: expected %v, got %v", c.name, c.labels, c.want, got)
		}
	}
}

func TestHandler_ExpositionFormat(t *testing.T) {
	p := NewProvider()
	p.ObserveAssessment("high_risk")
	p.ObserveVitalAlert("high")
	p.WatchPool(func() PoolStats { return fakePool{acquired: 2, idle: 3, total: 5} })

	e := echo.New()
	e.Use(p.MetricsMiddleware())
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	families := scrape(t, p)

	for _, name := range []string{HTTPRequestsTotal, HTTPRequestDuration, HTTPActiveRequests, AssessmentsTotal, VitalAlertsTotal, DBPoolConns} {
		if _, ok := families[name]; !ok {
			t.Errorf("expected family %s in output", name)
		}
	}
	if _, ok := families[SyncItemsTotal]; ok {
		t.Error("expected empty counter family to be omitted")
	}

	assess := families[AssessmentsTotal]
	if assess.GetType() != dto.MetricType_COUNTER {
		t.Errorf("expected counter, got %s", assess.GetType())
	}
	if m := assess.GetMetric()[0]; labelValue(m, "level") != "high_risk" || m.GetCounter().GetValue() != 1 {
		t.Errorf("unexpected assessment series %v", m)
	}

	hist := families[HTTPRequestDuration].GetMetric()[0].GetHistogram()
	if hist.GetSampleCount() != 1 {
		t.Errorf("expected 1 sample, got %d", hist.GetSampleCount())
	}
	if len(hist.GetBucket()) != len(defaultDurationBuckets) {
		t.Errorf("expected %d buckets, got %d", len(defaultDurationBuckets), len(hist.GetBucket()))
	}

	pool := map[string]float64{}
	for _, m := range families[DBPoolConns].GetMetric() {
		pool[labelValue(m, "state")] = m.GetGauge().GetValue()
	}
	if pool["acquired"] != 2 || pool["idle"] != 3 || pool["total"] != 5 {
		t.Errorf("unexpected pool gauges %v", pool)
	}
}

func TestHistogram_CumulativeBuckets(t *testing.T) {
	h := newHistogram([]float64{0.1, 1, 10})
	for _, v := range []float64{0.05, 0.5, 0.5, 5, 50} {
		h.Observe(v)
	}
	d := h.toDTO()
	want := []uint64{1, 3, 4}
	for i, b := range d.GetBucket() {
		if b.GetCumulativeCount() != want[i] {
			t.Errorf("bucket %v: expected %d, got %d", b.GetUpperBound(), want[i], b.GetCumulativeCount())
		}
	}
	if d.GetSampleCount() != 5 {
		t.Errorf("expected 5 samples, got %d", d.GetSampleCount())
	}
	if math.Abs(d.GetSampleSum()-56.05) > 1e-9 {
		t.Errorf("expected sum 56.05, got %v", d.GetSampleSum())
	}
}

func TestProvider_ConcurrentSafe(t *testing.T) {
	p := NewProvider()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.ObserveAssessment("caution")
			}
		}()
		go func() {
			defer wg.Done()
			_ = p.Gather()
		}()
	}
	wg.Wait()
	if got := p.Counter(AssessmentsTotal, "caution"); got != 2000 {
		t.Errorf("expected 2000, got %v", got)
	}
}

func TestMetricsMiddleware_PropagatesError(t *testing.T) {
	p := NewProvider()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())
	want := errors.New("boom")
	if err := p.MetricsMiddleware()(func(echo.Context) error { return want })(c); err != want {
		t.Errorf("expected handler error, got %v", err)
	}
	if got := p.Counter(HTTPRequestsTotal, "POST", "unmatched", "500"); got != 1 {
		t.Errorf("expected unmatched route to be counted, got %v", got)
	}
}
