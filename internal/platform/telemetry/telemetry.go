// Package telemetry keeps the service's Prometheus metrics in memory and
// serves them in the text exposition format at /metrics.
package telemetry

import (
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// Metric names.
const (
	HTTPRequestsTotal   = "natabridge_http_requests_total"
	HTTPRequestDuration = "natabridge_http_request_duration_seconds"
	HTTPActiveRequests  = "natabridge_http_active_requests"
	AssessmentsTotal    = "natabridge_risk_assessments_total"
	VitalAlertsTotal    = "natabridge_vital_alerts_total"
	SyncItemsTotal      = "natabridge_sync_items_total"
	DeviceMessagesTotal = "natabridge_device_messages_total"
	RulesReloadsTotal   = "natabridge_rules_reloads_total"
	DBPoolConns         = "natabridge_db_pool_connections"
)

// defaultDurationBuckets are the histogram boundaries for request latency
// in seconds.
var defaultDurationBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10,
}

// ---------------------------------------------------------------------------
// Histogram
// ---------------------------------------------------------------------------

// histogram stores non-cumulative bucket counts; cumulative counts are
// computed at export time.
type histogram struct {
	boundaries   []float64
	bucketCounts []uint64
	count        uint64
	sum          uint64 // math.Float64bits, updated with CAS
	mu           sync.Mutex
}

func newHistogram(boundaries []float64) *histogram {
	return &histogram{
		boundaries:   boundaries,
		bucketCounts: make([]uint64, len(boundaries)),
	}
}

func (h *histogram) Observe(v float64) {
	atomic.AddUint64(&h.count, 1)
	atomicAddFloat64(&h.sum, v)

	h.mu.Lock()
	defer h.mu.Unlock()
	for i, b := range h.boundaries {
		if v <= b {
			h.bucketCounts[i]++
			return
		}
	}
}

func (h *histogram) Count() uint64 { return atomic.LoadUint64(&h.count) }

func (h *histogram) Sum() float64 { return math.Float64frombits(atomic.LoadUint64(&h.sum)) }

func (h *histogram) toDTO() *dto.Histogram {
	h.mu.Lock()
	raw := make([]uint64, len(h.bucketCounts))
	copy(raw, h.bucketCounts)
	h.mu.Unlock()

	buckets := make([]*dto.Bucket, len(raw))
	var running uint64
	for i, c := range raw {
		running += c
		buckets[i] = &dto.Bucket{
			UpperBound:      proto.Float64(h.boundaries[i]),
			CumulativeCount: proto.Uint64(running),
		}
	}
	return &dto.Histogram{
		SampleCount: proto.Uint64(h.Count()),
		SampleSum:   proto.Float64(h.Sum()),
		Bucket:      buckets,
	}
}

func atomicAddFloat64(addr *uint64, delta float64) {
	for {
		old := atomic.LoadUint64(addr)
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if atomic.CompareAndSwapUint64(addr, old, next) {
			return
		}
	}
}

// ---------------------------------------------------------------------------
// Labeled series
// ---------------------------------------------------------------------------

// vec holds one metric family keyed by label values joined with \xff.
type vec struct {
	name       string
	help       string
	typ        dto.MetricType
	labelNames []string
	buckets    []float64

	mu       sync.RWMutex
	counters map[string]*float64
	hists    map[string]*histogram
}

func newVec(name, help string, typ dto.MetricType, labels ...string) *vec {
	return &vec{
		name:       name,
		help:       help,
		typ:        typ,
		labelNames: labels,
		counters:   make(map[string]*float64),
		hists:      make(map[string]*histogram),
	}
}

func seriesKey(values []string) string { return strings.Join(values, "\xff") }

func (v *vec) add(delta float64, values ...string) {
	key := seriesKey(values)
	v.mu.Lock()
	p, ok := v.counters[key]
	if !ok {
		p = new(float64)
		v.counters[key] = p
	}
	*p += delta
	v.mu.Unlock()
}

func (v *vec) set(val float64, values ...string) {
	key := seriesKey(values)
	v.mu.Lock()
	p, ok := v.counters[key]
	if !ok {
		p = new(float64)
		v.counters[key] = p
	}
	*p = val
	v.mu.Unlock()
}

func (v *vec) get(values ...string) float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if p, ok := v.counters[seriesKey(values)]; ok {
		return *p
	}
	return 0
}

func (v *vec) observe(val float64, values ...string) {
	key := seriesKey(values)
	v.mu.RLock()
	h, ok := v.hists[key]
	v.mu.RUnlock()
	if !ok {
		v.mu.Lock()
		if h, ok = v.hists[key]; !ok {
			h = newHistogram(v.buckets)
			v.hists[key] = h
		}
		v.mu.Unlock()
	}
	h.Observe(val)
}

func (v *vec) labelPairs(key string) []*dto.LabelPair {
	if len(v.labelNames) == 0 {
		return nil
	}
	values := strings.Split(key, "\xff")
	pairs := make([]*dto.LabelPair, len(v.labelNames))
	for i, n := range v.labelNames {
		val := ""
		if i < len(values) {
			val = values[i]
		}
		pairs[i] = &dto.LabelPair{Name: proto.String(n), Value: proto.String(val)}
	}
	return pairs
}

func (v *vec) family() *dto.MetricFamily {
	v.mu.RLock()
	defer v.mu.RUnlock()

	mf := &dto.MetricFamily{
		Name: proto.String(v.name),
		Help: proto.String(v.help),
		Type: v.typ.Enum(),
	}
	keys := make([]string, 0, len(v.counters)+len(v.hists))
	for k := range v.counters {
		keys = append(keys, k)
	}
	for k := range v.hists {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		m := &dto.Metric{Label: v.labelPairs(k)}
		switch v.typ {
		case dto.MetricType_COUNTER:
			m.Counter = &dto.Counter{Value: proto.Float64(*v.counters[k])}
		case dto.MetricType_GAUGE:
			m.Gauge = &dto.Gauge{Value: proto.Float64(*v.counters[k])}
		case dto.MetricType_HISTOGRAM:
			m.Histogram = v.hists[k].toDTO()
		}
		mf.Metric = append(mf.Metric, m)
	}
	return mf
}

// ---------------------------------------------------------------------------
// Provider
// ---------------------------------------------------------------------------

// PoolStats reports connection pool occupancy at scrape time.
type PoolStats interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
}

// Provider owns every metric family of the service.
type Provider struct {
	requests    *vec
	duration    *vec
	active      *vec
	assessments *vec
	alerts      *vec
	syncItems   *vec
	device      *vec
	reloads     *vec
	pool        *vec

	poolMu   sync.RWMutex
	poolStat func() PoolStats
}

func NewProvider() *Provider {
	duration := newVec(HTTPRequestDuration, "Duration of HTTP requests in seconds.", dto.MetricType_HISTOGRAM, "method", "route")
	duration.buckets = defaultDurationBuckets
	p := &Provider{
		requests:    newVec(HTTPRequestsTotal, "HTTP requests by method, route and status.", dto.MetricType_COUNTER, "method", "route", "status"),
		duration:    duration,
		active:      newVec(HTTPActiveRequests, "HTTP requests currently being served.", dto.MetricType_GAUGE),
		assessments: newVec(AssessmentsTotal, "Risk assessments by resulting level.", dto.MetricType_COUNTER, "level"),
		alerts:      newVec(VitalAlertsTotal, "Vital threshold alerts by priority.", dto.MetricType_COUNTER, "priority"),
		syncItems:   newVec(SyncItemsTotal, "Offline sync items by outcome.", dto.MetricType_COUNTER, "outcome"),
		device:      newVec(DeviceMessagesTotal, "Wearable device messages by result.", dto.MetricType_COUNTER, "result"),
		reloads:     newVec(RulesReloadsTotal, "Rule file reloads by result.", dto.MetricType_COUNTER, "result"),
		pool:        newVec(DBPoolConns, "Database pool connections by state.", dto.MetricType_GAUGE, "state"),
	}
	p.active.set(0)
	return p
}

// WatchPool makes every scrape sample the pool returned by stat.
func (p *Provider) WatchPool(stat func() PoolStats) {
	p.poolMu.Lock()
	p.poolStat = stat
	p.poolMu.Unlock()
}

func (p *Provider) ObserveAssessment(level string) { p.assessments.add(1, level) }

func (p *Provider) ObserveVitalAlert(priority string) { p.alerts.add(1, priority) }

func (p *Provider) ObserveSyncOutcome(outcome string, n int) {
	if n > 0 {
		p.syncItems.add(float64(n), outcome)
	}
}

func (p *Provider) ObserveDeviceMessage(result string) { p.device.add(1, result) }

func (p *Provider) ObserveRulesReload(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	p.reloads.add(1, result)
}

// Counter returns the current value of a counter or gauge series. It
// returns 0 for unknown names.
func (p *Provider) Counter(name string, labelValues ...string) float64 {
	for _, v := range p.all() {
		if v.name == name {
			return v.get(labelValues...)
		}
	}
	return 0
}

// RequestCount returns the number of observed latencies for method/route.
func (p *Provider) RequestCount(method, route string) uint64 {
	p.duration.mu.RLock()
	defer p.duration.mu.RUnlock()
	if h, ok := p.duration.hists[seriesKey([]string{method, route})]; ok {
		return h.Count()
	}
	return 0
}

func (p *Provider) all() []*vec {
	return []*vec{p.requests, p.duration, p.active, p.assessments, p.alerts, p.syncItems, p.device, p.reloads, p.pool}
}

// Gather samples gauges and returns every family sorted by name.
func (p *Provider) Gather() []*dto.MetricFamily {
	p.poolMu.RLock()
	stat := p.poolStat
	p.poolMu.RUnlock()
	if stat != nil {
		if s := stat(); s != nil {
			p.pool.set(float64(s.AcquiredConns()), "acquired")
			p.pool.set(float64(s.IdleConns()), "idle")
			p.pool.set(float64(s.TotalConns()), "total")
		}
	}

	families := make([]*dto.MetricFamily, 0, 9)
	for _, v := range p.all() {
		mf := v.family()
		if len(mf.Metric) == 0 {
			continue
		}
		families = append(families, mf)
	}
	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})
	return families
}

// MetricsMiddleware records request counts, latency and in-flight requests
// by route pattern.
func (p *Provider) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p.active.add(1)
			start := time.Now()

			err := next(c)

			p.active.add(-1)
			status := c.Response().Status
			if err != nil && !c.Response().Committed {
				status = http.StatusInternalServerError
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			p.requests.add(1, method, route, strconv.Itoa(status))
			p.duration.observe(time.Since(start).Seconds(), method, route)
			return err
		}
	}
}

// Handler serves the Prometheus text exposition.
func (p *Provider) Handler() echo.HandlerFunc {
	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderContentType, string(format))
		c.Response().WriteHeader(http.StatusOK)
		enc := expfmt.NewEncoder(c.Response(), format)
		for _, mf := range p.Gather() {
			if err := enc.Encode(mf); err != nil {
				return err
			}
		}
		return nil
	}
}
