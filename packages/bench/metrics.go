package bench

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/abdul-hamid-achik/chitose/packages/http"
)

// Histogram range: 1us to 60s, 3 significant digits
const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Metrics collects results from concurrent calls
type Metrics struct {
	mu sync.Mutex

	totalRequests   atomic.Int64
	successRequests atomic.Int64
	errorRequests   atomic.Int64

	histogram *hdrhistogram.Histogram
	statuses  map[int]int64
	errors    map[string]int64

	startTime time.Time
	endTime   time.Time
}

// NewMetrics creates a new Metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
		statuses:  make(map[int]int64),
		errors:    make(map[string]int64),
	}
}

// Start marks the beginning of the run
func (m *Metrics) Start() {
	m.startTime = time.Now()
}

// Stop marks the end of the run
func (m *Metrics) Stop() {
	m.endTime = time.Now()
}

// Record records one call. status is ignored when err is set.
func (m *Metrics) Record(duration time.Duration, status int, err error) {
	m.totalRequests.Add(1)
	if err != nil {
		m.errorRequests.Add(1)
	} else {
		m.successRequests.Add(1)
	}

	latencyUs := duration.Microseconds()
	if latencyUs < minLatencyUs {
		latencyUs = minLatencyUs
	}
	if latencyUs > maxLatencyUs {
		latencyUs = maxLatencyUs
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.histogram.RecordValue(latencyUs)
	if err != nil {
		m.errors[errorLabel(err)]++
	} else {
		m.statuses[status]++
	}
}

func errorLabel(err error) string {
	if kind := http.KindOf(err); kind != 0 {
		return kind.String()
	}
	return "Other"
}

// Summary is the final result of a run
type Summary struct {
	Duration      time.Duration
	TotalRequests int64
	SuccessCount  int64
	ErrorCount    int64

	RPS         float64
	SuccessRate float64
	ErrorRate   float64

	P50    time.Duration
	P90    time.Duration
	P99    time.Duration
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	StdDev time.Duration

	StatusCodes map[int]int64
	Errors      map[string]int64
}

// GetSummary returns the metrics summary
func (m *Metrics) GetSummary() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := m.endTime.Sub(m.startTime)
	if m.endTime.IsZero() {
		duration = time.Since(m.startTime)
	}

	total := m.totalRequests.Load()
	success := m.successRequests.Load()
	errs := m.errorRequests.Load()

	rps := float64(0)
	if duration.Seconds() > 0 {
		rps = float64(total) / duration.Seconds()
	}

	successRate := float64(0)
	errorRate := float64(0)
	if total > 0 {
		successRate = float64(success) / float64(total)
		errorRate = float64(errs) / float64(total)
	}

	statuses := make(map[int]int64, len(m.statuses))
	for k, v := range m.statuses {
		statuses[k] = v
	}
	errorKinds := make(map[string]int64, len(m.errors))
	for k, v := range m.errors {
		errorKinds[k] = v
	}

	return &Summary{
		Duration:      duration,
		TotalRequests: total,
		SuccessCount:  success,
		ErrorCount:    errs,
		RPS:           rps,
		SuccessRate:   successRate,
		ErrorRate:     errorRate,
		P50:           us(m.histogram.ValueAtQuantile(50)),
		P90:           us(m.histogram.ValueAtQuantile(90)),
		P99:           us(m.histogram.ValueAtQuantile(99)),
		Min:           us(m.histogram.Min()),
		Max:           us(m.histogram.Max()),
		Mean:          us(int64(m.histogram.Mean())),
		StdDev:        us(int64(m.histogram.StdDev())),
		StatusCodes:   statuses,
		Errors:        errorKinds,
	}
}

func us(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}
