package bench

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/chitose/packages/http"
	"golang.org/x/time/rate"
)

// Runner sends the same request Config.Requests times
type Runner struct {
	config  *Config
	client  *http.Client
	request http.Request
	limiter *rate.Limiter
	metrics *Metrics
}

// NewRunner creates a runner for req. The request is copied; its header map
// is only read.
func NewRunner(config *Config, client *http.Client, req *http.Request) (*Runner, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errors.New("request is nil")
	}
	if client == nil {
		client = http.NewClient()
	}

	r := &Runner{
		config:  config,
		client:  client,
		request: *req,
		metrics: NewMetrics(),
	}
	if config.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(config.Rate), 1)
	}
	return r, nil
}

// Run performs every call and returns the summary. Cancelling ctx stops
// scheduling new calls; calls already sent are still recorded.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	jobs := make(chan struct{})
	var wg sync.WaitGroup

	r.metrics.Start()
	for i := 0; i < r.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				r.once(ctx)
			}
		}()
	}

	var runErr error
schedule:
	for i := 0; i < r.config.Requests; i++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				runErr = err
				break
			}
		}
		select {
		case jobs <- struct{}{}:
		case <-ctx.Done():
			runErr = ctx.Err()
			break schedule
		}
	}
	close(jobs)
	wg.Wait()
	r.metrics.Stop()

	return r.metrics.GetSummary(), runErr
}

func (r *Runner) once(ctx context.Context) {
	req := r.request
	start := time.Now()
	resp, err := r.client.Send(ctx, &req)
	elapsed := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	r.metrics.Record(elapsed, status, err)
}
