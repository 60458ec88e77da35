package bench

import (
	"errors"
	"fmt"
)

const (
	// DefaultRequests is the number of calls made when none is configured
	DefaultRequests = 100
	// DefaultConcurrency is the number of calls in flight when none is configured
	DefaultConcurrency = 10
	// MaxConcurrency caps in-flight calls
	MaxConcurrency = 1000
)

// Config controls a run
type Config struct {
	Requests    int
	Concurrency int
	// Rate is the target calls per second; 0 means unlimited
	Rate float64
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Requests:    DefaultRequests,
		Concurrency: DefaultConcurrency,
	}
}

// Validate checks the config
func (c *Config) Validate() error {
	var errs []error
	if c.Requests < 1 {
		errs = append(errs, fmt.Errorf("requests must be at least 1, got %d", c.Requests))
	}
	if c.Concurrency < 1 || c.Concurrency > MaxConcurrency {
		errs = append(errs, fmt.Errorf("concurrency must be between 1 and %d, got %d", MaxConcurrency, c.Concurrency))
	}
	if c.Rate < 0 {
		errs = append(errs, fmt.Errorf("rate must not be negative, got %g", c.Rate))
	}
	return errors.Join(errs...)
}
