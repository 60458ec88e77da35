// Package bench repeats one request many times and reports latency.
//
// Every iteration is an independent call through the http package, so a run
// also exercises per-call isolation under concurrency. Latencies go into an
// HDR histogram; an optional token bucket caps the request rate.
package bench
