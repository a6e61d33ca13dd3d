// Package resilience groups the fault-handling helpers used around upstream
// calls: circuitbreaker opens on a sustained failure ratio, and retry backs
// off on transient errors. Adapters nest them as retry around breaker; a
// call the open breaker rejects is not retryable and ends the loop.
package resilience
