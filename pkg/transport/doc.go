// Package transport delivers telemetry items to the collector endpoint.
//
// Each item is encoded as JSON and sent as its own HTTP POST with
// Content-Type and Accept set to application/json, the X-Api-Key header when
// an API key is configured, and any static extra headers. Bodies may be
// compressed with gzip or zstd.
//
// # Delivery Policy
//
//   - A 2xx response is success. Anything else is a failure.
//   - Each attempt waits at most min(timeout, 5s) for response headers and
//     timeout + 1s overall.
//   - A failed attempt is retried once after a fixed delay. Serialization and
//     configuration errors are not retried.
//   - Consecutive failed sends open a circuit breaker, after which sends fail
//     fast with ErrCircuitOpen until the recovery time elapses.
//
// Send never panics and never blocks beyond these bounds. Callers decide what
// to do with the returned error; the collector logs it and drops the item.
package transport
