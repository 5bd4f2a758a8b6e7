// Package resilience guards navkit's calls to unreliable collaborators.
//
//   - Breaker stops rebuilding a sitemap whose source keeps failing: failed
//     builds are never cached, so without it every request would retry the
//     builder. After MaxFailures consecutive failures the breaker opens and
//     calls fail fast with ErrCircuitOpen until ResetTimeout passes; one probe
//     call then decides whether it closes again.
//
//   - Retry re-runs an operation with backoff, used for publishing release
//     broadcasts to Redis.
package resilience
