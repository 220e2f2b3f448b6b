// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Connected subscriber count and broadcast message rates
//   - Acquisition outcomes per data kind and winning tier
//   - Snapshot store write failures
//   - Replay playback progress
package metrics
