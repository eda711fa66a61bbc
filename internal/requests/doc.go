// Package requests issues named asynchronous requests to the dashboard backend and
// guarantees that subscribers never see data older than what they already saw.
// It is structured into small files by concern:
//
//   - manager.go: Manager, Request, completion handling, introspection.
//   - config.go: Config and package defaults; NewWithConfig applies defaults.
//   - channel.go: per-channel sequence counters and delivery lock.
//   - call.go: Call, the handle returned for each issued request.
//   - transport.go: the Transport collaborator interface.
//   - endpoints.go: convenience wrappers for the backend's endpoints.
//   - postprocess.go: payload transforms (ExtractPath).
//   - events.go: lifecycle events and EventPublisher.
//   - errors.go: error types and helpers.
//   - metrics.go: Prometheus instrumentation.
//
// Every request on a channel is numbered. A completion is applied only when its
// number still equals the channel's sent count when it completes; anything else
// is stale and dropped without notification. Outdated requests are never aborted.
package requests
