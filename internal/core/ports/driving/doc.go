// Package driving defines the surface the engine exposes to callers:
// running a single reconciliation pass and operating the background poller.
package driving
