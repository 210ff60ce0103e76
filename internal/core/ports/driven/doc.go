// Package driven defines the capabilities the engine consumes: the remote
// endpoint, the record codec, cursor persistence, pass history, local
// snapshots and configuration. Adapters implement these interfaces; core
// services depend only on them.
package driven
