// Package services implements the reconciliation engine: paginated
// fetching, batched pushing with per-item failure isolation, the sync
// manager that runs one pass, and the background poller. Services depend
// only on the domain types and the driven ports, so every piece is
// testable with in-memory fakes.
package services
