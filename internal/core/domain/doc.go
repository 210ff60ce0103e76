// Package domain contains the core types for the reconciliation engine:
// records, cursors, push results, truncation accounting and the transport
// error taxonomy. The package is dependency-free; everything here is pure
// data and pure functions so that services can be tested without adapters.
package domain
