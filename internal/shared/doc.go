// Package shared holds code used across packages that belongs to no single
// layer. Today that is testutil: export fixtures and a buffered slog handler
// for asserting on log output.
package shared
