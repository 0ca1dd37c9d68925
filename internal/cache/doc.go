// Package cache memoizes parsed CSV exports keyed by their resolved path.
//
// Entries are validated against the file's size and modification time on
// every lookup, expire after a TTL and can be dropped explicitly by the
// data directory watcher.
package cache
