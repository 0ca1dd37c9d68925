// Package watcher reloads the dashboard when exports or images change on
// disk. It is enabled by data.watch in the configuration.
package watcher
