// Package websocket pushes live-reload notices to open dashboard pages.
//
// A Hub owns the connected clients; each Client runs a read pump and a
// write pump over a gorilla/websocket connection. When the data watcher
// sees an export change, the hub broadcasts a data_update message naming
// the affected pages.
package websocket
