// Package web renders report pages as HTML with html/template and serves
// the embedded stylesheet and live-reload script.
package web
