// Package exporter writes the dashboard's tables out of the browser: CSV
// downloads with a UTF-8 BOM and the xlsx workbook.
package exporter
