// Package report builds the dashboard pages. A Page is an ordered list of
// blocks (headings, cards, tables, findings with charts, image galleries,
// downloads) that the HTML templates and the JSON API both render.
//
// Builders take already-loaded rows; they never touch the filesystem except
// through the ImageChecker handed to NewBuilder.
package report
