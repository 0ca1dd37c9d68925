// Package charts renders the dashboard charts as standalone SVG documents
// with go-chart.
//
// Each renderer takes a spec struct and returns a Chart whose SVG field can
// be embedded directly in an html/template page. Text is measured with the
// font installed by SetupFont, which should carry CJK glyphs, and escaped
// before it reaches the document. Colour scales are blended in Lab space
// with go-colorful.
package charts
