// Package content holds the static narrative of the dashboard: home page
// copy, label-standard definitions, example galleries, competitor research
// and the image registry. The prose lives in YAML files embedded into the
// binary so copy edits never touch page-building code.
package content
