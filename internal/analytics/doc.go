// Package analytics turns loaded exports into the numbers each page shows.
//
// Everything here is elementary: value counts, ratios and per-tier series.
// Functions are pure and take dataset types, so pages and exports compute
// identical figures from the same cached load.
package analytics
