// Package dataset reads the CSV exports behind the dashboard.
//
// Exports are produced by analysts in spreadsheet tools and saved as UTF-8,
// usually with a byte order mark. ParseCSV accepts both, tolerates short
// rows and trims header names. Each export has a typed loader that checks
// the columns it needs and fails with ErrMissingColumn otherwise:
//
//	tiers, err := dataset.LoadUsageTiers(paths.File(config.SourceUsage))
//	if errors.Is(err, dataset.ErrMissingColumn) {
//		// schema mismatch
//	}
//
// Numeric cells keep their exported text next to the parsed value so
// tables can show exactly what the analysts exported.
package dataset
