// Package services sits between the HTTP handlers and the data layer.
//
// ReportService loads the exports through the dataset cache, builds pages
// with the report package and produces the CSV and workbook downloads.
// A page whose data cannot be loaded is still returned, with its body
// replaced by the load error, together with a *PageError:
//
//	page, err := svc.Page(ctx, report.SlugFrequency)
//	var pageErr *services.PageError
//	if errors.As(err, &pageErr) {
//	    // render page anyway, log err
//	}
//
// HealthService answers the health, liveness, readiness and version
// endpoints. Readiness fails only when a data file is missing.
package services
