// Package http implements the dashboard's HTTP handlers. Handlers stay thin:
// they read route parameters, call the report or health service and turn
// the result into HTML, JSON, a file download or an RFC 7807 problem.
//
// # Routes
//
//	GET /                          home page (HTML)
//	GET /pages/{slug}              page (HTML)
//	GET /api/pages                 page list (JSON)
//	GET /api/pages/{slug}          page model (JSON)
//	GET /downloads/{name}.csv      pronunciation or suggestion detail export
//	GET /downloads/report.xlsx     every report table as a workbook
//	GET /images/{key}              registered example image
//	GET /api/health[/live|/ready]  health checks
//	GET /api/version               build information
//	GET /ws                        live reload
//
// # Error Handling
//
// Service errors are mapped to API errors and rendered by
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/data/unavailable",
//	    "title": "Service Unavailable",
//	    "status": 503,
//	    "detail": "数据加载失败",
//	    "error_code": "DATA_UNAVAILABLE",
//	    "details": "open .../feedback.csv: no such file or directory"
//	}
//
// HTML pages are the exception: a page whose data failed to load is still
// rendered, with the load error in place of its body and status 500.
package http
