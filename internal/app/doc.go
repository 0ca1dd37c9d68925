// Package app wires the dashboard together and owns its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, YAML file, PTA_* environment)
//	2. Initialize logging and OpenTelemetry
//	3. Resolve data paths and load the embedded page content
//	4. Create the dataset cache, live-reload hub and data watcher
//	5. Create the report and health services
//	6. Set up the chi router and the HTTP server
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	logger, err := infrastructure.InitializeLogger(cfg.Logging)
//	if err != nil {
//	    return err
//	}
//	a, err := app.New(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return a.Run()
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests within
// server.shutdown_timeout and stops the watcher, hub and cache.
//
// Commands that only need the report service (export, summary, publish)
// use New without Start, so no listener or background goroutine is created.
package app
