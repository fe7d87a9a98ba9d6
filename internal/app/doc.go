// Package app wires the SprintPulse web service together: configuration,
// logging, OpenTelemetry, the object store, the report and dedupe services,
// the Chi router and the HTTP server.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, YAML file, .env, environment)
//	2. Initialize logging and resolve application paths
//	3. Initialize OpenTelemetry and the pipeline instruments
//	4. Create the object store selected by storage.provider
//	5. Create the services and mount their handlers under /api
//	6. Configure the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests within
// server.shutdown_timeout and flushes the telemetry providers. The package
// never calls os.Exit; errors are returned to main.
package app
