// Package http implements the HTTP handlers of the SprintPulse web service.
// Handlers stay thin: they parse multipart uploads and query parameters,
// stage uploaded extracts in a per-request workspace, call the service layer
// and render the result.
//
// # Endpoints
//
//	POST /api/metrics              all three workload metrics
//	POST /api/metrics/{kind}       one metric: todo, in-progress or done
//	POST /api/summary?sprint=      dashboard summary of one sprint
//	POST /api/variance?sprint=     estimate against spent hours per assignee
//	POST /api/dedupe/zip           deduplicate every CSV of a ZIP archive
//	POST /api/dedupe/csv           deduplicate one CSV
//	POST /api/dedupe/remote        deduplicate a bucket folder
//	GET  /api/health[/ready|/live] health checks
//	GET  /api/version              build information
//
// Report endpoints take the multipart files "entities", "history" and
// "sprints", an optional "until" cutoff (YYYY-MM-DD) and an optional
// "format" of json, csv or xlsx.
//
// # Error Handling
//
// All errors are rendered as RFC 7807 problem details by
// errors.ErrorHandler, with the request id in the trace_id extension:
//
//	{
//	  "type": "/errors/validation",
//	  "title": "Bad Request",
//	  "status": 400,
//	  "detail": "Request validation failed",
//	  "instance": "/api/summary",
//	  "error_code": "VALIDATION_FAILED",
//	  "details": {"field": "sprint", "message": "sprint is required"},
//	  "trace_id": "4f6c..."
//	}
package http
