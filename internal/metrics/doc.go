// Package metrics provides the observability hooks of a docsync run.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection needs no nil checks at call sites:
//
//	svc := build.NewSyncService().WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// A sync is a short-lived process rather than a server, so the Prometheus
// registry is exported once at the end of the run with WriteTextfile instead
// of being scraped over HTTP.
package metrics
