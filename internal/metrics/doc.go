// Package metrics provides the observability hooks for the stopwatch daemon.
//
// Components receive a Recorder through injection and default to NoopRecorder,
// so nothing needs a nil check:
//
//	svc := manager.NewService(m, 64)
//	svc.SetRecorder(metrics.NewPrometheusRecorder(reg))
//
// PrometheusRecorder registers its collectors on the given registry and
// HTTPHandler serves that registry on the daemon's metrics address.
package metrics
