package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"

	ferrors "git.home.luguber.info/inful/stopwatchd/internal/foundation/errors"
	"git.home.luguber.info/inful/stopwatchd/internal/logfields"
	"git.home.luguber.info/inful/stopwatchd/internal/metrics"
)

// newMetricsRegistry returns a registry with the Go and process collectors.
func newMetricsRegistry() *prom.Registry {
	reg := prom.NewRegistry()
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return reg
}

// metricsServer serves Prometheus metrics and a liveness probe.
type metricsServer struct {
	srv      *http.Server
	listener net.Listener
}

func startMetricsServer(addr, path string, reg *prom.Registry) (*metricsServer, error) {
	mux := http.NewServeMux()
	mux.Handle(path, metrics.HTTPHandler(reg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to listen for metrics").
			WithContext("address", addr).
			Build()
	}
	ms := &metricsServer{
		srv:      &http.Server{Handler: logRequests(mux), ReadHeaderTimeout: 5 * time.Second},
		listener: ln,
	}
	go func() {
		if err := ms.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()
	slog.Info("Metrics endpoint enabled", "address", ln.Addr().String(), "path", path)
	return ms, nil
}

func (ms *metricsServer) Addr() string { return ms.listener.Addr().String() }

func (ms *metricsServer) Shutdown(ctx context.Context) error {
	return ms.srv.Shutdown(ctx)
}
