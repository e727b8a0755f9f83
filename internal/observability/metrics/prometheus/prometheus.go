package prometheus

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	pm "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	ot "github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uber/jaeger-client-go"
	"go.uber.org/zap"
)

var SrvMetrics = pm.NewServerMetrics(
	pm.WithServerHandlingTimeHistogram(
		pm.WithHistogramBuckets([]float64{0.001, 0.01, 0.1, 0.3, 0.6, 1, 3, 6, 9, 20, 30, 60, 90, 120}),
	),
)

var requestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "request_duration_seconds",
		Help:    "Handled request latency by operation and status.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"op", "status"},
)

var pushDeliveries = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "push_deliveries_total",
		Help: "Per-token push outcomes.",
	},
	[]string{"outcome"},
)

var reminderRuns = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reminder_runs_total",
		Help: "Reminder scheduler runs by result.",
	},
	[]string{"result"},
)

func ObserveRequest(d time.Duration, status int, op string) {
	requestDuration.WithLabelValues(op, strconv.Itoa(status)).Observe(d.Seconds())
}

func ObservePush(success, failure, unregistered int) {
	pushDeliveries.WithLabelValues("success").Add(float64(success))
	pushDeliveries.WithLabelValues("failure").Add(float64(failure))
	pushDeliveries.WithLabelValues("unregistered").Add(float64(unregistered))
}

func ObserveReminderRun(result string) {
	reminderRuns.WithLabelValues(result).Inc()
}

// Exemplar attaches the current Jaeger trace id to gRPC server metrics.
func Exemplar(ctx context.Context) prometheus.Labels {
	span := ot.SpanFromContext(ctx)
	if span == nil {
		return nil
	}

	if sc, ok := span.Context().(jaeger.SpanContext); ok {
		return prometheus.Labels{"traceID": sc.TraceID().String()}
	}

	return nil
}

type Metrics struct {
	srv *http.Server
}

func New(port int) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		SrvMetrics,
		requestDuration,
		pushDeliveries,
		reminderRuns,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true}))

	return &Metrics{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%v", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (m *Metrics) Start(ctx context.Context) {
	go func() {
		zap.L().Info("Starting metrics server", zap.String("addr", m.srv.Addr))
		if err := m.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Error("Metrics server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Debug("Error shutting down metrics server", zap.Error(err))
	}
	zap.L().Info("Metrics server has been stopped")
}
