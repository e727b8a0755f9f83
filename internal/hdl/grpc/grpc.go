package grpc

import (
	"errors"
	"fmt"
	"net"

	"github.com/JMURv/fieldlog/internal/hdl/grpc/interceptors"
	metrics "github.com/JMURv/fieldlog/internal/observability/metrics/prometheus"
	pm "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Handler exposes the standard gRPC health service for orchestrator probes.
type Handler struct {
	name string
	srv  *grpc.Server
	hsrv *health.Server
}

func New(name string) *Handler {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptors.LogTraceMetrics(),
			metrics.SrvMetrics.UnaryServerInterceptor(
				pm.WithExemplarFromContext(metrics.Exemplar),
			),
		),
		grpc.ChainStreamInterceptor(
			metrics.SrvMetrics.StreamServerInterceptor(
				pm.WithExemplarFromContext(metrics.Exemplar),
			),
		),
	)

	reflection.Register(srv)

	hsrv := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, hsrv)
	hsrv.SetServingStatus(name, grpc_health_v1.HealthCheckResponse_SERVING)
	metrics.SrvMetrics.InitializeMetrics(srv)

	return &Handler{
		name: name,
		srv:  srv,
		hsrv: hsrv,
	}
}

func (h *Handler) Start(port int) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%v", port))
	if err != nil {
		zap.L().Fatal("failed to listen", zap.Error(err))
	}

	if err = h.Serve(lis); err != nil {
		zap.L().Fatal("failed to serve", zap.Error(err))
	}
}

func (h *Handler) Serve(lis net.Listener) error {
	zap.L().Info("Starting gRPC server", zap.String("addr", lis.Addr().String()))
	if err := h.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Close reports NOT_SERVING to probes before draining in-flight calls.
func (h *Handler) Close() error {
	h.hsrv.Shutdown()
	h.srv.GracefulStop()
	return nil
}
