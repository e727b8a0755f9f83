package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func TestHandler_Health(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	h := New("fieldlog")
	go func() {
		_ = h.Serve(lis)
	}()

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(
			func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			},
		),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	cli := grpc_health_v1.NewHealthClient(conn)
	res, err := cli.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: "fieldlog"})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, res.Status)

	_, err = cli.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: "unknown"})
	assert.Error(t, err)

	assert.NoError(t, h.Close())
}
