package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

func ok(context.Context) error { return nil }

func down(context.Context) error { return errors.New("connection refused") }

func TestOptionalFailureKeepsServing(t *testing.T) {
	h := NewHealthServer(zap.NewNop(),
		Check{Name: "documents", Probe: ok},
		Check{Name: "database", Probe: down, Optional: true},
	)

	resp, err := h.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)

	serving, results := h.Run(context.Background())
	assert.True(t, serving)
	require.Len(t, results, 2)
	assert.False(t, results[1].OK)
	assert.Equal(t, "connection refused", results[1].Error)
}

func TestRequiredFailureStopsServing(t *testing.T) {
	h := NewHealthServer(zap.NewNop(), Check{Name: "documents", Probe: down})

	resp, err := h.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestNamedServiceCheck(t *testing.T) {
	h := NewHealthServer(zap.NewNop(),
		Check{Name: "documents", Probe: ok},
		Check{Name: "database", Probe: down, Optional: true},
	)

	resp, err := h.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: "database"})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.Status)

	_, err = h.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: "nope"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestLoggingInterceptorPassesThrough(t *testing.T) {
	intercept := LoggingInterceptor(zap.NewNop())
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	resp, err := intercept(context.Background(), "req", info, func(_ context.Context, req interface{}) (interface{}, error) {
		return req.(string) + "-done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "req-done", resp)

	_, err = intercept(context.Background(), "req", info, func(context.Context, interface{}) (interface{}, error) {
		return nil, errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
}
