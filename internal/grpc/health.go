package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

const checkTimeout = 2 * time.Second

// Check probes one dependency. Optional checks only degrade the service:
// content keeps being served from local documents while they fail.
type Check struct {
	Name     string
	Probe    func(ctx context.Context) error
	Optional bool
}

// Result is the outcome of one probe.
type Result struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// HealthServer implements the gRPC health checking protocol
type HealthServer struct {
	grpc_health_v1.UnimplementedHealthServer
	checks []Check
	log    *zap.Logger
}

// NewHealthServer creates a new health check server
func NewHealthServer(log *zap.Logger, checks ...Check) *HealthServer {
	return &HealthServer{checks: checks, log: log}
}

// Run probes every check. serving is false when any required check fails.
func (h *HealthServer) Run(ctx context.Context) (serving bool, results []Result) {
	serving = true
	for _, c := range h.checks {
		probeCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := c.Probe(probeCtx)
		cancel()

		r := Result{Name: c.Name, OK: err == nil}
		if err != nil {
			r.Error = err.Error()
			if c.Optional {
				h.log.Warn("Optional dependency unhealthy", zap.String("check", c.Name), zap.Error(err))
			} else {
				h.log.Error("Health check failed", zap.String("check", c.Name), zap.Error(err))
				serving = false
			}
		}
		results = append(results, r)
	}
	return serving, results
}

// Check implements the health check. An empty service name covers every
// dependency; otherwise only the named check is probed.
func (h *HealthServer) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	target := h
	if name := req.GetService(); name != "" {
		c, ok := h.find(name)
		if !ok {
			return nil, status.Error(codes.NotFound, "unknown service")
		}
		c.Optional = false
		target = &HealthServer{checks: []Check{c}, log: h.log}
	}

	serving, _ := target.Run(ctx)
	return &grpc_health_v1.HealthCheckResponse{Status: servingStatus(serving)}, nil
}

// Watch sends the current status once.
func (h *HealthServer) Watch(req *grpc_health_v1.HealthCheckRequest, server grpc_health_v1.Health_WatchServer) error {
	resp, err := h.Check(server.Context(), req)
	if err != nil {
		return err
	}
	return server.Send(resp)
}

func (h *HealthServer) find(name string) (Check, bool) {
	for _, c := range h.checks {
		if c.Name == name {
			return c, true
		}
	}
	return Check{}, false
}

func servingStatus(ok bool) grpc_health_v1.HealthCheckResponse_ServingStatus {
	if ok {
		return grpc_health_v1.HealthCheckResponse_SERVING
	}
	return grpc_health_v1.HealthCheckResponse_NOT_SERVING
}

// LoggingInterceptor logs all gRPC requests
func LoggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if err != nil {
			log.Error("gRPC request failed",
				zap.String("method", info.FullMethod),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		} else {
			log.Debug("gRPC request completed",
				zap.String("method", info.FullMethod),
				zap.Duration("duration", time.Since(start)),
			)
		}
		return resp, err
	}
}

// NewServer returns a gRPC server exposing the health service, with
// reflection enabled for grpcurl.
func NewServer(health *HealthServer, log *zap.Logger) *grpc.Server {
	s := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor(log)))
	grpc_health_v1.RegisterHealthServer(s, health)
	reflection.Register(s)
	return s
}
