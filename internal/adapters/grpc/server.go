package grpc

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/cp25sy5-modjot/expense-tracker-service/internal/ports"
)

// ServiceName is the health-checked service reported to gRPC health clients.
const ServiceName = "expense-tracker"

// RegisterExpenseTrackerServer registers reflection so tools like grpcurl
// can discover the health service.
func RegisterExpenseTrackerServer(s *grpc.Server) {
	reflection.Register(s)
}

// WatchHealth mirrors probe into hs for ServiceName and the overall server
// status, checking once immediately and then every interval until ctx ends.
func WatchHealth(ctx context.Context, hs *health.Server, probe ports.HealthPort, interval time.Duration, logger zerolog.Logger) {
	report := func() {
		checkCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()

		status := healthpb.HealthCheckResponse_SERVING
		healthy, msg := probe.Check(checkCtx, "ledger")
		if !healthy {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			logger.Warn().Str("reason", msg).Msg("ledger health check failed")
		}
		hs.SetServingStatus(ServiceName, status)
		hs.SetServingStatus("", status)
	}

	report()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report()
		}
	}
}
