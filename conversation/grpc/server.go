package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"

	"chat-sentiment/backend/pkg/health"
	"chat-sentiment/backend/pkg/logger"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the gRPC health service name reported for the chat backend.
const ServiceName = "chat.sentiment.Messages"

// HealthServer exposes the checker's verdict over the standard gRPC health protocol.
type HealthServer struct {
	server *grpc.Server
	health *grpchealth.Server
	log    *logger.Logger
}

func NewHealthServer(checker *health.Checker, log *logger.Logger) *HealthServer {
	if log == nil {
		log = logger.GetGlobal()
	}

	hs := grpchealth.NewServer()
	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	reflection.Register(server)

	s := &HealthServer{server: server, health: hs, log: log.WithComponent("grpc")}
	s.setServing(checker.IsSystemHealthy())
	checker.OnChange(s.setServing)
	return s
}

func (s *HealthServer) setServing(healthy bool) {
	status := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Serve accepts connections on lis until ctx is done.
func (s *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		s.server.GracefulStop()
	}()

	s.log.Info("gRPC server listening", "addr", lis.Addr().String())
	if err := s.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// ListenAndServe listens on port and serves until ctx is done.
func (s *HealthServer) ListenAndServe(ctx context.Context, port string) error {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", port, err)
	}
	return s.Serve(ctx, lis)
}
