package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/40acres/cashu-lnd/metrics"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

type ServerConfig struct {
	// Name shows up in logs only.
	Name    string
	Address string
	TLSDir  string
	FS      afero.Fs
}

// Server is one of the two grpc endpoints of the daemon.
type Server struct {
	cfg        ServerConfig
	grpcServer *grpc.Server
	logger     *log.Entry
}

func newServer(cfg ServerConfig, register func(grpc.ServiceRegistrar)) (*Server, error) {
	if cfg.FS == nil {
		cfg.FS = afero.NewOsFs()
	}

	opts := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(metrics.GRPCServer.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(metrics.GRPCServer.StreamServerInterceptor()),
	}

	creds, err := serverCredentials(cfg.FS, cfg.TLSDir)
	if err != nil {
		return nil, fmt.Errorf("could not load tls material for %s: %w", cfg.Name, err)
	}
	if creds != nil {
		opts = append(opts, grpc.Creds(creds))
	}

	grpcServer := grpc.NewServer(opts...)
	register(grpcServer)
	metrics.GRPCServer.InitializeMetrics(grpcServer)

	return &Server{
		cfg:        cfg,
		grpcServer: grpcServer,
		logger: log.WithFields(log.Fields{
			"component": cfg.Name,
			"address":   cfg.Address,
			"tls":       creds != nil,
		}),
	}, nil
}

func NewManagementGRPCServer(cfg ServerConfig, srv ManagementService) (*Server, error) {
	return newServer(cfg, func(r grpc.ServiceRegistrar) {
		RegisterManagementService(r, srv)
	})
}

func NewPaymentProcessorGRPCServer(cfg ServerConfig, srv PaymentProcessorService) (*Server, error) {
	return newServer(cfg, func(r grpc.ServiceRegistrar) {
		RegisterPaymentProcessorService(r, srv)
	})
}

func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Address, err)
	}

	return s.Serve(listener)
}

// Serve blocks until Stop is called.
func (s *Server) Serve(listener net.Listener) error {
	s.logger.Info("grpc server listening")
	if err := s.grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("failed to serve %s: %w", s.cfg.Name, err)
	}

	return nil
}

// Stop drains in-flight calls until ctx is done, then closes every
// connection.
func (s *Server) Stop(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("graceful stop timed out, closing connections")
		s.grpcServer.Stop()
		<-done
	}
	s.logger.Info("grpc server stopped")
}
