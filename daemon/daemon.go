// Package daemon wires the lightning node, the payment components and both RPC
// services together and runs them until the context is cancelled.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/40acres/cashu-lnd/bitcoin"
	"github.com/40acres/cashu-lnd/bitcoin/bitcoind"
	"github.com/40acres/cashu-lnd/bitcoin/mempool"
	"github.com/40acres/cashu-lnd/channels"
	"github.com/40acres/cashu-lnd/config"
	"github.com/40acres/cashu-lnd/lightning"
	"github.com/40acres/cashu-lnd/lightning/lnd"
	"github.com/40acres/cashu-lnd/metrics"
	"github.com/40acres/cashu-lnd/money"
	"github.com/40acres/cashu-lnd/payments"
	"github.com/40acres/cashu-lnd/rpc"
	"github.com/40acres/cashu-lnd/telemetry"
	"github.com/lightningnetwork/lnd/clock"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const ServiceName = "cashu-lnd"

const shutdownTimeout = 10 * time.Second

var ErrNetworkMismatch = errors.New("node network does not match the configuration")

// Daemon owns the long running parts of the adapter.
type Daemon struct {
	cfg         *config.Config
	broadcaster *payments.Broadcaster
	reconciler  *payments.Reconciler
	servers     []*rpc.Server
}

// New checks the node and builds every component. It fails when the node cannot
// be reached or runs on another network.
func New(ctx context.Context, cfg *config.Config, node lightning.Node, fees bitcoin.FeeSource, fs afero.Fs) (*Daemon, error) {
	network := lightning.ParseNetwork(cfg.Network)

	info, err := node.GetInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("lightning node is not reachable: %w", err)
	}
	if info.Network != network {
		return nil, fmt.Errorf("%w: node runs on %s, configured for %s", ErrNetworkMismatch, info.Network, network)
	}
	log.WithFields(log.Fields{
		"node_id":      info.NodeID,
		"alias":        info.Alias,
		"network":      info.Network,
		"block_height": info.BlockHeight,
		"synced":       info.SyncedToChain,
	}).Info("connected to lightning node")

	clk := clock.NewDefaultClock()
	retention := cfg.Payments.RetentionWindow.Duration

	registry := payments.NewRegistry(clk, retention)
	index := payments.NewIndex(clk, retention)
	broadcaster := payments.NewBroadcaster()
	dispatcher := payments.NewDispatcher(node, registry, clk, payments.DispatcherConfig{
		Network: network,
		Timeout: cfg.Payments.Timeout.Duration,
		FeeReserve: money.FeeReserve{
			Percent: cfg.Payments.FeePercentDecimal(),
			Min:     money.Money(cfg.Payments.MinFeeSats),
		},
	})
	issuer := payments.NewIssuer(node, index, broadcaster, clk, cfg.Payments.DefaultExpiry())
	manager := channels.NewManager(node, fees, network)

	reconciler := payments.NewReconciler(payments.ReconcilerConfig{
		Node:        node,
		Registry:    registry,
		Index:       index,
		Broadcaster: broadcaster,
		Channels:    manager,
		Clock:       clk,
	})

	management, err := rpc.NewManagementGRPCServer(rpc.ServerConfig{
		Name:    "management",
		Address: cfg.Management.Address(),
		TLSDir:  cfg.Management.TLSDir,
		FS:      fs,
	}, rpc.NewManagementServer(manager, dispatcher, issuer))
	if err != nil {
		return nil, err
	}

	// LND cannot issue or pay offers.
	processor, err := rpc.NewPaymentProcessorGRPCServer(rpc.ServerConfig{
		Name:    "payment_processor",
		Address: cfg.PaymentProcessor.Address(),
		TLSDir:  cfg.PaymentProcessor.TLSDir,
		FS:      fs,
	}, rpc.NewPaymentProcessorServer(dispatcher, issuer, broadcaster, clk, rpc.PaymentProcessorConfig{Bolt12: false}))
	if err != nil {
		return nil, err
	}

	return &Daemon{
		cfg:         cfg,
		broadcaster: broadcaster,
		reconciler:  reconciler,
		servers:     []*rpc.Server{management, processor},
	}, nil
}

// Run serves both services until ctx is done or one of them fails, then shuts
// everything down.
func (d *Daemon) Run(ctx context.Context) error {
	d.reconciler.Start()

	errs := make(chan error, len(d.servers))
	for _, server := range d.servers {
		go func() {
			errs <- server.ListenAndServe()
		}()
	}

	if err := metrics.StartExporter(ctx, metrics.Config{
		Enabled:    d.cfg.Metrics.Enabled,
		ListenAddr: d.cfg.Metrics.ListenAddr,
	}); err != nil {
		log.WithError(err).Error("could not start metrics exporter")
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down cashu-lnd")
	case runErr = <-errs:
		log.WithError(runErr).Error("rpc server failed, shutting down")
	}

	d.shutdown()

	return runErr
}

func (d *Daemon) shutdown() {
	// Open payment streams end first so the graceful stop does not wait on them.
	d.broadcaster.Close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, server := range d.servers {
		server.Stop(ctx)
	}

	d.reconciler.Stop()
}

// Start connects to LND with the configured credentials and runs the daemon.
func Start(ctx context.Context, cfg *config.Config, fs afero.Fs, version string) error {
	log.WithField("version", version).Info("Starting cashu-lnd")

	shutdownTracing, err := telemetry.Init(ServiceName, version)
	if err != nil {
		return fmt.Errorf("could not initialise tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.WithError(err).Warn("error shutting down tracer provider")
		}
	}()

	network := lightning.ParseNetwork(cfg.Network)
	client, err := lnd.NewClient(ctx,
		lnd.WithLndEndpoint(cfg.Lnd.Address),
		lnd.WithMacaroonFilePath(cfg.MacaroonPath()),
		lnd.WithTLSCertFilePath(cfg.TLSCertPath()),
		lnd.WithNetwork(network),
		lnd.WithPaymentTimeout(cfg.Payments.Timeout.Duration),
		lnd.WithFS(fs),
	)
	if err != nil {
		return fmt.Errorf("could not create lnd client: %w", err)
	}
	defer client.CloseConnection()

	fees, closeFees, err := feeSource(cfg.Chain)
	if err != nil {
		return err
	}
	defer closeFees()

	d, err := New(ctx, cfg, client, fees, fs)
	if err != nil {
		return err
	}

	return d.Run(ctx)
}

// feeSource returns nil when on-chain fees are left to the node.
func feeSource(cfg config.ChainConfig) (bitcoin.FeeSource, func(), error) {
	switch cfg.Source {
	case config.ChainSourceEsplora:
		log.WithField("url", cfg.EsploraURL).Info("using esplora fee estimates")

		return mempool.New("", mempool.WithURL(cfg.EsploraURL)), func() {}, nil
	case config.ChainSourceBitcoinRPC:
		source, err := bitcoind.New(bitcoind.Config{
			Host:     cfg.BitcoinRPC.Host,
			Port:     cfg.BitcoinRPC.Port,
			User:     cfg.BitcoinRPC.User,
			Password: cfg.BitcoinRPC.Password,
		})
		if err != nil {
			return nil, nil, err
		}
		log.WithField("host", cfg.BitcoinRPC.Host).Info("using bitcoind fee estimates")

		return source, source.Close, nil
	default:
		log.Info("no chain source configured, the node estimates on-chain fees")

		return nil, func() {}, nil
	}
}
