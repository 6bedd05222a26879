package lnd

import (
	"context"
	"crypto/x509"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/40acres/cashu-lnd/lightning"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/invoicesrpc"
	"github.com/lightningnetwork/lnd/lnrpc/routerrpc"
	"github.com/lightningnetwork/lnd/macaroons"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"gopkg.in/macaroon.v2"
)

const (
	DefaultEndpoint         = "localhost:10009"
	DefaultMacaroonFilePath = "/root/.lnd/data/chain/bitcoin/{Network}/admin.macaroon"
	DefaultTLSCertFilePath  = "/root/.lnd/tls.cert"

	// DefaultPaymentTimeout bounds how long lnd keeps looking for routes.
	DefaultPaymentTimeout = 5 * time.Minute

	// Blocks targeted when the caller does not pick an on-chain fee rate.
	defaultConfTarget = 6
)

type Client struct {
	lndClient      lnrpc.LightningClient
	routerClient   routerrpc.RouterClient
	invoicesClient invoicesrpc.InvoicesClient
	network        lightning.Network
	paymentTimeout time.Duration
	// settleIndex is the last invoice settle index seen, so a new
	// subscription replays the settlements missed while disconnected.
	settleIndex     atomic.Uint64
	closeConnection func()
}

var _ lightning.Node = (*Client)(nil)

type Option func(*Options)

func WithLndEndpoint(endpoint string) Option {
	return func(o *Options) {
		o.lndEndpoint = endpoint
	}
}

func WithMacaroonFilePath(path string) Option {
	return func(o *Options) {
		o.macaroonFilePath = path
	}
}

func WithTLSCertFilePath(path string) Option {
	return func(o *Options) {
		o.tlsCertFilePath = path
	}
}

func WithNetwork(network lightning.Network) Option {
	return func(o *Options) {
		o.network = network
	}
}

func WithPaymentTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.paymentTimeout = timeout
	}
}

func WithFS(fs afero.Fs) Option {
	return func(o *Options) {
		o.fs = fs
	}
}

type Options struct {
	lndEndpoint      string
	macaroonFilePath string
	tlsCertFilePath  string
	network          lightning.Network
	paymentTimeout   time.Duration
	fs               afero.Fs
}

// NewClient creates a lnd client from the macaroon and cert file locations.
// The grpc connection is established lazily on the first call.
func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	options := Options{
		lndEndpoint:      DefaultEndpoint,
		macaroonFilePath: DefaultMacaroonFilePath,
		tlsCertFilePath:  DefaultTLSCertFilePath,
		network:          lightning.Mainnet,
		paymentTimeout:   DefaultPaymentTimeout,
		fs:               afero.NewOsFs(),
	}

	for _, opt := range opts {
		opt(&options)
	}

	macaroonFilePath := strings.ReplaceAll(options.macaroonFilePath, "{Network}", string(options.network))
	macaroonFileBytes, err := afero.ReadFile(options.fs, macaroonFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed reading macaroon file: %w", err)
	}

	certBytes, err := afero.ReadFile(options.fs, options.tlsCertFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed reading TLS cert file: %w", err)
	}
	creds := credentials.NewClientTLSFromCert(loadCertPool(certBytes), "")

	mac := &macaroon.Macaroon{}
	err = mac.UnmarshalBinary(macaroonFileBytes)
	if err != nil {
		return nil, fmt.Errorf("failed unmarshalling macaroon: %w", err)
	}

	macCred, err := macaroons.NewMacaroonCredential(mac)
	if err != nil {
		return nil, fmt.Errorf("failed creating macaroon credentials: %w", err)
	}

	conn, err := grpc.NewClient(options.lndEndpoint, grpc.WithTransportCredentials(creds), grpc.WithPerRPCCredentials(macCred))
	if err != nil {
		return nil, fmt.Errorf("failed connecting to LND node: %w", err)
	}

	lndClient, routerClient, invoicesClient := createInnerLNDClients(conn)

	client := newClient(lndClient, routerClient, invoicesClient, options)
	client.closeConnection = func() {
		err := conn.Close()
		if err != nil {
			log.WithError(err).Error("error closing connection")
		}
	}

	return client, nil
}

func newClient(lndClient lnrpc.LightningClient, routerClient routerrpc.RouterClient, invoicesClient invoicesrpc.InvoicesClient, options Options) *Client {
	return &Client{
		lndClient:       lndClient,
		routerClient:    routerClient,
		invoicesClient:  invoicesClient,
		network:         options.network,
		paymentTimeout:  options.paymentTimeout,
		closeConnection: func() {},
	}
}

// CloseConnection closes the connection with the lnd node
func (c *Client) CloseConnection() {
	c.closeConnection()
}

// Generates the gRPC clients
func createInnerLNDClients(conn *grpc.ClientConn) (lnrpc.LightningClient, routerrpc.RouterClient, invoicesrpc.InvoicesClient) {
	lndClient := lnrpc.NewLightningClient(conn)
	routerClient := routerrpc.NewRouterClient(conn)
	invoicesClient := invoicesrpc.NewInvoicesClient(conn)

	return lndClient, routerClient, invoicesClient
}

// Helper function to load a certificate pool from cert bytes
func loadCertPool(certBytes []byte) *x509.CertPool {
	cp := x509.NewCertPool()
	cp.AppendCertsFromPEM(certBytes)

	return cp
}
