package integration

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/40acres/cashu-lnd/lightning"
	"github.com/40acres/cashu-lnd/lightning/lnd"
	"github.com/spf13/afero"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	lndDataDir      = "/root/.lnd"
	lndMacaroonPath = lndDataDir + "/data/chain/bitcoin/regtest/admin.macaroon"
	lndTLSCertPath  = lndDataDir + "/tls.cert"
	lndP2PPort      = 9735
)

// LndNode is a regtest lnd container together with a client for it.
type LndNode struct {
	container testcontainers.Container
	// Alias doubles as the host name on the docker network.
	Alias  string
	NodeID string
	Client *lnd.Client
	// FS holds the macaroon and TLS certificate copied out of the container.
	FS           afero.Fs
	MacaroonPath string
	TLSCertPath  string
	Endpoint     string
}

// StartLnd runs lnd on networkName against the bitcoind started by
// StartBitcoind and waits until its credentials are available.
func StartLnd(ctx context.Context, networkName, alias string) (*LndNode, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:          "lightninglabs/lnd:v0.18.4-beta",
			ExposedPorts:   []string{"10009/tcp"},
			Networks:       []string{networkName},
			NetworkAliases: map[string][]string{networkName: {alias}},
			Cmd: []string{
				"--noseedbackup",
				"--trickledelay=5000",
				"--alias=" + alias,
				fmt.Sprintf("--listen=0.0.0.0:%d", lndP2PPort),
				"--rpclisten=0.0.0.0:10009",
				"--tlsextradomain=localhost",
				"--bitcoin.active",
				"--bitcoin.regtest",
				"--bitcoin.node=bitcoind",
				"--bitcoind.rpchost=" + bitcoindAlias + ":18443",
				"--bitcoind.rpcuser=" + bitcoindRPCUser,
				"--bitcoind.rpcpass=" + bitcoindRPCPass,
				"--bitcoind.zmqpubrawblock=tcp://" + bitcoindAlias + ":28334",
				"--bitcoind.zmqpubrawtx=tcp://" + bitcoindAlias + ":28335",
				"--maxpendingchannels=20",
			},
			WaitingFor: wait.ForLog("Waiting for chain backend to finish sync").
				WithStartupTimeout(3 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start lnd %s: %w", alias, err)
	}

	node := &LndNode{
		container:    container,
		Alias:        alias,
		FS:           afero.NewMemMapFs(),
		MacaroonPath: filepath.Join("/", alias, "admin.macaroon"),
		TLSCertPath:  filepath.Join("/", alias, "tls.cert"),
	}

	// The macaroon only appears once the wallet is unlocked.
	deadline := time.Now().Add(time.Minute)
	for {
		err = node.copyCredentials(ctx)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("lnd %s credentials never appeared: %w", alias, err)
		}
		time.Sleep(time.Second)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, err
	}
	port, err := container.MappedPort(ctx, "10009")
	if err != nil {
		return nil, err
	}
	node.Endpoint = fmt.Sprintf("%s:%s", host, port.Port())

	node.Client, err = lnd.NewClient(ctx,
		lnd.WithLndEndpoint(node.Endpoint),
		lnd.WithMacaroonFilePath(node.MacaroonPath),
		lnd.WithTLSCertFilePath(node.TLSCertPath),
		lnd.WithNetwork(lightning.Regtest),
		lnd.WithFS(node.FS),
	)
	if err != nil {
		return nil, err
	}

	return node, nil
}

func (n *LndNode) copyCredentials(ctx context.Context) error {
	files := map[string]string{
		lndMacaroonPath: n.MacaroonPath,
		lndTLSCertPath:  n.TLSCertPath,
	}
	for src, dst := range files {
		reader, err := n.container.CopyFileFromContainer(ctx, src)
		if err != nil {
			return err
		}
		data, err := io.ReadAll(reader)
		_ = reader.Close()
		if err != nil {
			return err
		}
		if err := afero.WriteFile(n.FS, dst, data, 0o600); err != nil {
			return err
		}
	}

	return nil
}

// WaitForSync blocks until lnd reports it is synced to the chain and stores
// the node id.
func (n *LndNode) WaitForSync(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		info, err := n.Client.GetInfo(ctx)
		if err == nil && info.SyncedToChain {
			n.NodeID = info.NodeID

			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("lnd %s did not sync in %s (last error: %v)", n.Alias, timeout, err)
		}
		time.Sleep(time.Second)
	}
}

func (n *LndNode) Terminate() error {
	n.Client.CloseConnection()

	return testcontainers.TerminateContainer(n.container)
}
