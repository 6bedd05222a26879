package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	bitcoindAlias   = "bitcoind"
	bitcoindRPCUser = "cashu"
	bitcoindRPCPass = "pass"
	bitcoindWallet  = "miner"
)

// Bitcoind is a regtest bitcoind running in a container, driven over RPC.
type Bitcoind struct {
	container testcontainers.Container
	client    *rpcclient.Client
	// Host and Port are the RPC endpoint reachable from the test process.
	Host string
	Port int
}

// StartBitcoind runs bitcoind on networkName, reachable from the other
// containers as "bitcoind".
func StartBitcoind(ctx context.Context, networkName string) (*Bitcoind, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:          "bitcoin/bitcoin:28",
			ExposedPorts:   []string{"18443/tcp"},
			Networks:       []string{networkName},
			NetworkAliases: map[string][]string{networkName: {bitcoindAlias}},
			Cmd: []string{
				"-printtoconsole",
				"-regtest=1",
				"-rpcbind=0.0.0.0",
				"-rpcport=18443",
				"-rpcallowip=0.0.0.0/0",
				"-rpcuser=" + bitcoindRPCUser,
				"-rpcpassword=" + bitcoindRPCPass,
				"-whitelist=0.0.0.0/0",
				"-txindex=1",
				"-server=1",
				"-fallbackfee=0.0002",
				"-zmqpubrawblock=tcp://0.0.0.0:28334",
				"-zmqpubrawtx=tcp://0.0.0.0:28335",
			},
			WaitingFor: wait.ForLog("init message: Done loading").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start bitcoind: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, err
	}
	port, err := container.MappedPort(ctx, "18443")
	if err != nil {
		return nil, err
	}

	client, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         fmt.Sprintf("%s:%s", host, port.Port()),
		User:         bitcoindRPCUser,
		Pass:         bitcoindRPCPass,
		Params:       chaincfg.RegressionNetParams.Name,
		HTTPPostMode: true,
		DisableTLS:   true,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc client: %w", err)
	}

	if _, err := client.CreateWallet(bitcoindWallet); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	return &Bitcoind{
		container: container,
		client:    client,
		Host:      host,
		Port:      port.Int(),
	}, nil
}

func (b *Bitcoind) Terminate() error {
	b.client.Shutdown()

	return testcontainers.TerminateContainer(b.container)
}

// Mine mines blocks to a fresh wallet address.
func (b *Bitcoind) Mine(blocks int64) error {
	address, err := b.client.GetNewAddress("")
	if err != nil {
		return fmt.Errorf("failed to get new address: %w", err)
	}
	if _, err := b.client.GenerateToAddress(blocks, address, nil); err != nil {
		return fmt.Errorf("failed to mine blocks: %w", err)
	}

	return nil
}

func (b *Bitcoind) SendToAddress(address string, amount btcutil.Amount) (string, error) {
	decoded, err := btcutil.DecodeAddress(address, &chaincfg.RegressionNetParams)
	if err != nil {
		return "", err
	}
	txid, err := b.client.SendToAddress(decoded, amount)
	if err != nil {
		return "", fmt.Errorf("failed to send to address: %w", err)
	}

	return txid.String(), nil
}

func (b *Bitcoind) BlockHeight() (int64, error) {
	return b.client.GetBlockCount()
}
