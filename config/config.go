// Package config loads the adapter settings from <work dir>/config.toml. Values
// from the environment take precedence over the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/40acres/cashu-lnd/lightning"
	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const FileName = "config.toml"

const (
	ChainSourceEsplora    = "esplora"
	ChainSourceBitcoinRPC = "bitcoinrpc"
	ChainSourceNone       = "none"
)

var ErrInvalidConfig = errors.New("invalid config")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Duration is a time.Duration written as "30s" or "1h" in the config file.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed

	return nil
}

type Config struct {
	Network string `toml:"network"`
	// StorageDir is the lnd data directory; credentials are looked up there
	// when no explicit paths are configured.
	StorageDir       string         `toml:"storage_dir"`
	Lnd              LndConfig      `toml:"lnd"`
	Chain            ChainConfig    `toml:"chain"`
	Management       ListenConfig   `toml:"management"`
	PaymentProcessor ListenConfig   `toml:"payment_processor"`
	Payments         PaymentsConfig `toml:"payments"`
	Metrics          MetricsConfig  `toml:"metrics"`
}

type LndConfig struct {
	Address      string `toml:"address"`
	MacaroonPath string `toml:"macaroon_path"`
	TLSCertPath  string `toml:"tls_cert_path"`
}

type ChainConfig struct {
	Source     string           `toml:"source"`
	EsploraURL string           `toml:"esplora_url"`
	BitcoinRPC BitcoinRPCConfig `toml:"bitcoin_rpc"`
}

type BitcoinRPCConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type ListenConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	// TLSDir holds server.pem/server.key, plus ca.pem to require client certificates.
	TLSDir string `toml:"tls_dir"`
}

func (l ListenConfig) Address() string {
	return net.JoinHostPort(l.Host, strconv.Itoa(l.Port))
}

type PaymentsConfig struct {
	Timeout              Duration `toml:"timeout"`
	RetentionWindow      Duration `toml:"retention_window"`
	DefaultExpirySeconds uint64   `toml:"default_expiry_seconds"`
	FeePercent           string   `toml:"fee_percent"`
	MinFeeSats           uint64   `toml:"min_fee_sats"`
}

func (p PaymentsConfig) DefaultExpiry() time.Duration {
	return time.Duration(p.DefaultExpirySeconds) * time.Second // nolint:gosec
}

// FeePercentDecimal is only valid after Validate succeeded.
func (p PaymentsConfig) FeePercentDecimal() decimal.Decimal {
	return decimal.RequireFromString(p.FeePercent)
}

type MetricsConfig struct {
	Enabled    bool   `toml:"enabled"`
	ListenAddr string `toml:"listen_addr"`
}

// DefaultWorkDir is ~/.cashu-lnd, or the current directory when there is no home.
func DefaultWorkDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cashu-lnd"
	}

	return filepath.Join(home, ".cashu-lnd")
}

// Default returns the configuration written on first start.
func Default() *Config {
	lndDir := ".lnd"
	if home, err := os.UserHomeDir(); err == nil {
		lndDir = filepath.Join(home, ".lnd")
	}

	return &Config{
		Network:    string(lightning.Regtest),
		StorageDir: lndDir,
		Lnd: LndConfig{
			Address: "localhost:10009",
		},
		Chain: ChainConfig{
			Source:     ChainSourceEsplora,
			EsploraURL: "https://mutinynet.com/api",
			BitcoinRPC: BitcoinRPCConfig{
				Host:     "127.0.0.1",
				Port:     18443,
				User:     "testuser",
				Password: "testpass",
			},
		},
		Management: ListenConfig{
			Host: "127.0.0.1",
			Port: 50051,
		},
		PaymentProcessor: ListenConfig{
			Host: "127.0.0.1",
			Port: 8089,
		},
		Payments: PaymentsConfig{
			Timeout:              Duration{60 * time.Second},
			RetentionWindow:      Duration{24 * time.Hour},
			DefaultExpirySeconds: uint64(lightning.DefaultInvoiceExpiry.Seconds()),
			FeePercent:           "0.02",
			MinFeeSats:           2,
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			ListenAddr: "127.0.0.1:9090",
		},
	}
}

// Load reads workDir/config.toml, writing the defaults first when the file does
// not exist, then applies environment overrides and validates the result.
func Load(fs afero.Fs, workDir string, lookupEnv func(string) (string, bool)) (*Config, error) {
	return LoadFile(fs, filepath.Join(workDir, FileName), lookupEnv)
}

// LoadFile is Load for an explicit file path.
func LoadFile(fs afero.Fs, path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("could not stat config file: %w", err)
	}
	if !exists {
		log.WithField("path", path).Info("config file not found, writing defaults")
		if err := persist(fs, path, Default()); err != nil {
			return nil, err
		}
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	cfg := Default()
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", path, err)
	}
	for _, key := range meta.Undecoded() {
		log.WithField("key", key.String()).Warn("unknown config key ignored")
	}
	cfg.Network = string(lightning.ParseNetwork(cfg.Network))

	if err := cfg.applyEnv(lookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func persist(fs afero.Fs, path string, cfg *Config) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("could not encode config: %w", err)
	}

	if err := afero.WriteFile(fs, path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("could not write config file: %w", err)
	}

	return nil
}

func (c *Config) applyEnv(lookupEnv func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookupEnv(name); ok && v != "" {
			*dst = v
		}
	}
	integer := func(name string, dst *int) error {
		v, ok := lookupEnv(name)
		if !ok || v == "" {
			return nil
		}
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return invalid("%s: %v", name, err)
		}
		*dst = parsed

		return nil
	}
	unsigned := func(name string, dst *uint64) error {
		v, ok := lookupEnv(name)
		if !ok || v == "" {
			return nil
		}
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return invalid("%s: %v", name, err)
		}
		*dst = parsed

		return nil
	}
	duration := func(name string, dst *Duration) error {
		v, ok := lookupEnv(name)
		if !ok || v == "" {
			return nil
		}
		if err := dst.UnmarshalText([]byte(v)); err != nil {
			return invalid("%s: %v", name, err)
		}

		return nil
	}
	boolean := func(name string, dst *bool) error {
		v, ok := lookupEnv(name)
		if !ok || v == "" {
			return nil
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return invalid("%s: %v", name, err)
		}
		*dst = parsed

		return nil
	}

	str("CDK_PAYMENT_PROCESSOR_LISTEN_HOST", &c.PaymentProcessor.Host)
	str("CDK_PAYMENT_PROCESSOR_TLS_DIR", &c.PaymentProcessor.TLSDir)
	str("CDK_GRPC_HOST", &c.Management.Host)
	str("CDK_GRPC_TLS_DIR", &c.Management.TLSDir)
	str("CDK_CHAIN_SOURCE", &c.Chain.Source)
	str("CDK_ESPLORA_URL", &c.Chain.EsploraURL)
	str("CDK_BITCOIN_RPC_HOST", &c.Chain.BitcoinRPC.Host)
	str("CDK_BITCOIN_RPC_USER", &c.Chain.BitcoinRPC.User)
	str("CDK_BITCOIN_RPC_PASS", &c.Chain.BitcoinRPC.Password)
	str("CDK_STORAGE_DIR_PATH", &c.StorageDir)
	str("CDK_LND_ADDRESS", &c.Lnd.Address)
	str("CDK_LND_MACAROON_PATH", &c.Lnd.MacaroonPath)
	str("CDK_LND_TLS_CERT_PATH", &c.Lnd.TLSCertPath)
	str("CDK_FEE_PERCENT", &c.Payments.FeePercent)
	str("CDK_METRICS_LISTEN", &c.Metrics.ListenAddr)

	if v, ok := lookupEnv("CDK_BITCOIN_NETWORK"); ok && v != "" {
		c.Network = string(lightning.ParseNetwork(v))
	}

	for _, err := range []error{
		integer("CDK_PAYMENT_PROCESSOR_LISTEN_PORT", &c.PaymentProcessor.Port),
		integer("CDK_GRPC_PORT", &c.Management.Port),
		integer("CDK_BITCOIN_RPC_PORT", &c.Chain.BitcoinRPC.Port),
		unsigned("CDK_DEFAULT_INVOICE_EXPIRY", &c.Payments.DefaultExpirySeconds),
		unsigned("CDK_FEE_MIN_SATS", &c.Payments.MinFeeSats),
		duration("CDK_PAYMENT_TIMEOUT", &c.Payments.Timeout),
		duration("CDK_RETENTION_WINDOW", &c.Payments.RetentionWindow),
		boolean("CDK_METRICS_ENABLED", &c.Metrics.Enabled),
	} {
		if err != nil {
			return err
		}
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if lightning.ToChainCfgNetwork(lightning.Network(c.Network)) == nil {
		return invalid("unknown network %q", c.Network)
	}
	if c.Lnd.Address == "" {
		return invalid("lnd address is required")
	}
	if c.StorageDir == "" && (c.Lnd.MacaroonPath == "" || c.Lnd.TLSCertPath == "") {
		return invalid("storage dir is required when lnd credential paths are not set")
	}

	switch strings.ToLower(c.Chain.Source) {
	case ChainSourceEsplora:
		if c.Chain.EsploraURL == "" {
			return invalid("esplora url is required for chain source %q", c.Chain.Source)
		}
	case ChainSourceBitcoinRPC:
		if c.Chain.BitcoinRPC.Host == "" {
			return invalid("bitcoin rpc host is required for chain source %q", c.Chain.Source)
		}
		if err := validatePort("bitcoin rpc", c.Chain.BitcoinRPC.Port); err != nil {
			return err
		}
	case ChainSourceNone, "":
	default:
		return invalid("unknown chain source %q", c.Chain.Source)
	}

	if err := validatePort("management", c.Management.Port); err != nil {
		return err
	}
	if err := validatePort("payment processor", c.PaymentProcessor.Port); err != nil {
		return err
	}
	if c.Management.Address() == c.PaymentProcessor.Address() {
		return invalid("management and payment processor cannot share %s", c.Management.Address())
	}

	if c.Payments.Timeout.Duration <= 0 {
		return invalid("payment timeout must be positive")
	}
	if c.Payments.RetentionWindow.Duration < c.Payments.Timeout.Duration {
		return invalid("retention window must not be shorter than the payment timeout")
	}
	if c.Payments.DefaultExpirySeconds == 0 {
		return invalid("default invoice expiry must be positive")
	}
	fee, err := decimal.NewFromString(c.Payments.FeePercent)
	if err != nil {
		return invalid("fee percent: %v", err)
	}
	if fee.IsNegative() || fee.GreaterThan(decimal.NewFromInt(1)) {
		return invalid("fee percent must be between 0 and 1")
	}

	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return invalid("metrics listen address is required when metrics are enabled")
	}

	return nil
}

func validatePort(name string, port int) error {
	if port <= 0 || port > 65535 {
		return invalid("%s port number %d is invalid: must be between 1 and 65535", name, port)
	}

	return nil
}

// MacaroonPath falls back to the admin macaroon inside the lnd data directory.
func (c *Config) MacaroonPath() string {
	if c.Lnd.MacaroonPath != "" {
		return c.Lnd.MacaroonPath
	}

	return filepath.Join(c.StorageDir, "data", "chain", "bitcoin", c.Network, "admin.macaroon")
}

func (c *Config) TLSCertPath() string {
	if c.Lnd.TLSCertPath != "" {
		return c.Lnd.TLSCertPath
	}

	return filepath.Join(c.StorageDir, "tls.cert")
}
