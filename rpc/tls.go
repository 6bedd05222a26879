package rpc

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"google.golang.org/grpc/credentials"
)

// File names looked up in a TLS directory.
const (
	CACertFile     = "ca.pem"
	ServerCertFile = "server.pem"
	ServerKeyFile  = "server.key"
	ClientCertFile = "client.pem"
	ClientKeyFile  = "client.key"
)

var errNoTLSMaterial = errors.New("no tls material")

func loadKeyPair(fs afero.Fs, dir, certFile, keyFile string) (*tls.Certificate, error) {
	certPath := filepath.Join(dir, certFile)
	keyPath := filepath.Join(dir, keyFile)

	for _, path := range []string{certPath, keyPath} {
		exists, err := afero.Exists(fs, path)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, errNoTLSMaterial
		}
	}

	certPEM, err := afero.ReadFile(fs, certPath)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", certPath, err)
	}
	keyPEM, err := afero.ReadFile(fs, keyPath)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", keyPath, err)
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("invalid key pair in %s: %w", dir, err)
	}

	return &cert, nil
}

// loadCAPool returns nil when dir has no CA certificate.
func loadCAPool(fs afero.Fs, dir string) (*x509.CertPool, error) {
	path := filepath.Join(dir, CACertFile)
	exists, err := afero.Exists(fs, path)
	if err != nil || !exists {
		return nil, err
	}

	pem, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}

	return pool, nil
}

// serverCredentials returns nil credentials, meaning plaintext, when dir is
// empty or holds no server key pair. A CA certificate turns on client
// certificate verification.
func serverCredentials(fs afero.Fs, dir string) (credentials.TransportCredentials, error) {
	if dir == "" {
		return nil, nil
	}

	cert, err := loadKeyPair(fs, dir, ServerCertFile, ServerKeyFile)
	if errors.Is(err, errNoTLSMaterial) {
		log.WithField("tls_dir", dir).Warn("no server certificate found, serving without TLS")

		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{*cert},
		MinVersion:   tls.VersionTLS12,
	}

	pool, err := loadCAPool(fs, dir)
	if err != nil {
		return nil, err
	}
	if pool != nil {
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return credentials.NewTLS(cfg), nil
}

// clientCredentials mirrors serverCredentials: ca.pem verifies the server and
// client.pem/client.key are presented when present.
func clientCredentials(fs afero.Fs, dir string) (credentials.TransportCredentials, error) {
	if dir == "" {
		return nil, nil
	}

	pool, err := loadCAPool(fs, dir)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, nil
	}

	cfg := &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}

	cert, err := loadKeyPair(fs, dir, ClientCertFile, ClientKeyFile)
	switch {
	case err == nil:
		cfg.Certificates = []tls.Certificate{*cert}
	case !errors.Is(err, errNoTLSMaterial):
		return nil, err
	}

	return credentials.NewTLS(cfg), nil
}
