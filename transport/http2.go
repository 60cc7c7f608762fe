// Package transport builds the HTTP client used for keep-alive pings.
// Plain http origins (the usual localhost case) speak HTTP/1.1; https origins negotiate HTTP/2.
package transport

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/http2"
)

// Options configures BuildHTTPClient. TLS paths are all-or-nothing.
type Options struct {
	CertPath string // Client certificate for mTLS
	KeyPath  string // Client key for mTLS
	CAPath   string // CA bundle used to verify the server

	DisableHTTP2 bool
}

// mTLS reports whether any TLS material was configured.
func (o Options) mTLS() bool {
	return o.CertPath != "" || o.KeyPath != "" || o.CAPath != ""
}

// Validate checks that TLS paths are either all set or all empty.
func (o Options) Validate() error {
	if !o.mTLS() {
		return nil
	}
	if o.CertPath == "" {
		return errors.New("certPath required when TLS is configured")
	}
	if o.KeyPath == "" {
		return errors.New("keyPath required when TLS is configured")
	}
	if o.CAPath == "" {
		return errors.New("caPath required when TLS is configured")
	}
	return nil
}

// BuildHTTPClient creates the ping client. Requests carry their own deadlines, so no client Timeout is set.
func BuildHTTPClient(opts Options) (*http.Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	tr := &http.Transport{
		Proxy: nil, // the companion server is local; never route pings through a proxy
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          2,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	if opts.mTLS() {
		tlsConfig, err := buildTLSConfig(opts)
		if err != nil {
			return nil, err
		}
		tr.TLSClientConfig = tlsConfig
	}

	if !opts.DisableHTTP2 {
		if _, err := http2.ConfigureTransports(tr); err != nil {
			return nil, fmt.Errorf("failed to configure HTTP/2: %w", err)
		}
	}

	return &http.Client{Transport: tr}, nil
}

func buildTLSConfig(opts Options) (*tls.Config, error) {
	clientCert, err := tls.LoadX509KeyPair(opts.CertPath, opts.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load client certificate: %w", err)
	}

	caCert, err := os.ReadFile(opts.CAPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to parse CA certificate")
	}

	return &tls.Config{
		Certificates: []tls.Certificate{clientCert},
		RootCAs:      caCertPool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}
