package certs

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"time"
)

var ErrExpired = errors.New("certificate expired")

// CertManager loads the server's TLS key pair and checks its validity.
type CertManager struct {
	certFile string
	keyFile  string
	now      func() time.Time
}

// NewCertManager creates a new CertManager for the given PEM files.
func NewCertManager(certFile, keyFile string) *CertManager {
	return &CertManager{certFile: certFile, keyFile: keyFile, now: time.Now}
}

// LoadKeyPair reads the key pair and parses the leaf certificate.
func (cm *CertManager) LoadKeyPair() (tls.Certificate, error) {
	pair, err := tls.LoadX509KeyPair(cm.certFile, cm.keyFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("load key pair: %w", err)
	}
	if pair.Leaf == nil {
		leaf, err := x509.ParseCertificate(pair.Certificate[0])
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("parse certificate: %w", err)
		}
		pair.Leaf = leaf
	}
	return pair, nil
}

// IsExpired checks if a certificate is expired.
func (cm *CertManager) IsExpired(cert *x509.Certificate) bool {
	return cert.NotAfter.Before(cm.now())
}

// ExpiresWithin reports whether cert expires in less than d.
func (cm *CertManager) ExpiresWithin(cert *x509.Certificate, d time.Duration) bool {
	return cert.NotAfter.Before(cm.now().Add(d))
}

// TLSConfig returns a server TLS config for the key pair. An expired
// certificate is an error.
func (cm *CertManager) TLSConfig() (*tls.Config, error) {
	pair, err := cm.LoadKeyPair()
	if err != nil {
		return nil, err
	}
	if cm.IsExpired(pair.Leaf) {
		return nil, fmt.Errorf("%w: %s (not after %s)", ErrExpired, cm.certFile, pair.Leaf.NotAfter.Format(time.RFC3339))
	}
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{pair},
	}, nil
}
