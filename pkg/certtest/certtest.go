// SPDX-License-Identifier: Apache-2.0

// Package certtest generates throwaway certificate chains for TLS tests: a
// self-signed CA plus server or client leaf certificates signed by it. Keys
// are ECDSA P-256 and certificates are valid for 24 hours, which outlives
// any test run without leaving long-lived credentials behind.
package certtest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// CA is a self-signed certificate authority for a single test.
type CA struct {
	cert *x509.Certificate
	key  *ecdsa.PrivateKey

	// CertPEM is the PEM-encoded CA certificate.
	CertPEM []byte
}

// KeyPair is a leaf certificate with its private key.
type KeyPair struct {
	// Certificate is ready for use in a tls.Config.
	Certificate tls.Certificate

	// CertPEM and KeyPEM are the PEM encodings of the certificate and
	// its private key.
	CertPEM []byte
	KeyPEM  []byte

	// Leaf is the parsed certificate.
	Leaf *x509.Certificate
}

// NewCA creates a self-signed CA.
func NewCA(t *testing.T) *CA {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate CA key: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: randomSerial(t),
		Subject: pkix.Name{
			CommonName:   "testkit CA",
			Organization: []string{"testkit"},
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("Failed to create CA certificate: %v", err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("Failed to parse CA certificate: %v", err)
	}

	return &CA{
		cert:    cert,
		key:     key,
		CertPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
	}
}

// IssueServer issues a server certificate for the given hosts. Hosts that
// parse as IP addresses become IP SANs, the rest become DNS SANs.
func (ca *CA) IssueServer(t *testing.T, hosts ...string) *KeyPair {
	t.Helper()

	if len(hosts) == 0 {
		t.Fatal("IssueServer needs at least one host")
	}

	template := &x509.Certificate{
		SerialNumber: randomSerial(t),
		Subject: pkix.Name{
			CommonName:   hosts[0],
			Organization: []string{"testkit"},
		},
		NotBefore:   time.Now().Add(-time.Hour),
		NotAfter:    time.Now().Add(24 * time.Hour),
		KeyUsage:    x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	for _, host := range hosts {
		if ip := net.ParseIP(host); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, host)
		}
	}

	return ca.issue(t, template)
}

// IssueClient issues a client certificate with the given common name.
func (ca *CA) IssueClient(t *testing.T, commonName string) *KeyPair {
	t.Helper()

	template := &x509.Certificate{
		SerialNumber: randomSerial(t),
		Subject: pkix.Name{
			CommonName:   commonName,
			Organization: []string{"testkit"},
		},
		NotBefore:   time.Now().Add(-time.Hour),
		NotAfter:    time.Now().Add(24 * time.Hour),
		KeyUsage:    x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}

	return ca.issue(t, template)
}

// Pool returns a certificate pool containing only this CA, for use as
// RootCAs or ClientCAs in a tls.Config.
func (ca *CA) Pool() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(ca.cert)
	return pool
}

// ServerTLSConfig issues a server certificate for the given hosts and wraps
// it in a tls.Config.
func (ca *CA) ServerTLSConfig(t *testing.T, hosts ...string) *tls.Config {
	t.Helper()

	kp := ca.IssueServer(t, hosts...)
	return &tls.Config{Certificates: []tls.Certificate{kp.Certificate}}
}

// ClientTLSConfig returns a tls.Config that trusts this CA.
func (ca *CA) ClientTLSConfig() *tls.Config {
	return &tls.Config{RootCAs: ca.Pool()}
}

// WriteFile writes the CA certificate to dir as ca.pem and returns its path.
func (ca *CA) WriteFile(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "ca.pem")
	if err := os.WriteFile(path, ca.CertPEM, 0o644); err != nil {
		t.Fatalf("Failed to write CA certificate: %v", err)
	}
	return path
}

// WriteFiles writes the certificate and key to dir as cert.pem and key.pem
// and returns their paths.
func (kp *KeyPair) WriteFiles(t *testing.T, dir string) (certPath, keyPath string) {
	t.Helper()

	certPath = filepath.Join(dir, "cert.pem")
	if err := os.WriteFile(certPath, kp.CertPEM, 0o644); err != nil {
		t.Fatalf("Failed to write certificate: %v", err)
	}

	keyPath = filepath.Join(dir, "key.pem")
	if err := os.WriteFile(keyPath, kp.KeyPEM, 0o600); err != nil {
		t.Fatalf("Failed to write key: %v", err)
	}

	return certPath, keyPath
}

func (ca *CA) issue(t *testing.T, template *x509.Certificate) *KeyPair {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	der, err := x509.CreateCertificate(rand.Reader, template, ca.cert, &key.PublicKey, ca.key)
	if err != nil {
		t.Fatalf("Failed to create certificate: %v", err)
	}

	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("Failed to parse certificate: %v", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("Failed to marshal key: %v", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	certificate, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		t.Fatalf("Failed to build TLS certificate: %v", err)
	}

	return &KeyPair{
		Certificate: certificate,
		CertPEM:     certPEM,
		KeyPEM:      keyPEM,
		Leaf:        leaf,
	}
}

func randomSerial(t *testing.T) *big.Int {
	t.Helper()

	limit := new(big.Int).Lsh(big.NewInt(1), 128)
	serial, err := rand.Int(rand.Reader, limit)
	if err != nil {
		t.Fatalf("Failed to generate serial number: %v", err)
	}
	return serial
}
