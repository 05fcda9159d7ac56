// SPDX-License-Identifier: Apache-2.0

package certtest_test

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xataio/testkit/pkg/certtest"
)

func TestIssuedServerCertVerifiesAgainstCA(t *testing.T) {
	t.Parallel()

	ca := certtest.NewCA(t)
	kp := ca.IssueServer(t, "localhost", "127.0.0.1")

	require.NoError(t, kp.Leaf.CheckSignatureFrom(leafOf(t, ca.CertPEM)))

	assert.Contains(t, kp.Leaf.DNSNames, "localhost")
	require.Len(t, kp.Leaf.IPAddresses, 1)
	assert.Equal(t, "127.0.0.1", kp.Leaf.IPAddresses[0].String())

	opts := x509.VerifyOptions{
		Roots:     ca.Pool(),
		DNSName:   "localhost",
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	_, err := kp.Leaf.Verify(opts)
	require.NoError(t, err)
}

func TestChainWorksForRealTLSHandshake(t *testing.T) {
	t.Parallel()

	ca := certtest.NewCA(t)

	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "pong")
	}))
	srv.TLS = ca.ServerTLSConfig(t, "127.0.0.1")
	srv.StartTLS()
	t.Cleanup(srv.Close)

	client := &http.Client{
		Transport: &http.Transport{TLSClientConfig: ca.ClientTLSConfig()},
	}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))
}

func TestIssueClient(t *testing.T) {
	t.Parallel()

	ca := certtest.NewCA(t)
	kp := ca.IssueClient(t, "integration-suite")

	assert.Equal(t, "integration-suite", kp.Leaf.Subject.CommonName)
	assert.Contains(t, kp.Leaf.ExtKeyUsage, x509.ExtKeyUsageClientAuth)

	opts := x509.VerifyOptions{
		Roots:     ca.Pool(),
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}
	_, err := kp.Leaf.Verify(opts)
	require.NoError(t, err)
}

func TestWriteFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	ca := certtest.NewCA(t)
	kp := ca.IssueServer(t, "localhost")

	caPath := ca.WriteFile(t, dir)
	certPath, keyPath := kp.WriteFiles(t, dir)

	// The files on disk load back as a usable key pair.
	loaded, err := tls.LoadX509KeyPair(certPath, keyPath)
	require.NoError(t, err)
	assert.NotEmpty(t, loaded.Certificate)

	caPEM, err := os.ReadFile(caPath)
	require.NoError(t, err)

	pool := x509.NewCertPool()
	assert.True(t, pool.AppendCertsFromPEM(caPEM))
}

func leafOf(t *testing.T, certPEM []byte) *x509.Certificate {
	t.Helper()

	block, _ := pem.Decode(certPEM)
	require.NotNil(t, block)

	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)
	return cert
}
