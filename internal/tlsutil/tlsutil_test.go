package tlsutil

import (
	"crypto/tls"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureHTTPClient(t *testing.T) {
	c := SecureHTTPClient(42 * time.Second)
	require.NotNil(t, c)
	assert.Equal(t, 42*time.Second, c.Timeout)

	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	require.NotNil(t, tr.TLSClientConfig)
	assert.Equal(t, uint16(tls.VersionTLS12), tr.TLSClientConfig.MinVersion)
	assert.Equal(t, aeadSuites, tr.TLSClientConfig.CipherSuites)
	assert.True(t, tr.ForceAttemptHTTP2)
	assert.Equal(t, 8, tr.MaxIdleConnsPerHost)
}

func TestSecureHTTPClient_NoClientDeadline(t *testing.T) {
	c := SecureHTTPClient(0)
	assert.Zero(t, c.Timeout)
}
