package http

import (
	"crypto/tls"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSquareClientConfig(t *testing.T) {
	cfg := SquareClientConfig()

	assert.Equal(t, cfg.MaxIdleConns, cfg.MaxIdleConnsPerHost, "single upstream host gets the whole pool")
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinTLSVersion)
	assert.NotEmpty(t, cfg.UserAgent)
}

func TestNewHTTPClient(t *testing.T) {
	cfg := SquareClientConfig()
	cfg.UserAgent = ""
	client := NewHTTPClient(cfg, 15*time.Second)

	assert.Equal(t, 15*time.Second, client.Timeout)
	transport, ok := client.Transport.(*stdhttp.Transport)
	require.True(t, ok)
	assert.Equal(t, 32, transport.MaxIdleConnsPerHost)
	assert.Equal(t, 20*time.Second, transport.ResponseHeaderTimeout)
	assert.True(t, transport.ForceAttemptHTTP2)
	assert.Equal(t, uint16(tls.VersionTLS12), transport.TLSClientConfig.MinVersion)
}

func TestNewHTTPClient_UserAgent(t *testing.T) {
	var got []string
	server := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		got = append(got, r.Header.Get("User-Agent"))
	}))
	defer server.Close()

	client := NewHTTPClient(SquareClientConfig(), 5*time.Second)

	req, err := stdhttp.NewRequest(stdhttp.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, req.Header.Get("User-Agent"), "caller's request is not modified")

	req, err = stdhttp.NewRequest(stdhttp.MethodGet, server.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "custom")
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, []string{"square-checkout/1.0", "custom"}, got)
}
