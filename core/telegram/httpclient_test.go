package telegram

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyTransport struct {
	failures int
	calls    int
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	}
	return http.DefaultTransport.RoundTrip(req)
}

func TestRetryTransportRecoversFromDialErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	flaky := &flakyTransport{failures: 2}
	client := &http.Client{Transport: &retryTransport{base: flaky, retries: 3, backoff: time.Millisecond}}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 3, flaky.calls)
}

func TestRetryTransportGivesUp(t *testing.T) {
	flaky := &flakyTransport{failures: 10}
	client := &http.Client{Transport: &retryTransport{base: flaky, retries: 2, backoff: time.Millisecond}}

	_, err := client.Get("http://127.0.0.1:1")
	require.Error(t, err)
	assert.Equal(t, 3, flaky.calls)
}

func TestBuildHTTPClientDefaults(t *testing.T) {
	client := BuildHTTPClient(HTTPClientOptions{})
	assert.Equal(t, 30*time.Second, client.Timeout)
	rt, ok := client.Transport.(*retryTransport)
	require.True(t, ok)
	assert.Equal(t, 3, rt.retries)

	rt = BuildHTTPClient(HTTPClientOptions{Retries: -1}).Transport.(*retryTransport)
	assert.Zero(t, rt.retries)
}
