package valr

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"valrgo/config"
)

// Transport is the HTTP collaborator: send one request, get status and body.
// Connection pooling, TLS and socket level retries live behind it.
type Transport interface {
	Do(ctx context.Context, method, url string, headers http.Header, body []byte) (int, []byte, error)
}

// Clock supplies request timestamps; injected so signature tests are exact.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type httpTransport struct {
	client *http.Client
	agent  string
}

func newHTTPTransport(cfg *config.Config) Transport {
	pool := cfg.HTTP.ConnectionPool
	transport := &http.Transport{
		MaxIdleConns:        pool.MaxIdleConns,
		MaxIdleConnsPerHost: pool.MaxIdleConns,
		MaxConnsPerHost:     pool.MaxConnsPerHost,
		IdleConnTimeout:     pool.IdleConnTimeout,
	}
	timeout := cfg.HTTP.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpTransport{
		client: &http.Client{Transport: transport, Timeout: timeout},
		agent:  cfg.Exchange.UserAgent,
	}
}

func (t *httpTransport) Do(ctx context.Context, method, url string, headers http.Header, body []byte) (int, []byte, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	for name, values := range headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if t.agent != "" {
		req.Header.Set("User-Agent", t.agent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, respBody, nil
}
