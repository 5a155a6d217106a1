package providers

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

// Prober checks whether a base URL answers at all before a SOAP client is
// built for it.
type Prober interface {
	Exists(ctx context.Context, baseURL string, timeout time.Duration) (bool, string)
}

type httpProber struct {
	transport http.RoundTripper
}

func NewHTTPProber() Prober {
	return &httpProber{transport: http.DefaultTransport}
}

// Exists issues a HEAD request, retrying once with GET when the server does
// not allow HEAD. The diagnostic is the HTTP status code or the transport
// error.
func (p *httpProber) Exists(ctx context.Context, baseURL string, timeout time.Duration) (bool, string) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := &http.Client{Transport: p.transport, Timeout: timeout}

	code, err := p.status(ctx, client, http.MethodHead, baseURL)
	if err == nil && (code == http.StatusMethodNotAllowed || code == http.StatusNotImplemented) {
		code, err = p.status(ctx, client, http.MethodGet, baseURL)
	}
	if err != nil {
		return false, err.Error()
	}
	return code >= 200 && code < 400, strconv.Itoa(code)
}

func (p *httpProber) status(ctx context.Context, client *http.Client, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}
