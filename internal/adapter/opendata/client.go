// Package opendata streams CSV datasets from the Queensland open data portal.
package opendata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/couchcryptid/road-crash-etl-service/internal/domain"
)

// Client fetches CSV resources over plain HTTP GET.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client. The timeout bounds connecting and waiting for
// response headers only, so large bodies can stream for as long as needed.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
			},
		},
		logger: logger,
	}
}

// Open issues a GET for url and returns the response body. Any transport
// failure or non-2xx status is wrapped in domain.ErrStreamTransport.
// The caller must close the returned reader.
func (c *Client) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", domain.ErrStreamTransport, url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: get %s: status %d: %s", domain.ErrStreamTransport, url, resp.StatusCode, body)
	}

	c.logger.Info("dataset stream opened", "url", url, "content_length", resp.ContentLength)
	return &transportBody{rc: resp.Body}, nil
}

// transportBody tags read errors from the network with ErrStreamTransport.
type transportBody struct {
	rc io.ReadCloser
}

func (b *transportBody) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	if err != nil && err != io.EOF {
		err = fmt.Errorf("%w: %w", domain.ErrStreamTransport, err)
	}
	return n, err
}

func (b *transportBody) Close() error { return b.rc.Close() }
