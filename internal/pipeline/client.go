package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client issues API calls through a Transport and reports every failure as *Error.
// It never retries.
type Client struct {
	http       *http.Client
	base       string
	classifier Classifier
}

// NewClient wires transport into an http.Client with the given timeout.
func NewClient(transport *Transport, classifier Classifier, timeout time.Duration) *Client {
	return &Client{
		http:       &http.Client{Transport: transport, Timeout: timeout},
		base:       transport.APIBase,
		classifier: classifier,
	}
}

// URL resolves an API path against the base.
func (c *Client) URL(path string) string {
	return c.base + strings.TrimPrefix(path, "/")
}

// Do sends req. Non-2xx responses are consumed and returned as *Error.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.classifier.Transport(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.classifier.Response(resp)
	}
	return resp, nil
}

// GetJSON performs GET path and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(path), nil)
	if err != nil {
		return c.classifier.Transport(err)
	}
	req.Header.Set("Accept", "application/json")
	return c.roundTripJSON(req, out)
}

// PostJSON performs POST path with in as JSON body and decodes into out.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return c.classifier.Transport(fmt.Errorf("encode request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(path), bytes.NewReader(payload))
	if err != nil {
		return c.classifier.Transport(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.roundTripJSON(req, out)
}

func (c *Client) roundTripJSON(req *http.Request, out any) error {
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return c.classifier.Transport(fmt.Errorf("decode response: %w", err))
	}
	return nil
}
