// Package httpx holds the HTTP plumbing shared by the gateway adapters:
// bounded timeouts, transient-failure retry, and response decoding.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/fiscalsync/fiscalsync/internal/domain/port/driven"
)

// NewClient returns an http.Client with the bounded timeouts every gateway
// call must respect, wrapping the given transport (nil for the default).
func NewClient(transport http.RoundTripper) *http.Client {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &http.Client{
		Transport: transport,
		Timeout:   45 * time.Second,
	}
}

// maxAttempts bounds the retry loop: one initial try plus three retries.
const maxAttempts = 4

// Do executes the request built by build, retrying network errors and 5xx
// responses with exponential backoff. Requests are rebuilt per attempt so
// bodies are fresh. Non-retryable responses return immediately; op labels
// errors.
func Do(ctx context.Context, client *http.Client, op string, build func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxAttempts-1), ctx)

	var resp *http.Response
	err := backoff.Retry(func() error {
		req, err := build(ctx)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%s: build request: %w", op, err))
		}

		r, err := client.Do(req)
		if err != nil {
			return &driven.TransportError{Op: op, Err: err}
		}

		if r.StatusCode >= 500 {
			body := readBody(r)
			return &driven.TransportError{Op: op, Status: r.StatusCode, Body: body}
		}

		resp = r
		return nil
	}, policy)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// DoOnce executes the request exactly once, with no retry. Intended for
// calls that are not idempotent on the remote side: a create that answered
// 5xx may still have landed, so retransmitting risks a double post. Non-2xx
// responses are returned for the caller's decoder to classify.
func DoOnce(ctx context.Context, client *http.Client, op string, build func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	req, err := build(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &driven.TransportError{Op: op, Err: err}
	}
	return resp, nil
}

// DecodeJSON reads the response body into v and closes it. A non-2xx status
// returns a TransportError carrying the raw body so callers can classify
// ledger rejection messages.
func DecodeJSON(resp *http.Response, op string, v any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &driven.TransportError{Op: op, Status: resp.StatusCode, Body: string(body)}
	}

	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// EncodeJSON serializes v for a request body.
func EncodeJSON(v any) (io.Reader, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return &buf, nil
}

func readBody(r *http.Response) string {
	defer r.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	return string(body)
}
