// Package devpos implements the SourceGateway port against the e-invoicing
// platform's REST API.
package devpos

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/fiscalsync/fiscalsync/internal/adapter/driven/httpx"
	"github.com/fiscalsync/fiscalsync/internal/domain/model"
	"github.com/fiscalsync/fiscalsync/internal/domain/port/driven"
)

// SystemName tags mapping rows created from documents pulled through this
// adapter.
const SystemName = "devpos"

// Compile-time interface satisfaction check.
var _ driven.SourceGateway = (*Client)(nil)

// Client implements the SourceGateway port. The transport stack is an
// httpcache memory cache (conditional GETs against the document list
// endpoints) under the shared retry wrapper; a bearer token is obtained
// from the token source on every call.
type Client struct {
	baseURL string
	tenant  string
	tokens  driven.TokenSource
	http    *http.Client
}

// NewClient creates a Client for one tenant against the given base URL.
func NewClient(baseURL, tenant string, tokens driven.TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		tenant:  tenant,
		tokens:  tokens,
		http:    httpx.NewClient(httpcache.NewMemoryCacheTransport()),
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client,
// intended for tests injecting an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, tenant string, tokens driven.TokenSource) *Client {
	return &Client{baseURL: baseURL, tenant: tenant, tokens: tokens, http: httpClient}
}

// FetchSalesDocuments returns all sales documents issued in [from, to].
func (c *Client) FetchSalesDocuments(ctx context.Context, from, to time.Time) ([]model.FiscalDocument, error) {
	return c.fetchList(ctx, "/api/v3/sales", from, to)
}

// FetchPurchaseDocuments returns all purchase documents received in [from, to].
func (c *Client) FetchPurchaseDocuments(ctx context.Context, from, to time.Time) ([]model.FiscalDocument, error) {
	return c.fetchList(ctx, "/api/v3/purchases", from, to)
}

// FetchCashLikeSales returns the sales in [from, to] that classify as
// cash-like: flagged as simplified invoices or carrying a cash/card payment.
func (c *Client) FetchCashLikeSales(ctx context.Context, from, to time.Time) ([]model.FiscalDocument, error) {
	docs, err := c.FetchSalesDocuments(ctx, from, to)
	if err != nil {
		return nil, err
	}
	var cash []model.FiscalDocument
	for _, d := range docs {
		if d.IsCashLike() {
			cash = append(cash, d)
		}
	}
	return cash, nil
}

// FetchDocumentDetail fetches the full record for one document by its
// natural identifier (EIC or document number). Callers treat failure as
// "no additional detail available".
func (c *Client) FetchDocumentDetail(ctx context.Context, naturalID string) (*model.FiscalDocument, error) {
	const op = "devpos: fetch document detail"

	resp, err := httpx.Do(ctx, c.http, op, func(ctx context.Context) (*http.Request, error) {
		return c.newRequest(ctx, c.baseURL+"/api/v3/invoice/"+url.PathEscape(naturalID))
	})
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := c.decode(resp, op, &raw); err != nil {
		return nil, err
	}
	doc := docFromRaw(raw)
	return &doc, nil
}

func (c *Client) fetchList(ctx context.Context, path string, from, to time.Time) ([]model.FiscalDocument, error) {
	op := "devpos: fetch " + path

	endpoint := fmt.Sprintf("%s%s?fromDate=%s&toDate=%s",
		c.baseURL, path,
		url.QueryEscape(from.UTC().Format(time.RFC3339)),
		url.QueryEscape(to.UTC().Format(time.RFC3339)),
	)

	resp, err := httpx.Do(ctx, c.http, op, func(ctx context.Context) (*http.Request, error) {
		return c.newRequest(ctx, endpoint)
	})
	if err != nil {
		return nil, err
	}

	var body struct {
		Items []map[string]any `json:"items"`
	}
	if err := c.decode(resp, op, &body); err != nil {
		return nil, err
	}

	docs := make([]model.FiscalDocument, 0, len(body.Items))
	for _, raw := range body.Items {
		docs = append(docs, docFromRaw(raw))
	}
	return docs, nil
}

// decode reads a response, reclassifying 401/403 as *driven.AuthError: a
// rejected bearer token is an auth failure, not a transport one, and must
// abort the run under that taxonomy.
func (c *Client) decode(resp *http.Response, op string, v any) error {
	err := httpx.DecodeJSON(resp, op, v)
	var terr *driven.TransportError
	if errors.As(err, &terr) && (terr.Status == http.StatusUnauthorized || terr.Status == http.StatusForbidden) {
		return &driven.AuthError{Platform: model.PlatformSource, Err: err}
	}
	return err
}

func (c *Client) newRequest(ctx context.Context, endpoint string) (*http.Request, error) {
	tok, err := c.tokens.Token(ctx, model.PlatformSource, c.tenant)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("Accept", "application/json")
	return req, nil
}
