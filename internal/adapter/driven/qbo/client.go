// Package qbo implements the LedgerGateway port against the accounting
// platform's REST API.
package qbo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/fiscalsync/fiscalsync/internal/adapter/driven/httpx"
	"github.com/fiscalsync/fiscalsync/internal/domain/model"
	"github.com/fiscalsync/fiscalsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.LedgerGateway = (*Client)(nil)

// Client implements the LedgerGateway port. Payload rejections surface as
// *driven.ValidationError carrying the ledger's own fault message, so the
// sync engine can match the benign-rejection patterns.
type Client struct {
	baseURL string
	realm   string
	tenant  string
	tokens  driven.TokenSource
	http    *http.Client
}

// NewClient creates a Client for one company realm.
func NewClient(baseURL, realm, tenant string, tokens driven.TokenSource) *Client {
	return &Client{baseURL: baseURL, realm: realm, tenant: tenant, tokens: tokens, http: httpx.NewClient(nil)}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client,
// intended for tests injecting an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, realm, tenant string, tokens driven.TokenSource) *Client {
	return &Client{baseURL: baseURL, realm: realm, tenant: tenant, tokens: tokens, http: httpClient}
}

// CreateInvoice posts an invoice payload.
func (c *Client) CreateInvoice(ctx context.Context, payload map[string]any) (driven.CreateResult, error) {
	return c.create(ctx, model.EntityInvoice, payload)
}

// CreateBill posts a bill payload.
func (c *Client) CreateBill(ctx context.Context, payload map[string]any) (driven.CreateResult, error) {
	return c.create(ctx, model.EntityBill, payload)
}

// CreateReceipt posts a sales receipt payload.
func (c *Client) CreateReceipt(ctx context.Context, payload map[string]any) (driven.CreateResult, error) {
	return c.create(ctx, model.EntityReceipt, payload)
}

// CreateVendor posts a vendor payload.
func (c *Client) CreateVendor(ctx context.Context, payload map[string]any) (driven.CreateResult, error) {
	return c.create(ctx, model.EntityVendor, payload)
}

// CreateCustomer posts a customer payload.
func (c *Client) CreateCustomer(ctx context.Context, payload map[string]any) (driven.CreateResult, error) {
	return c.create(ctx, model.EntityCustomer, payload)
}

func (c *Client) create(ctx context.Context, entityType model.LedgerEntityType, payload map[string]any) (driven.CreateResult, error) {
	op := fmt.Sprintf("qbo: create %s", entityType)
	endpoint := fmt.Sprintf("%s/v3/company/%s/%s", c.baseURL, url.PathEscape(c.realm), strings.ToLower(string(entityType)))

	// Creates are posted once, never retried: a 5xx answer does not prove
	// the entity was not written, and the doc-number probe only catches a
	// double post when the ledger enforces uniqueness.
	resp, err := httpx.DoOnce(ctx, c.http, op, func(ctx context.Context) (*http.Request, error) {
		body, err := httpx.EncodeJSON(payload)
		if err != nil {
			return nil, err
		}
		return c.newRequest(ctx, http.MethodPost, endpoint, body, "application/json")
	})
	if err != nil {
		return driven.CreateResult{}, err
	}

	raw, err := c.readEntity(resp, op, string(entityType))
	if err != nil {
		return driven.CreateResult{}, err
	}
	return driven.CreateResult{
		EntityID:  jsonStr(raw, "Id"),
		DocNumber: jsonStr(raw, "DocNumber"),
	}, nil
}

// QueryByDocumentNumber probes for existing records with the given document
// number via the ledger's query endpoint.
func (c *Client) QueryByDocumentNumber(ctx context.Context, entityType model.LedgerEntityType, docNumber string) ([]driven.LedgerRecord, error) {
	op := fmt.Sprintf("qbo: query %s by doc number", entityType)

	query := fmt.Sprintf("select * from %s where DocNumber = '%s'",
		entityType, strings.ReplaceAll(docNumber, "'", "\\'"))
	endpoint := fmt.Sprintf("%s/v3/company/%s/query?query=%s",
		c.baseURL, url.PathEscape(c.realm), url.QueryEscape(query))

	resp, err := httpx.Do(ctx, c.http, op, func(ctx context.Context) (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, endpoint, nil, "")
	})
	if err != nil {
		return nil, err
	}

	var body struct {
		QueryResponse map[string]json.RawMessage `json:"QueryResponse"`
	}
	if err := c.decode(resp, op, &body); err != nil {
		return nil, err
	}

	rawList, ok := body.QueryResponse[string(entityType)]
	if !ok {
		return nil, nil
	}
	var entities []map[string]any
	if err := json.Unmarshal(rawList, &entities); err != nil {
		return nil, fmt.Errorf("%s: decode entity list: %w", op, err)
	}

	records := make([]driven.LedgerRecord, 0, len(entities))
	for _, e := range entities {
		rec := driven.LedgerRecord{
			EntityID:  jsonStr(e, "Id"),
			DocNumber: jsonStr(e, "DocNumber"),
		}
		if ref, ok := e["VendorRef"].(map[string]any); ok {
			rec.VendorID = jsonStr(ref, "value")
		}
		records = append(records, rec)
	}
	return records, nil
}

// UploadAttachment links a binary file to an existing entity via the
// multipart upload endpoint.
func (c *Client) UploadAttachment(ctx context.Context, entityType model.LedgerEntityType, entityID, filename string, data []byte) error {
	op := "qbo: upload attachment"
	endpoint := fmt.Sprintf("%s/v3/company/%s/upload", c.baseURL, url.PathEscape(c.realm))

	metadata, err := json.Marshal(map[string]any{
		"AttachableRef": []map[string]any{{
			"EntityRef": map[string]any{"type": string(entityType), "value": entityID},
		}},
		"FileName":    filename,
		"ContentType": "application/pdf",
	})
	if err != nil {
		return fmt.Errorf("%s: marshal metadata: %w", op, err)
	}

	resp, err := httpx.DoOnce(ctx, c.http, op, func(ctx context.Context) (*http.Request, error) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)

		meta, err := w.CreateFormFile("file_metadata_01", "attachment.json")
		if err != nil {
			return nil, err
		}
		if _, err := meta.Write(metadata); err != nil {
			return nil, err
		}

		file, err := w.CreateFormFile("file_content_01", filename)
		if err != nil {
			return nil, err
		}
		if _, err := file.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}

		return c.newRequest(ctx, http.MethodPost, endpoint, &buf, w.FormDataContentType())
	})
	if err != nil {
		return err
	}
	return c.decode(resp, op, nil)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*http.Request, error) {
	tok, err := c.tokens.Token(ctx, model.PlatformLedger, c.tenant)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// readEntity decodes a create response and returns the created entity
// object keyed by its type name.
func (c *Client) readEntity(resp *http.Response, op, entityKey string) (map[string]any, error) {
	var body map[string]json.RawMessage
	if err := c.decode(resp, op, &body); err != nil {
		return nil, err
	}

	raw, ok := body[entityKey]
	if !ok {
		return map[string]any{}, nil
	}
	var entity map[string]any
	if err := json.Unmarshal(raw, &entity); err != nil {
		return nil, fmt.Errorf("%s: decode entity: %w", op, err)
	}
	return entity, nil
}

// decode reads a response, converting 401/403 into *driven.AuthError,
// other 4xx fault bodies into *driven.ValidationError, and remaining
// non-2xx statuses into *driven.TransportError.
func (c *Client) decode(resp *http.Response, op string, v any) error {
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &driven.AuthError{
			Platform: model.PlatformLedger,
			Err:      &driven.TransportError{Op: op, Status: resp.StatusCode, Body: string(body)},
		}
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if msg := faultMessage(body); msg != "" {
			return &driven.ValidationError{Message: msg}
		}
		return &driven.TransportError{Op: op, Status: resp.StatusCode, Body: string(body)}
	}
	return httpx.DecodeJSON(resp, op, v)
}

// faultMessage extracts the human-readable message from a ledger Fault
// body, or "" when the body is not a recognizable fault.
func faultMessage(body []byte) string {
	var fault struct {
		Fault struct {
			Error []struct {
				Message string `json:"Message"`
				Detail  string `json:"Detail"`
			} `json:"Error"`
		} `json:"Fault"`
	}
	if err := json.Unmarshal(body, &fault); err != nil {
		return ""
	}
	var parts []string
	for _, e := range fault.Fault.Error {
		if e.Message != "" {
			parts = append(parts, e.Message)
		}
		if e.Detail != "" {
			parts = append(parts, e.Detail)
		}
	}
	return strings.Join(parts, "; ")
}

func jsonStr(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
