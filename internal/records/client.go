// Package records provides the remote record-store collaborator: bearer
// token acquisition and lookup/update of student case records by external
// identifier. Field names at this boundary are opaque internal keys; the
// translation table in fieldmap.go maps them to readable names.
package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Store is the record-store contract the bot depends on. Tests substitute a
// fake implementation.
type Store interface {
	// FindByExternalID returns the record's readable fields, or nil when no
	// record matches.
	FindByExternalID(ctx context.Context, externalID string) (map[string]any, error)

	// UpdateByExternalID writes readable fields to the matching record.
	UpdateByExternalID(ctx context.Context, externalID string, fields map[string]any) error
}

// tokenProvider is satisfied by *TokenSource.
type tokenProvider interface {
	AcquireToken(ctx context.Context) (string, error)
}

// Client talks to the remote list API over HTTPS with bounded timeouts.
type Client struct {
	baseURL    string
	tokens     tokenProvider
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a record-store client. baseURL is the items collection
// URL of the backing list.
func NewClient(baseURL string, tokens tokenProvider, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// listItem is one entry of the items collection response.
type listItem struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

type listResponse struct {
	Value []listItem `json:"value"`
}

// findItem fetches the first item whose Title equals externalID.
func (c *Client) findItem(ctx context.Context, externalID string) (*listItem, int, error) {
	token, err := c.tokens.AcquireToken(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := url.Values{
		"$filter": {fmt.Sprintf("fields/Title eq '%s'", externalID)},
		"$expand": {"fields"},
	}
	reqURL := c.baseURL + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "HonorNonIndexedQueriesWarningMayFailRandomly")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read lookup response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("%s", strings.TrimSpace(string(body)))
	}

	var list listResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode lookup response: %w", err)
	}
	if len(list.Value) == 0 {
		return nil, resp.StatusCode, nil
	}
	return &list.Value[0], resp.StatusCode, nil
}

// FindByExternalID looks up a record and returns its fields translated to
// readable names. Returns nil, nil when no record matches.
func (c *Client) FindByExternalID(ctx context.Context, externalID string) (map[string]any, error) {
	item, status, err := c.findItem(ctx, externalID)
	if err != nil {
		if tokenErr, ok := err.(*TokenError); ok {
			return nil, tokenErr
		}
		return nil, &LookupError{ExternalID: externalID, Status: status, Detail: "query failed", Err: err}
	}
	if item == nil {
		c.logger.Debug("record not found", "external_id", externalID)
		return nil, nil
	}
	return ToReadable(item.Fields), nil
}

// UpdateByExternalID resolves the record's internal item ID and patches its
// fields. The given fields use readable names; unknown names are dropped by
// the translation table.
func (c *Client) UpdateByExternalID(ctx context.Context, externalID string, fields map[string]any) error {
	item, status, err := c.findItem(ctx, externalID)
	if err != nil {
		if tokenErr, ok := err.(*TokenError); ok {
			return tokenErr
		}
		return &UpdateError{ExternalID: externalID, Status: status, Detail: "resolve item", Err: err}
	}
	if item == nil {
		return &UpdateError{ExternalID: externalID, Status: status, Detail: "no record matches the identifier"}
	}

	token, err := c.tokens.AcquireToken(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(ToInternal(fields))
	if err != nil {
		return &UpdateError{ExternalID: externalID, Detail: "encode fields", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+"/"+item.ID+"/fields", bytes.NewReader(payload))
	if err != nil {
		return &UpdateError{ExternalID: externalID, Detail: "build update request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "HonorNonIndexedQueriesWarningMayFailRandomly")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UpdateError{ExternalID: externalID, Detail: "update request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return &UpdateError{ExternalID: externalID, Status: resp.StatusCode, Detail: strings.TrimSpace(string(body))}
	}

	c.logger.Info("record updated", "external_id", externalID, "fields", len(fields))
	return nil
}
