package tablestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hoopwithher/polystore/internal/backend"
	"github.com/hoopwithher/polystore/internal/document"
)

// client speaks the table service's REST dialect: per-table endpoints,
// column filters in the query string, JSON rows, exact counts via the
// Prefer header and Content-Range.
type client struct {
	base *url.URL
	key  string
	http *http.Client
}

func (c *client) endpoint(table string, params url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + table
	u.RawQuery = params.Encode()
	return u.String()
}

func (c *client) newRequest(ctx context.Context, method, rawURL string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, err
	}
	if c.key != "" {
		req.Header.Set("apikey", c.key)
		req.Header.Set("Authorization", "Bearer "+c.key)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// getRows fetches all rows matching params as documents.
func (c *client) getRows(ctx context.Context, op, table string, params url.Values) ([]document.Document, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("select", "*")

	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint(table, params), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, backend.NewUnavailable(backend.KindTableService, op, err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(op, table, resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, backend.NewUnavailable(backend.KindTableService, op, err)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%s: decode response for table %q: %w", op, table, err)
	}

	rows := make([]document.Document, len(raw))
	for i, r := range raw {
		var doc document.Document
		if err := json.Unmarshal(r, &doc); err != nil {
			return nil, fmt.Errorf("%s: decode row %d of table %q: %w", op, i, table, err)
		}
		rows[i] = doc
	}
	return rows, nil
}

// countExact asks the service for an exact match count without
// transferring rows.
func (c *client) countExact(ctx context.Context, table string, params url.Values) (int64, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("select", "*")

	req, err := c.newRequest(ctx, http.MethodHead, c.endpoint(table, params), nil)
	if err != nil {
		return 0, fmt.Errorf("count_documents: %w", err)
	}
	req.Header.Set("Prefer", "count=exact")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, backend.NewUnavailable(backend.KindTableService, "count_documents", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus("count_documents", table, resp); err != nil {
		return 0, err
	}
	return parseContentRangeTotal(resp.Header.Get("Content-Range"))
}

// insertRow posts one row. A unique-constraint conflict comes back as
// 409 and maps to DuplicateKeyError.
func (c *client) insertRow(ctx context.Context, table string, doc document.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("insert_one: encode row: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint(table, url.Values{}), body)
	if err != nil {
		return fmt.Errorf("insert_one: %w", err)
	}
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.http.Do(req)
	if err != nil {
		return backend.NewUnavailable(backend.KindTableService, "insert_one", err)
	}
	defer resp.Body.Close()
	return c.checkStatus("insert_one", table, resp)
}

// patchRows patches every row matching params with the given fields.
// Callers narrow params to a single row before calling.
func (c *client) patchRows(ctx context.Context, table string, params url.Values, fields document.Document) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("update_one: encode patch: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPatch, c.endpoint(table, params), body)
	if err != nil {
		return fmt.Errorf("update_one: %w", err)
	}
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.http.Do(req)
	if err != nil {
		return backend.NewUnavailable(backend.KindTableService, "update_one", err)
	}
	defer resp.Body.Close()
	return c.checkStatus("update_one", table, resp)
}

// deleteRows deletes every row matching params.
func (c *client) deleteRows(ctx context.Context, table string, params url.Values) error {
	req, err := c.newRequest(ctx, http.MethodDelete, c.endpoint(table, params), nil)
	if err != nil {
		return fmt.Errorf("delete_one: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return backend.NewUnavailable(backend.KindTableService, "delete_one", err)
	}
	defer resp.Body.Close()
	return c.checkStatus("delete_one", table, resp)
}

// ping verifies the service answers at all; any non-5xx response counts.
func (c *client) ping(ctx context.Context) error {
	u := *c.base
	req, err := c.newRequest(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return backend.NewUnavailable(backend.KindTableService, "ping", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return backend.NewUnavailable(backend.KindTableService, "ping",
			fmt.Errorf("service answered %s", resp.Status))
	}
	return nil
}

// checkStatus maps HTTP failures onto the shared taxonomy: 409 is a
// unique-constraint conflict, 5xx and transport-level trouble mean the
// backend is unavailable, and remaining 4xx are caller errors passed
// through with the response body for context.
func (c *client) checkStatus(op, table string, resp *http.Response) error {
	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict:
		return &backend.DuplicateKeyError{Collection: table}
	case resp.StatusCode >= 500:
		return backend.NewUnavailable(backend.KindTableService, op,
			fmt.Errorf("table %q: service answered %s", table, resp.Status))
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%s: table %q: %s: %s", op, table, resp.Status, strings.TrimSpace(string(snippet)))
	}
}

// parseContentRangeTotal extracts the total from a "items 0-24/3573" or
// "*/3573" Content-Range value.
func parseContentRangeTotal(header string) (int64, error) {
	idx := strings.LastIndexByte(header, '/')
	if idx < 0 || idx == len(header)-1 {
		return 0, fmt.Errorf("count_documents: malformed Content-Range %q", header)
	}
	total := header[idx+1:]
	if total == "*" {
		return 0, fmt.Errorf("count_documents: service omitted exact count in %q", header)
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("count_documents: malformed Content-Range %q: %w", header, err)
	}
	return n, nil
}
