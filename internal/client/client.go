// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package client reads schemes, results and data records from the
// classification backend's REST API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/pdiddy/resultlens/internal/httputil"
	"github.com/pdiddy/resultlens/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "resultlens"
	defaultPageSize  = 100
	maxErrorBody     = 4 << 10
)

var (
	// ErrNotFound is matched by APIErrors for HTTP 404.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is matched by APIErrors for HTTP 401 and 403.
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Method     string
	URL        string
	StatusCode int

	// Detail is the backend's "detail" message, or the start of the body.
	Detail string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is lets errors.Is match ErrNotFound and ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPageSize sets the skip/limit page size for list endpoints.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// Client is a read-only backend client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	maxRetries int
	pageSize   int
	http       *http.Client
	logger     *zap.Logger
}

// New returns a client for cfg.BaseURL.
func New(cfg types.APIConfig, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("api base_url is not configured")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid api base_url %q: %w", cfg.BaseURL, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	c := &Client{
		baseURL:    base,
		token:      cfg.Token,
		userAgent:  ua,
		maxRetries: cfg.MaxRetries,
		pageSize:   defaultPageSize,
		http:       &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ResultQuery narrows ListResults. Zero values mean no restriction.
type ResultQuery struct {
	// RunID selects one classification run (the backend's job id).
	RunID int

	// DatarecordIDs restricts results to these data records.
	DatarecordIDs []int

	// SchemeIDs restricts results to these schemes.
	SchemeIDs []int
}

func (q ResultQuery) values() url.Values {
	v := url.Values{}
	if q.RunID != 0 {
		v.Set("job_id", strconv.Itoa(q.RunID))
	}
	for _, id := range q.DatarecordIDs {
		v.Add("datarecord_ids", strconv.Itoa(id))
	}
	for _, id := range q.SchemeIDs {
		v.Add("scheme_ids", strconv.Itoa(id))
	}
	return v
}

// ListSchemes returns every classification scheme of a workspace.
func (c *Client) ListSchemes(ctx context.Context, workspaceID int) ([]types.Scheme, error) {
	var out []types.Scheme
	err := c.list(ctx, workspacePath(workspaceID, "classification_schemes"), nil, func(item []byte) error {
		var s types.Scheme
		if err := json.Unmarshal(item, &s); err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing schemes: %w", err)
	}
	return out, nil
}

// GetScheme returns one scheme. A missing scheme yields an error matching ErrNotFound.
func (c *Client) GetScheme(ctx context.Context, workspaceID, schemeID int) (types.Scheme, error) {
	body, err := c.get(ctx, workspacePath(workspaceID, "classification_schemes", strconv.Itoa(schemeID)), nil)
	if err != nil {
		return types.Scheme{}, fmt.Errorf("getting scheme %d: %w", schemeID, err)
	}
	var s types.Scheme
	if err := json.Unmarshal(body, &s); err != nil {
		return types.Scheme{}, fmt.Errorf("decoding scheme %d: %w", schemeID, err)
	}
	return s, nil
}

// ListResults returns the classification results matching q.
func (c *Client) ListResults(ctx context.Context, workspaceID int, q ResultQuery) ([]types.Result, error) {
	var out []types.Result
	err := c.list(ctx, workspacePath(workspaceID, "classification_results"), q.values(), func(item []byte) error {
		var r types.Result
		if err := json.Unmarshal(item, &r); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	return out, nil
}

// ListEntities returns the data records of one data source.
func (c *Client) ListEntities(ctx context.Context, workspaceID, contentID int) ([]types.Entity, error) {
	var out []types.Entity
	path := workspacePath(workspaceID, "datarecords", "by_datasource", strconv.Itoa(contentID))
	err := c.list(ctx, path, nil, func(item []byte) error {
		var e types.Entity
		if err := json.Unmarshal(item, &e); err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing data records of source %d: %w", contentID, err)
	}
	return out, nil
}

func workspacePath(workspaceID int, parts ...string) string {
	return "/workspaces/" + strconv.Itoa(workspaceID) + "/" + strings.Join(parts, "/")
}

// list pages through a skip/limit endpoint, calling fn once per item. Pages
// may be bare arrays or {"data": [...], "count": n} envelopes. Paging stops at
// a short page or once count items have been read.
func (c *Client) list(ctx context.Context, path string, query url.Values, fn func([]byte) error) error {
	seen := 0
	for skip := 0; ; skip += c.pageSize {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("skip", strconv.Itoa(skip))
		q.Set("limit", strconv.Itoa(c.pageSize))

		body, err := c.get(ctx, path, q)
		if err != nil {
			return err
		}

		page := gjson.ParseBytes(body)
		total := -1
		if page.IsObject() {
			if n := page.Get("count"); n.Exists() {
				total = int(n.Int())
			}
			page = page.Get("data")
		}
		if !page.IsArray() {
			return fmt.Errorf("GET %s: unexpected response shape", path)
		}

		items := page.Array()
		for i, item := range items {
			if err := fn([]byte(item.Raw)); err != nil {
				return fmt.Errorf("decoding item %d of %s: %w", skip+i, path, err)
			}
		}
		seen += len(items)
		if len(items) < c.pageSize || (total >= 0 && seen >= total) {
			return nil
		}
	}
}

// get issues one GET with retries and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.maxRetries, c.logger)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{
			Method:     http.MethodGet,
			URL:        path,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(data),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response of %s: %w", path, err)
	}
	return body, nil
}

// errorDetail pulls a message out of an error body. FastAPI sends
// {"detail": "..."} or {"detail": [{"msg": "..."}]}.
func errorDetail(body []byte) string {
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(string(body))
	}
	detail := gjson.GetBytes(body, "detail")
	switch {
	case detail.Type == gjson.String:
		return detail.Str
	case detail.IsArray():
		var msgs []string
		for _, d := range detail.Array() {
			if m := d.Get("msg"); m.Exists() {
				msgs = append(msgs, m.String())
			}
		}
		return strings.Join(msgs, "; ")
	case detail.Exists():
		return detail.Raw
	}
	return ""
}
