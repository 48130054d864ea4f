// Package remote is the HTTP client of the flatbridge boundary. Every call
// carries the bearer token and maps failures onto ErrTransport, ErrNotFound,
// ErrServer and ErrProtocol.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/dracory/flatbridge/shared/constants"
	"github.com/dracory/flatbridge/shared/types"
)

// DefaultMaxBody bounds any response body held in memory.
const DefaultMaxBody int64 = 512 << 20

// Client talks to one boundary server.
type Client struct {
	baseURL    string
	maxBody    int64
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithMaxBody bounds response bodies.
func WithMaxBody(n int64) Option {
	return func(c *Client) { c.maxBody = n }
}

// New creates a client for baseURL, e.g. "http://localhost:8000".
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		maxBody:    DefaultMaxBody,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetToken replaces the bearer token used by every later call. Empty sends
// no Authorization header.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the bearer token in use.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListTables calls GET /api/clickhouse/tables.
func (c *Client) ListTables(ctx context.Context) ([]string, error) {
	var out types.TablesResponse
	if err := c.getJSON(ctx, constants.RouteTables, &out); err != nil {
		return nil, err
	}
	if out.Tables == nil {
		return nil, fmt.Errorf("%w: tables missing from response", ErrProtocol)
	}
	return out.Tables, nil
}

// Schema calls GET /api/clickhouse/schema/{table}. The name is sent as given.
func (c *Client) Schema(ctx context.Context, table string) ([]types.Column, error) {
	var out types.SchemaResponse
	if err := c.getJSON(ctx, tablePath(constants.RouteSchema, table), &out); err != nil {
		return nil, err
	}
	if out.Columns == nil {
		return nil, fmt.Errorf("%w: columns missing from response", ErrProtocol)
	}
	return out.Columns, nil
}

// Query calls POST /api/clickhouse/query with the text verbatim and returns
// the positional rows.
func (c *Client) Query(ctx context.Context, text string) ([][]any, error) {
	var out types.QueryResponse
	if err := c.postJSON(ctx, constants.RouteQuery, types.QueryRequest{Query: text}, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, fmt.Errorf("%w: data missing from response", ErrProtocol)
	}
	return out.Data, nil
}

// PreviewJoin calls POST /api/clickhouse/preview: the first rows of a
// projection over one or more joined tables.
func (c *Client) PreviewJoin(ctx context.Context, in types.PreviewRequest) ([][]any, error) {
	var out types.PreviewResponse
	if err := c.postJSON(ctx, constants.RoutePreview, in, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, fmt.Errorf("%w: data missing from response", ErrProtocol)
	}
	return out.Data, nil
}

// Upload calls POST /api/flatfile/upload. tableName and delimiter are
// optional; the server parses with a comma when delimiter is empty.
func (c *Client) Upload(ctx context.Context, filename string, data []byte, tableName, delimiter string) (types.UploadResponse, error) {
	fields := map[string]string{}
	if tableName != "" {
		fields[constants.FieldTableName] = tableName
	}
	if delimiter != "" {
		fields[constants.FieldDelimiter] = delimiter
	}
	req, err := c.multipartRequest(ctx, constants.RouteFileUpload, filename, data, fields)
	if err != nil {
		return types.UploadResponse{}, err
	}

	var out types.UploadResponse
	if err := c.doJSON(req, &out); err != nil {
		return types.UploadResponse{}, err
	}
	if out.Columns == nil {
		return out, fmt.Errorf("%w: columns missing from response", ErrProtocol)
	}
	return out, nil
}

// Ingest calls POST /api/flatfile/ingest with the file and the request JSON
// in one multipart body.
func (c *Client) Ingest(ctx context.Context, filename string, data []byte, in types.IngestRequest) (types.IngestResponse, error) {
	raw, err := sonic.MarshalString(in)
	if err != nil {
		return types.IngestResponse{}, fmt.Errorf("marshal ingest request: %w", err)
	}
	req, err := c.multipartRequest(ctx, constants.RouteFileIngest, filename, data,
		map[string]string{constants.FieldRequest: raw})
	if err != nil {
		return types.IngestResponse{}, err
	}

	var out types.IngestResponse
	if err := c.doJSON(req, &out); err != nil {
		return types.IngestResponse{}, err
	}
	return out, nil
}

// Download calls GET /api/flatfile/download/{table}?format=&columns= and
// returns the blob. Column names are joined with literal commas.
func (c *Client) Download(ctx context.Context, table, format string, columns []string) ([]byte, error) {
	cols := make([]string, len(columns))
	for i, col := range columns {
		cols[i] = url.QueryEscape(col)
	}
	path := tablePath(constants.RouteFileDownload, table) +
		"?format=" + url.QueryEscape(format) +
		"&columns=" + strings.Join(cols, ",")

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// Ping calls POST /api/clickhouse/ping and returns the server message.
func (c *Client) Ping(ctx context.Context, in types.PingRequest) (string, error) {
	body, err := sonic.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("marshal ping: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, constants.RoutePing, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var env struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := c.doJSON(req, &env); err != nil {
		return "", err
	}
	if env.Status != "success" {
		return "", &StatusError{Code: http.StatusOK, Message: env.Message, kind: ErrServer}
	}
	return env.Message, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := sonic.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) multipartRequest(ctx context.Context, path, filename string, data []byte, fields map[string]string) (*http.Request, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(constants.FieldFile, filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrProtocol, req.URL.Path, err)
	}
	return nil
}

// do sends req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrProtocol, c.maxBody)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &StatusError{Code: resp.StatusCode, Message: serverMessage(body), kind: ErrNotFound}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{Code: resp.StatusCode, Message: serverMessage(body), kind: ErrServer}
	}
	return body, nil
}

func tablePath(route, table string) string {
	return strings.Replace(route, "{table}", url.PathEscape(table), 1)
}
