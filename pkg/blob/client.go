package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/solidarityfund/fundraiser-backend/pkg/config"
	"github.com/solidarityfund/fundraiser-backend/pkg/logger"
)

const (
	storageEndpoint = "https://storage.googleapis.com/storage/v1"
	uploadEndpoint  = "https://storage.googleapis.com/upload/storage/v1"
	pingTimeout     = 5 * time.Second
	defaultPageSize = 500
)

var (
	// ErrNotFound reports a missing object key.
	ErrNotFound = errors.New("blob: object not found")
	// ErrPreconditionFailed reports a create-if-absent write that lost to an
	// existing object.
	ErrPreconditionFailed = errors.New("blob: object already exists")
)

// Client is a thin key-value view over a bucket: keyed writes with an
// optional overwrite guard, keyed reads, and prefix listing with page cursors.
type Client struct {
	httpClient  *http.Client
	bucket      string
	tokenSource *tokenSource

	// endpoint overrides for tests; defaults applied in NewClient.
	storageBase string
	uploadBase  string
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PutOptions control a single write.
type PutOptions struct {
	ContentType string
	// IfAbsent guards the write with ifGenerationMatch=0 so an existing
	// object makes the call fail with ErrPreconditionFailed.
	IfAbsent bool
}

// Object describes one listed key.
type Object struct {
	Name string `json:"name"`
}

// Page is one prefix-listing result; Cursor is empty on the last page.
type Page struct {
	Objects []Object
	Cursor  string
}

func NewClient(ctx context.Context, cfg config.BlobConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("blob bucket name is required")
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}

	ts, err := newTokenSource(httpClient, gcp)
	if err != nil {
		return nil, err
	}

	client := &Client{
		httpClient:  httpClient,
		bucket:      cfg.BucketName,
		tokenSource: ts,
		storageBase: storageEndpoint,
		uploadBase:  uploadEndpoint,
	}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("blob health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "blob client initialized")
	}

	return client, nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	if c == nil {
		return ""
	}
	return c.bucket
}

// Ping verifies the bucket is reachable with the current credentials.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.tokenSource == nil {
		return errors.New("blob client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/b/%s/o?maxResults=1", c.storageBase, url.PathEscape(c.bucket))
	resp, err := c.do(ctx, http.MethodGet, u, nil, "")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("blob bucket check failed: %s", readErrorBody(resp))
	}
	return nil
}

// Put writes data at key. Overwrites by default; set opts.IfAbsent to turn an
// existing object into ErrPreconditionFailed.
func (c *Client) Put(ctx context.Context, key string, data []byte, opts PutOptions) error {
	if key == "" {
		return errors.New("blob key is required")
	}

	q := url.Values{}
	q.Set("uploadType", "media")
	q.Set("name", key)
	if opts.IfAbsent {
		q.Set("ifGenerationMatch", "0")
	}
	u := fmt.Sprintf("%s/b/%s/o?%s", c.uploadBase, url.PathEscape(c.bucket), q.Encode())

	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/json"
	}

	resp, err := c.do(ctx, http.MethodPost, u, bytes.NewReader(data), contentType)
	if err != nil {
		return fmt.Errorf("blob put %q: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusPreconditionFailed:
		return fmt.Errorf("blob put %q: %w", key, ErrPreconditionFailed)
	default:
		return fmt.Errorf("blob put %q: %s", key, readErrorBody(resp))
	}
}

// Get reads the object stored at key.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("blob key is required")
	}

	u := fmt.Sprintf("%s/b/%s/o/%s?alt=media", c.storageBase, url.PathEscape(c.bucket), url.PathEscape(key))
	resp, err := c.do(ctx, http.MethodGet, u, nil, "")
	if err != nil {
		return nil, fmt.Errorf("blob get %q: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("blob get %q: read body: %w", key, err)
		}
		return data, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("blob get %q: %w", key, ErrNotFound)
	default:
		return nil, fmt.Errorf("blob get %q: %s", key, readErrorBody(resp))
	}
}

// Delete removes the object stored at key. Deleting a missing key returns
// ErrNotFound.
func (c *Client) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("blob key is required")
	}

	u := fmt.Sprintf("%s/b/%s/o/%s", c.storageBase, url.PathEscape(c.bucket), url.PathEscape(key))
	resp, err := c.do(ctx, http.MethodDelete, u, nil, "")
	if err != nil {
		return fmt.Errorf("blob delete %q: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("blob delete %q: %w", key, ErrNotFound)
	default:
		return fmt.Errorf("blob delete %q: %s", key, readErrorBody(resp))
	}
}

// List returns one page of keys under prefix. Pass the previous page's Cursor
// to continue; an empty Cursor on the result means the listing is complete.
func (c *Client) List(ctx context.Context, prefix, cursor string) (*Page, error) {
	q := url.Values{}
	q.Set("maxResults", fmt.Sprint(defaultPageSize))
	if prefix != "" {
		q.Set("prefix", prefix)
	}
	if cursor != "" {
		q.Set("pageToken", cursor)
	}
	u := fmt.Sprintf("%s/b/%s/o?%s", c.storageBase, url.PathEscape(c.bucket), q.Encode())

	resp, err := c.do(ctx, http.MethodGet, u, nil, "")
	if err != nil {
		return nil, fmt.Errorf("blob list %q: %w", prefix, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("blob list %q: %s", prefix, readErrorBody(resp))
	}

	var payload struct {
		Items         []Object `json:"items"`
		NextPageToken string   `json:"nextPageToken"`
	}
	if err := decodeJSON(resp.Body, &payload); err != nil {
		return nil, fmt.Errorf("blob list %q: decode: %w", prefix, err)
	}

	return &Page{Objects: payload.Items, Cursor: payload.NextPageToken}, nil
}

func (c *Client) do(ctx context.Context, method, u string, body io.Reader, contentType string) (*http.Response, error) {
	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return c.httpClient.Do(req)
}

func readErrorBody(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if len(b) > 0 {
		return fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	return resp.Status
}
