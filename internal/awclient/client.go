package awclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/brayo-pip/aw-watcher-network/internal/activity"
	"github.com/brayo-pip/aw-watcher-network/internal/common"
)

const (
	defaultTimeout   = 10 * time.Second
	maxErrorBodySize = 4096
)

var (
	// ErrUnexpected indicates a status code the client does not know how to handle.
	ErrUnexpected = errors.New("unexpected status code")
	// ErrInvalidResponse indicates a response body that could not be decoded.
	ErrInvalidResponse = errors.New("invalid response payload")
)

// Client talks to an ActivityWatch-compatible event-store over its REST API.
type Client struct {
	baseURL string
	name    string
	httpCfg common.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// New creates a client for the server at host:port identifying itself as name.
func New(host string, port uint16, name string, httpClient *http.Client) *Client {
	return NewWithBaseURL(fmt.Sprintf("http://%s:%d", host, port), name, httpClient)
}

// NewWithBaseURL creates a client for an explicit base URL such as an httptest server.
func NewWithBaseURL(baseURL, name string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: baseURL,
		name:    name,
		httpCfg: common.HTTPClientConfig{Client: httpClient},
		circuit: common.NewBreaker("aw-server"),
	}
}

// CreateBucket registers a bucket. An already registered bucket yields
// activity.ErrBucketExists.
func (c *Client) CreateBucket(ctx context.Context, b activity.Bucket) error {
	if b.Data == nil {
		b.Data = map[string]any{}
	}
	resp, err := c.do(ctx, http.MethodPost, c.bucketPath(b.ID), nil, b)
	if err != nil {
		return fmt.Errorf("create bucket %s: %w", b.ID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return activity.ErrBucketExists
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	}

	body := readErrorBody(resp)
	if resp.StatusCode == http.StatusBadRequest && common.HasAny(body, "already exists") {
		return activity.ErrBucketExists
	}
	return fmt.Errorf("create bucket %s: %w: %d %s", b.ID, ErrUnexpected, resp.StatusCode, body)
}

// GetBucket fetches bucket metadata.
func (c *Client) GetBucket(ctx context.Context, id string) (activity.Bucket, error) {
	var b activity.Bucket
	if err := c.getJSON(ctx, c.bucketPath(id), nil, &b); err != nil {
		return activity.Bucket{}, fmt.Errorf("get bucket %s: %w", id, err)
	}
	return b, nil
}

// Heartbeat submits an event that the server merges into the bucket's last
// event when the data matches and the gap is within pulsetime.
func (c *Client) Heartbeat(ctx context.Context, bucketID string, ev activity.Event, pulsetime time.Duration) error {
	q := url.Values{}
	q.Set("pulsetime", strconv.FormatFloat(pulsetime.Seconds(), 'f', -1, 64))

	resp, err := c.do(ctx, http.MethodPost, c.bucketPath(bucketID)+"/heartbeat", q, ev)
	if err != nil {
		return fmt.Errorf("heartbeat %s: %w", bucketID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("heartbeat %s: %w", bucketID, activity.ErrBucketNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("heartbeat %s: %w: %d %s", bucketID, ErrUnexpected, resp.StatusCode, readErrorBody(resp))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Events returns up to limit events of a bucket, newest first.
func (c *Client) Events(ctx context.Context, bucketID string, limit int) ([]activity.Event, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var events []activity.Event
	if err := c.getJSON(ctx, c.bucketPath(bucketID)+"/events", q, &events); err != nil {
		return nil, fmt.Errorf("get events %s: %w", bucketID, err)
	}
	return events, nil
}

func (c *Client) bucketPath(id string) string {
	return "/api/0/buckets/" + url.PathEscape(id)
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return activity.ErrBucketNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d %s", ErrUnexpected, resp.StatusCode, readErrorBody(resp))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body any) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		var r io.Reader
		if payload != nil {
			r = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, r)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("User-Agent", c.name)
		return req, nil
	}

	return common.DoRequest(ctx, c.httpCfg, c.circuit, buildRequest)
}

func readErrorBody(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	return string(bytes.TrimSpace(b))
}
