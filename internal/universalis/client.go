package universalis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const baseURL = "https://universalis.app/api/v2"

const userAgent = "ffuniverse/1.0 (github.com)"

// FetchError describes a failed upstream request: transport failure, non-2xx
// status, or an undecodable payload. Callers treat it as "no data available".
type FetchError struct {
	URL        string
	StatusCode int // 0 when the request never completed
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("universalis %d: %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("universalis: %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client is a rate-limited Universalis HTTP client.
type Client struct {
	http    *http.Client
	sem     chan struct{}
	baseURL string

	snapshots *snapshotCache
}

// NewClient creates a Universalis client capping concurrent requests at
// maxConcurrent (Universalis asks for modest parallelism from third parties).
func NewClient(maxConcurrent int) *Client {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &Client{
		http:      &http.Client{Timeout: 30 * time.Second},
		sem:       make(chan struct{}, maxConcurrent),
		baseURL:   baseURL,
		snapshots: newSnapshotCache(),
	}
}

// GetJSON fetches a URL and decodes JSON into dst.
func (c *Client) GetJSON(ctx context.Context, url string, dst interface{}) error {
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return &FetchError{URL: url, Err: ctx.Err()}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &FetchError{URL: url, Err: err}
	}
	return nil
}

// FetchMarketableIDs fetches the list of all marketable item IDs.
func (c *Client) FetchMarketableIDs(ctx context.Context) ([]int, error) {
	var ids []int
	if err := c.GetJSON(ctx, c.baseURL+"/marketable", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
