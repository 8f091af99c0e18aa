// Package stats talks to the hit-counter service that records endpoint hits
// and serves view counts.
package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DateTimeLayout is the timestamp format of the stats API.
const DateTimeLayout = "2006-01-02 15:04:05"

// View counts are read over a fixed window wide enough to cover every hit.
var (
	viewsFrom = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	viewsTo   = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
)

// Hit is a single recorded request.
type Hit struct {
	App       string
	URI       string
	IP        string
	Timestamp time.Time
}

type hitBody struct {
	App       string `json:"app"`
	URI       string `json:"uri"`
	IP        string `json:"ip"`
	Timestamp string `json:"timestamp"`
}

// ViewStats is one aggregated row.
type ViewStats struct {
	App  string `json:"app"`
	URI  string `json:"uri"`
	Hits int64  `json:"hits"`
}

// Query selects hits by time window and uri list.
type Query struct {
	Start  time.Time
	End    time.Time
	URIs   []string
	Unique bool
}

// Client is an HTTP client of the stats service.
type Client struct {
	baseURL string
	app     string
	http    *http.Client
}

func NewClient(baseURL, app string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		app:     app,
		http:    &http.Client{Timeout: timeout},
	}
}

// App is the application name hits are recorded under.
func (c *Client) App() string {
	return c.app
}

// RecordHit posts a hit.
func (c *Client) RecordHit(ctx context.Context, h Hit) error {
	body, err := json.Marshal(hitBody{
		App:       h.App,
		URI:       h.URI,
		IP:        h.IP,
		Timestamp: h.Timestamp.UTC().Format(DateTimeLayout),
	})
	if err != nil {
		return fmt.Errorf("encode hit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/hit", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build hit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post hit: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("post hit: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Stats fetches aggregated hits.
func (c *Client) Stats(ctx context.Context, q Query) ([]ViewStats, error) {
	params := url.Values{}
	params.Set("start", q.Start.UTC().Format(DateTimeLayout))
	params.Set("end", q.End.UTC().Format(DateTimeLayout))
	if len(q.URIs) > 0 {
		params.Set("uris", strings.Join(q.URIs, ","))
	}
	params.Set("unique", fmt.Sprint(q.Unique))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build stats request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get stats: unexpected status %d", resp.StatusCode)
	}

	var out []ViewStats
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return out, nil
}

// ViewCounts returns unique-viewer counts keyed by uri. Uris without hits
// are absent.
func (c *Client) ViewCounts(ctx context.Context, uris []string) (map[string]int64, error) {
	out := make(map[string]int64, len(uris))
	if len(uris) == 0 {
		return out, nil
	}
	rows, err := c.Stats(ctx, Query{Start: viewsFrom, End: viewsTo, URIs: uris, Unique: true})
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.URI] += r.Hits
	}
	return out, nil
}

// EventURI is the uri under which views of an event are recorded.
func EventURI(eventID uint) string {
	return fmt.Sprintf("/events/%d", eventID)
}
