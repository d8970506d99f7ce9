// Package webapi is the pass-through to the remote MidOrFeed web API. The
// remote side is an opaque collaborator: failures of any kind resolve to a
// null result, never a fatal error. Certificate validation is the normal
// default here; only the loopback client connection skips it.
package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// ChampionLeadership fetches aggregate champion stats. Nil on any failure.
func (c *Client) ChampionLeadership(ctx context.Context, championID int) json.RawMessage {
	return c.get(ctx, fmt.Sprintf("/api/champions/%d/leadership", championID))
}

// Build fetches the recommended build for a champion/role pair. Nil on any
// failure.
func (c *Client) Build(ctx context.Context, championID int, role string) json.RawMessage {
	q := url.Values{}
	q.Set("championId", strconv.Itoa(championID))
	q.Set("role", role)
	return c.get(ctx, "/api/builds?"+q.Encode())
}

func (c *Client) get(ctx context.Context, path string) json.RawMessage {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("webapi: GET %s: %v", path, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("webapi: GET %s: status %d", path, resp.StatusCode)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil || !json.Valid(data) {
		return nil
	}
	return json.RawMessage(data)
}
