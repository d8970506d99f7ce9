package lcu

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrNotConnected is returned when a call is attempted with no connected
	// credential snapshot. The REST client never triggers discovery itself.
	ErrNotConnected = errors.New("lcu: not connected")

	// ErrTimeout is returned when a call exceeds its per-call budget.
	ErrTimeout = errors.New("lcu: request timeout")
)

// APIError is a non-2xx response from the client. The raw body is kept for
// caller-side diagnostics.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lcu: api error: %d - %s", e.StatusCode, e.Body)
}

func basicAuth(password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte("riot:"+password))
}

// snapshotter is the slice of the Monitor the REST client borrows
// credentials from.
type snapshotter interface {
	Snapshot() (Status, *Credentials)
}

// Client issues authenticated request/response calls against the local
// client. Stateless per call; no retries. Higher-level operations needing
// resilience compose sequential calls and surface partial failure.
type Client struct {
	monitor snapshotter
	http    *http.Client
	timeout time.Duration
}

func NewClient(monitor snapshotter, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		monitor: monitor,
		timeout: timeout,
		http: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: insecureLoopbackTLS(),
			},
		},
	}
}

// Do performs one call. A 2xx response with an empty body returns
// (nil, nil); no content is not an error. Non-2xx returns *APIError.
func (c *Client) Do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	_, creds := c.monitor.Snapshot()
	if creds == nil {
		return nil, ErrNotConnected
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("lcu: encode body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("https://127.0.0.1:%d%s", creds.Port, path)
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", basicAuth(creds.Password))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %s %s", ErrTimeout, method, path)
		}
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if len(data) == 0 {
		return nil, nil
	}
	return json.RawMessage(data), nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	data, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// CurrentSummoner fetches the logged-in summoner. Failures resolve to nil.
func (c *Client) CurrentSummoner(ctx context.Context) *Summoner {
	var s Summoner
	if err := c.get(ctx, "/lol-summoner/v1/current-summoner", &s); err != nil {
		return nil
	}
	return &s
}

// GameflowPhase fetches the current phase, or "None" on any failure.
func (c *Client) GameflowPhase(ctx context.Context) string {
	var phase string
	if err := c.get(ctx, "/lol-gameflow/v1/gameflow-phase", &phase); err != nil {
		return "None"
	}
	return phase
}

// ChampSelectSession fetches the champion select session. Nil outside of
// champion select.
func (c *Client) ChampSelectSession(ctx context.Context) json.RawMessage {
	data, err := c.Do(ctx, http.MethodGet, "/lol-champ-select/v1/session", nil)
	if err != nil {
		return nil
	}
	return data
}

// Lobby fetches the current lobby, nil when not in one.
func (c *Client) Lobby(ctx context.Context) json.RawMessage {
	data, err := c.Do(ctx, http.MethodGet, "/lol-lobby/v2/lobby", nil)
	if err != nil {
		return nil
	}
	return data
}

// RunePages lists the summoner's rune pages. Empty on failure.
func (c *Client) RunePages(ctx context.Context) []RunePage {
	var pages []RunePage
	if err := c.get(ctx, "/lol-perks/v1/pages", &pages); err != nil {
		return nil
	}
	return pages
}

// DeleteRunePage removes one rune page by id.
func (c *Client) DeleteRunePage(ctx context.Context, pageID int64) error {
	_, err := c.Do(ctx, http.MethodDelete, fmt.Sprintf("/lol-perks/v1/pages/%d", pageID), nil)
	return err
}

// CreateRunePage imports a rune page into the client, replacing any page
// with the same name or carrying our prefix. Delete-then-create is two
// sequential calls; when the create fails after the delete succeeded, the
// partial result is surfaced, not rolled back.
func (c *Client) CreateRunePage(ctx context.Context, page RunePage) error {
	for _, existing := range c.RunePages(ctx) {
		if existing.ID == 0 {
			continue
		}
		if existing.Name == page.Name || strings.HasPrefix(existing.Name, "MidOrFeed") {
			if err := c.DeleteRunePage(ctx, existing.ID); err != nil {
				log.Printf("lcu: delete rune page %d: %v", existing.ID, err)
			}
			break
		}
	}

	page.Current = true
	_, err := c.Do(ctx, http.MethodPost, "/lol-perks/v1/pages", page)
	return err
}
