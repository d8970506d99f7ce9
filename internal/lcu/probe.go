package lcu

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
)

// insecureLoopbackTLS accepts the client's self-signed certificate. The
// config is handed only to the clients in this package that talk to
// 127.0.0.1; validation for every other outbound connection stays intact.
func insecureLoopbackTLS() *tls.Config {
	return &tls.Config{InsecureSkipVerify: true}
}

// Prober verifies that discovered credentials are currently usable.
// A (false, nil) result is a normal failure (client refused, timed out, or
// rejected the auth); a non-nil error is unexpected.
type Prober interface {
	Probe(ctx context.Context, creds Credentials) (bool, error)
}

// summonerProbe issues the cheap authenticated GET the client answers as
// soon as it is ready. Its timeout is deliberately shorter than the REST
// client's default.
type summonerProbe struct {
	client *http.Client
}

func newSummonerProbe(timeout time.Duration) *summonerProbe {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &summonerProbe{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: insecureLoopbackTLS(),
			},
		},
	}
}

func (p *summonerProbe) Probe(ctx context.Context, creds Credentials) (bool, error) {
	url := fmt.Sprintf("https://127.0.0.1:%d/lol-summoner/v1/current-summoner", creds.Port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.SetBasicAuth("riot", creds.Password)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		// Refused or timed out: the client is gone or still loading.
		return false, nil
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK, nil
}
