package hub

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Lcharvol/MidOrFeed-sub001/internal/bus"
	"github.com/Lcharvol/MidOrFeed-sub001/internal/config"
	"github.com/Lcharvol/MidOrFeed-sub001/internal/lcu"
	"github.com/Lcharvol/MidOrFeed-sub001/internal/overlay"
	"github.com/Lcharvol/MidOrFeed-sub001/internal/settings"
	"github.com/Lcharvol/MidOrFeed-sub001/internal/webapi"
)

// newTestServer wires a full control surface against a never-started
// monitor (status disconnected) and the given remote base URL.
func newTestServer(t *testing.T, remoteURL string) *httptest.Server {
	t.Helper()

	events := bus.New()
	store := settings.NewStore(filepath.Join(t.TempDir(), "settings.yaml"))
	monitor := lcu.NewMonitor(config.LCUConfig{}, events)
	rest := lcu.NewClient(monitor, 0)
	ctrl := overlay.NewController(events, store)
	remote := webapi.NewClient(remoteURL, 0)
	broadcaster := NewBroadcaster(events, monitor)
	t.Cleanup(broadcaster.Close)

	srv := NewServer(monitor, rest, ctrl, store, remote, broadcaster)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return strings.TrimSpace(string(data))
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, "http://127.0.0.1:1")

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	ts := newTestServer(t, "http://127.0.0.1:1")

	resp, err := http.Get(ts.URL + "/api/lcu/status")
	if err != nil {
		t.Fatal(err)
	}
	if got := body(t, resp); got != `{"status":"disconnected"}` {
		t.Errorf("body = %s", got)
	}
}

func TestClientDataEndpointsRenderNullWhenDisconnected(t *testing.T) {
	ts := newTestServer(t, "http://127.0.0.1:1")

	paths := []string{"/api/lcu/summoner", "/api/lcu/champselect", "/api/lcu/lobby"}
	for _, path := range paths {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, resp.StatusCode)
		}
		if got := body(t, resp); got != "null" {
			t.Errorf("%s body = %s, want null", path, got)
		}
	}
}

func TestReconnectReturnsNoContent(t *testing.T) {
	ts := newTestServer(t, "http://127.0.0.1:1")

	resp, err := http.Post(ts.URL+"/api/lcu/reconnect", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
}

func TestOverlayToggle(t *testing.T) {
	ts := newTestServer(t, "http://127.0.0.1:1")

	resp, err := http.Post(ts.URL+"/api/overlay/toggle", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := body(t, resp); got != `{"visible":true}` {
		t.Errorf("first toggle body = %s", got)
	}

	resp, err = http.Post(ts.URL+"/api/overlay/toggle", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := body(t, resp); got != `{"visible":false}` {
		t.Errorf("second toggle body = %s", got)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	ts := newTestServer(t, "http://127.0.0.1:1")

	resp, err := http.Get(ts.URL + "/api/settings")
	if err != nil {
		t.Fatal(err)
	}
	var initial settings.Settings
	if err := json.Unmarshal([]byte(body(t, resp)), &initial); err != nil {
		t.Fatal(err)
	}
	if initial != settings.Defaults() {
		t.Errorf("initial settings = %+v, want defaults", initial)
	}

	req, _ := http.NewRequest(http.MethodPatch, ts.URL+"/api/settings",
		strings.NewReader(`{"language":"en","overlayOpacity":0.5}`))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	var updated settings.Settings
	if err := json.Unmarshal([]byte(body(t, resp)), &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Language != "en" || updated.OverlayOpacity != 0.5 {
		t.Errorf("updated = %+v", updated)
	}
}

func TestSettingsPatchRejectsUnknownKeys(t *testing.T) {
	ts := newTestServer(t, "http://127.0.0.1:1")

	req, _ := http.NewRequest(http.MethodPatch, ts.URL+"/api/settings",
		strings.NewReader(`{"bogus":true}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRunesImportWithoutClientFails(t *testing.T) {
	ts := newTestServer(t, "http://127.0.0.1:1")

	resp, err := http.Post(ts.URL+"/api/runes/import", "application/json",
		strings.NewReader(`{"name":"MidOrFeed: Ahri","primaryStyleId":8100}`))
	if err != nil {
		t.Fatal(err)
	}
	if got := body(t, resp); got != `{"success":false}` {
		t.Errorf("body = %s", got)
	}
}

func TestRemotePassThrough(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"winRate":52.3}`))
	}))
	defer backend.Close()

	ts := newTestServer(t, backend.URL)

	resp, err := http.Get(ts.URL + "/api/remote/champions/103/leadership")
	if err != nil {
		t.Fatal(err)
	}
	if got := body(t, resp); got != `{"winRate":52.3}` {
		t.Errorf("body = %s", got)
	}
}

func TestRemoteFailureRendersNull(t *testing.T) {
	ts := newTestServer(t, "http://127.0.0.1:1")

	resp, err := http.Get(ts.URL + "/api/remote/builds?championId=103&role=mid")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 with null body", resp.StatusCode)
	}
	if got := body(t, resp); got != "null" {
		t.Errorf("body = %s, want null", got)
	}
}
