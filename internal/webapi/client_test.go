package webapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChampionLeadershipPassesThrough(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"winRate":52.3}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, 0)
	data := c.ChampionLeadership(context.Background(), 103)

	if gotPath != "/api/champions/103/leadership" {
		t.Errorf("path = %q", gotPath)
	}
	if string(data) != `{"winRate":52.3}` {
		t.Errorf("data = %s", data)
	}
}

func TestBuildQueryParams(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, 0)
	if data := c.Build(context.Background(), 103, "mid"); data == nil {
		t.Fatal("expected a result")
	}
	if gotQuery != "championId=103&role=mid" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestFailuresResolveToNil(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}},
		{"invalid json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{broken`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			c := NewClient(ts.URL, 0)
			if data := c.ChampionLeadership(context.Background(), 1); data != nil {
				t.Errorf("got %s, want nil", data)
			}
		})
	}
}

func TestUnreachableServerResolvesToNil(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 0)
	if data := c.Build(context.Background(), 1, "top"); data != nil {
		t.Errorf("got %s, want nil", data)
	}
}
