package ipeadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ipeadata-tools/inflation-indices/pkg/datetime"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Config{BaseURL: srv.URL + "/api/odata4", RateLimitPerSec: 1000, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestFetchSeries(t *testing.T) {
	var gotPath, gotAgent string
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"@odata.context":"x","value":[
			{"SERCODIGO":"PRECOS12_IPCAG12","VALDATA":"1994-02-01T00:00:00-02:00","VALVALOR":40.27,"NIVNOME":"","TERCODIGO":""},
			{"SERCODIGO":"PRECOS12_IPCAG12","VALDATA":"1994-01-01T00:00:00-02:00","VALVALOR":41.31,"NIVNOME":"","TERCODIGO":""},
			{"SERCODIGO":"PRECOS12_IPCAG12","VALDATA":"1994-03-01T00:00:00-03:00","VALVALOR":null,"NIVNOME":"","TERCODIGO":""}
		]}`))
	})

	points, err := client.FetchSeries(context.Background(), "PRECOS12_IPCAG12")
	if err != nil {
		t.Fatalf("FetchSeries() error = %v", err)
	}

	if gotPath != "/api/odata4/ValoresSerie(SERCODIGO='PRECOS12_IPCAG12')" {
		t.Errorf("unexpected request path %q", gotPath)
	}
	if gotAgent == "" {
		t.Error("expected a User-Agent header")
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points (null skipped), got %d", len(points))
	}
	if got := datetime.Format(points[0].Date); got != "1994-01-01" {
		t.Errorf("expected points sorted with first date 1994-01-01, got %s", got)
	}
	if points[0].Value != 41.31 || points[1].Value != 40.27 {
		t.Errorf("unexpected values %+v", points)
	}
}

func TestFetchSeriesHTTPError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	if _, err := client.FetchSeries(context.Background(), "X"); err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}

func TestFetchSeriesNoRecords(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"value":[]}`))
	})

	_, err := client.FetchSeries(context.Background(), "X")
	if !errors.Is(err, ErrNoRecords) {
		t.Fatalf("expected ErrNoRecords, got %v", err)
	}
}

func TestFetchSeriesMalformed(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})

	if _, err := client.FetchSeries(context.Background(), "X"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFetchSeriesBadDate(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"value":[{"SERCODIGO":"X","VALDATA":"ontem","VALVALOR":1}]}`))
	})

	if _, err := client.FetchSeries(context.Background(), "X"); err == nil {
		t.Fatal("expected error for unparseable date")
	}
}

func TestFetchSeriesRequiresCode(t *testing.T) {
	client, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := client.FetchSeries(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty code")
	}
}

func TestFetchSeriesCancelledContext(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"value":[]}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.FetchSeries(ctx, "X"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestNewDefaults(t *testing.T) {
	client, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if client.config.BaseURL == "" || client.config.Timeout <= 0 || client.config.UserAgent == "" {
		t.Fatalf("expected defaults to be filled, got %+v", client.config)
	}
}
