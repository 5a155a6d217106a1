package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPProberUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	up, msg := NewHTTPProber().Exists(context.Background(), srv.URL, time.Second)
	if !up {
		t.Fatalf("expected up, got diagnostic %q", msg)
	}
	if msg != "200" {
		t.Errorf("diagnostic = %q, want 200", msg)
	}
}

func TestHTTPProberFallsBackToGet(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	up, _ := NewHTTPProber().Exists(context.Background(), srv.URL, time.Second)
	if !up {
		t.Fatal("expected up after GET fallback")
	}
	if len(methods) != 2 || methods[1] != http.MethodGet {
		t.Errorf("methods = %v", methods)
	}
}

func TestHTTPProberDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	up, msg := NewHTTPProber().Exists(context.Background(), srv.URL, time.Second)
	if up {
		t.Fatal("expected down")
	}
	if msg != "503" {
		t.Errorf("diagnostic = %q, want 503", msg)
	}
}

func TestHTTPProberUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	up, msg := NewHTTPProber().Exists(context.Background(), url, time.Second)
	if up || msg == "" {
		t.Fatalf("expected down with diagnostic, got %v %q", up, msg)
	}
}

func TestNewRedisProvider(t *testing.T) {
	if NewRedisProvider("", "") != nil {
		t.Fatal("expected nil client for empty address")
	}
	client := NewRedisProvider("localhost:6379", "password")
	if client == nil {
		t.Fatal("Expected redis client to be non-nil")
	}
	defer client.Close()
}
