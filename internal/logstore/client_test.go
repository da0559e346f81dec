package logstore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:5002")

	if client.baseURL != "http://localhost:5002" {
		t.Errorf("baseURL = %q, want %q", client.baseURL, "http://localhost:5002")
	}
	if client.httpClient == nil {
		t.Error("httpClient should not be nil")
	}
	if client.maxAttempts != 3 {
		t.Errorf("maxAttempts = %d, want 3", client.maxAttempts)
	}
}

func TestFetchLogsForwardsCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/mood-logs-category" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{"success":true,"logs":[{"category":"sleep","hrs":7.5,"afterEmotion":"calm"}]}`))
	}))
	defer server.Close()

	logs, err := NewClient(server.URL).FetchLogs(context.Background(), "Bearer user-token")
	if err != nil {
		t.Fatalf("FetchLogs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(logs))
	}
	if logs[0]["hrs"] != 7.5 || logs[0]["category"] != "sleep" {
		t.Errorf("unexpected log: %v", logs[0])
	}
}

func TestFetchLogsRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL).WithBackoff(time.Millisecond)
	logs, err := client.FetchLogs(context.Background(), "Bearer t")
	if err != nil {
		t.Fatalf("FetchLogs: %v", err)
	}
	if logs == nil || len(logs) != 0 {
		t.Errorf("expected an empty, non-nil slice, got %v", logs)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestFetchLogsDoesNotRetryClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"bad request", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			_, err := NewClient(server.URL).WithBackoff(time.Millisecond).FetchLogs(context.Background(), "Bearer t")
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if n := atomic.LoadInt32(&calls); n != 1 {
				t.Errorf("calls = %d, want 1", n)
			}
		})
	}
}

func TestFetchLogsGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).WithBackoff(time.Millisecond).FetchLogs(context.Background(), "Bearer t")
	if err == nil {
		t.Fatal("expected an error")
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	if err := NewClient(server.URL).HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}

	server.Close()
	if err := NewClient(server.URL).HealthCheck(context.Background()); err == nil {
		t.Error("expected an error once the server is gone")
	}
}
