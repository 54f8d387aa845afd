package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medsim/models"
)

func TestOpenRouterClientChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" || len(req.Messages) != 1 {
			t.Errorf("request = %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}]}`))
	}))
	defer srv.Close()

	client := NewOpenRouterClient(srv.URL, "test-key", "test-model", 5*time.Second)
	reply, err := client.Chat(context.Background(), []ModelMessage{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "hello" {
		t.Fatalf("reply = %q, want hello", reply)
	}
}

func TestOpenRouterClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "provider 500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
		{
			name: "empty choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"choices":[]}`))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := NewOpenRouterClient(srv.URL, "k", "m", 5*time.Second)
			_, err := client.Chat(context.Background(), []ModelMessage{{Role: "user", Content: "hi"}})
			if !errors.Is(err, models.ErrUpstreamModel) {
				t.Fatalf("error = %v, want ErrUpstreamModel", err)
			}
		})
	}
}

func TestOpenRouterClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewOpenRouterClient(srv.URL, "k", "m", 20*time.Millisecond)
	_, err := client.Chat(context.Background(), []ModelMessage{{Role: "user", Content: "hi"}})
	if !errors.Is(err, models.ErrUpstreamModel) {
		t.Fatalf("timeout should surface as ErrUpstreamModel, got %v", err)
	}
}
