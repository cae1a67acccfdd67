package provider

import (
	"net/http"
	"testing"
)

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()

	u, ok := r.Lookup("openai")
	if !ok {
		t.Fatal("Expected openai to be registered")
	}
	if got := u.ChatURL(""); got != "https://api.openai.com/v1/chat/completions" {
		t.Errorf("Unexpected chat URL: %s", got)
	}

	if _, ok := r.Lookup("OpenAI"); !ok {
		t.Error("Expected lookup to be case-insensitive")
	}
	if _, ok := r.Lookup("nonexistent"); ok {
		t.Error("Expected unknown provider to be absent")
	}
}

func TestUpstream_ChatURL_Override(t *testing.T) {
	r := NewRegistry()
	u, _ := r.Lookup("openai")

	got := u.ChatURL("http://localhost:8000/")
	if got != "http://localhost:8000/v1/chat/completions" {
		t.Errorf("Unexpected chat URL with override: %s", got)
	}
}

func TestUpstream_Authorize(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		provider string
		header   string
		want     string
	}{
		{"openai", "Authorization", "Bearer sk-test"},
		{"anthropic", "x-api-key", "sk-test"},
		{"azure", "api-key", "sk-test"},
	}

	for _, tt := range tests {
		u, ok := r.Lookup(tt.provider)
		if !ok {
			t.Fatalf("Provider %q not registered", tt.provider)
		}
		req, _ := http.NewRequest("POST", "http://example.test", nil)
		u.Authorize(req, "sk-test")

		if got := req.Header.Get(tt.header); got != tt.want {
			t.Errorf("%s: expected %s=%q, got %q", tt.provider, tt.header, tt.want, got)
		}
	}

	u, _ := r.Lookup("anthropic")
	req, _ := http.NewRequest("POST", "http://example.test", nil)
	u.Authorize(req, "sk-test")
	if req.Header.Get("anthropic-version") == "" {
		t.Error("Expected anthropic-version header to be set")
	}
}
