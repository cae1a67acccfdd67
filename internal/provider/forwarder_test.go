package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gatewaylabs/llmproxy/internal/credentials"
	"github.com/gatewaylabs/llmproxy/internal/testutil"
)

func TestForwarder_OpenAI_Replay(t *testing.T) {
	r, cleanup := testutil.NewVCRRecorder(t, "openai_chat")
	defer cleanup()

	f := NewForwarder(NewRegistry(), WithHTTPClient(testutil.VCRHTTPClient(r)))

	body := []byte(`{"model":"gpt-4o","messages":[{"role":"user","content":"Say hello"}]}`)
	resp, err := f.Forward(context.Background(), credentials.Bundle{
		APIKey:   "sk-vcr-test",
		Provider: "openai",
	}, body)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(resp.Body), "chatcmpl") {
		t.Errorf("Unexpected response body: %s", resp.Body)
	}
}

func TestForwarder_BaseURLOverrideAndAuth(t *testing.T) {
	var gotAuth, gotVersion, gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_test"}`))
	}))
	defer upstream.Close()

	f := NewForwarder(NewRegistry())

	resp, err := f.Forward(context.Background(), credentials.Bundle{
		APIKey:   "sk-anthropic-test",
		Provider: "anthropic",
		BaseURL:  upstream.URL,
	}, []byte(`{"model":"claude-sonnet-4-5"}`))
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}

	if gotAuth != "sk-anthropic-test" {
		t.Errorf("Expected x-api-key header, got %q", gotAuth)
	}
	if gotVersion == "" {
		t.Error("Expected anthropic-version header")
	}
	if gotPath != "/v1/messages" {
		t.Errorf("Expected /v1/messages path, got %q", gotPath)
	}
	if resp.ContentType != "application/json" {
		t.Errorf("Expected content type to be relayed, got %q", resp.ContentType)
	}
}

func TestForwarder_UnknownProvider(t *testing.T) {
	f := NewForwarder(NewRegistry())

	if _, err := f.Forward(context.Background(), credentials.Bundle{APIKey: "k", Provider: "mystery"}, nil); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestForwarder_AzureRequiresBaseURL(t *testing.T) {
	f := NewForwarder(NewRegistry())

	if _, err := f.Forward(context.Background(), credentials.Bundle{APIKey: "k", Provider: "azure"}, nil); err == nil {
		t.Error("Expected error when azure is used without a base URL")
	}
}
