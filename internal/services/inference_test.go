package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"webchat-backend/internal/config"
	"webchat-backend/internal/models"
)

func testMessages() []models.ChatMessage {
	return []models.ChatMessage{
		{Role: models.RoleSystem, Content: "system prompt"},
		{Role: models.RoleUser, Content: "hi"},
	}
}

func TestInferenceStream_Success(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected application/json, got %q", ct)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Expected bearer auth header, got %q", auth)
		}
		w.Write([]byte("{\"response\":\"Hel\"}\n{\"response\":\"lo\"}\n"))
	}))
	defer upstream.Close()

	svc := NewInferenceService(&config.Config{
		UpstreamURL:    upstream.URL,
		UpstreamAPIKey: "test-key",
		ModelID:        "test-model",
	})

	body, uerr := svc.Stream(context.Background(), testMessages())
	if uerr != nil {
		t.Fatalf("Expected success, got %v", uerr)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	if string(raw) != "{\"response\":\"Hel\"}\n{\"response\":\"lo\"}\n" {
		t.Errorf("Body was not forwarded unmodified: %q", raw)
	}
}

func TestInferenceStream_SendsFixedDecodingParameters(t *testing.T) {
	var got inferenceRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		w.Write([]byte("{\"response\":\"ok\"}\n"))
	}))
	defer upstream.Close()

	svc := NewInferenceService(&config.Config{UpstreamURL: upstream.URL, ModelID: "test-model"})

	body, uerr := svc.Stream(context.Background(), testMessages())
	if uerr != nil {
		t.Fatalf("Expected success, got %v", uerr)
	}
	body.Close()

	if got.Model != "test-model" {
		t.Errorf("Expected model 'test-model', got %q", got.Model)
	}
	if got.MaxTokens != maxOutputTokens {
		t.Errorf("Expected max_tokens %d, got %d", maxOutputTokens, got.MaxTokens)
	}
	if got.Temperature != temperature {
		t.Errorf("Expected temperature %v, got %v", temperature, got.Temperature)
	}
	if !got.Stream {
		t.Error("Expected stream=true")
	}
	if len(got.Messages) != 2 {
		t.Errorf("Expected 2 messages forwarded, got %d", len(got.Messages))
	}
}

func TestInferenceStream_ClassifiesUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errors":[{"code":2016,"message":"prompt blocked"}]}`))
	}))
	defer upstream.Close()

	svc := NewInferenceService(&config.Config{UpstreamURL: upstream.URL, ModelID: "test-model"})

	body, uerr := svc.Stream(context.Background(), testMessages())
	if body != nil {
		body.Close()
		t.Fatal("Expected no body on failure")
	}
	if uerr == nil {
		t.Fatal("Expected an upstream error")
	}
	if uerr.Type != ErrorTypePromptBlocked {
		t.Errorf("Expected prompt_blocked, got %q", uerr.Type)
	}
	if uerr.Status != http.StatusForbidden {
		t.Errorf("Expected mirrored status 403, got %d", uerr.Status)
	}
}

func TestInferenceStream_GatewayRouting(t *testing.T) {
	var gotCacheTTL string
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCacheTTL = r.Header.Get("cf-aig-cache-ttl")
		w.Write([]byte("{\"response\":\"ok\"}\n"))
	}))
	defer gateway.Close()

	svc := NewInferenceService(&config.Config{
		UpstreamURL:     "http://unreachable.invalid",
		GatewayURL:      gateway.URL,
		GatewayCacheTTL: 3360,
		ModelID:         "test-model",
	})

	if !svc.UsingGateway() {
		t.Fatal("Expected UsingGateway to be true")
	}

	body, uerr := svc.Stream(context.Background(), testMessages())
	if uerr != nil {
		t.Fatalf("Expected call to route through gateway, got %v", uerr)
	}
	body.Close()

	if gotCacheTTL != "3360" {
		t.Errorf("Expected cf-aig-cache-ttl '3360', got %q", gotCacheTTL)
	}
}

func TestInferenceStream_TransportFailure(t *testing.T) {
	svc := NewInferenceService(&config.Config{
		UpstreamURL: "http://127.0.0.1:1", // nothing listens here
		ModelID:     "test-model",
	})

	body, uerr := svc.Stream(context.Background(), testMessages())
	if body != nil {
		body.Close()
		t.Fatal("Expected no body on transport failure")
	}
	if uerr == nil {
		t.Fatal("Expected an error")
	}
	if uerr.Type != ErrorTypeGeneral {
		t.Errorf("Expected general classification, got %q", uerr.Type)
	}
	if uerr.Status != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", uerr.Status)
	}
}
