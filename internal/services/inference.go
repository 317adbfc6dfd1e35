package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"webchat-backend/internal/config"
	"webchat-backend/internal/models"
)

// Fixed decoding parameters: bounded output, low randomness.
const (
	maxOutputTokens = 1024
	temperature     = 0.2
)

// maxErrorBodyBytes caps how much of an upstream error body is read for
// classification.
const maxErrorBodyBytes = 1 << 16

type InferenceService struct {
	httpClient      *http.Client
	upstreamURL     string
	apiKey          string
	modelID         string
	gatewayURL      string
	gatewayCacheTTL int
}

func NewInferenceService(cfg *config.Config) *InferenceService {
	return &InferenceService{
		httpClient:      &http.Client{},
		upstreamURL:     cfg.UpstreamURL,
		apiKey:          cfg.UpstreamAPIKey,
		modelID:         cfg.ModelID,
		gatewayURL:      cfg.GatewayURL,
		gatewayCacheTTL: cfg.GatewayCacheTTL,
	}
}

// UsingGateway reports whether calls are routed through the moderation
// gateway.
func (s *InferenceService) UsingGateway() bool {
	return s.gatewayURL != ""
}

type inferenceRequest struct {
	Model       string               `json:"model"`
	Messages    []models.ChatMessage `json:"messages"`
	MaxTokens   int                  `json:"max_tokens"`
	Temperature float64              `json:"temperature"`
	Stream      bool                 `json:"stream"`
}

// Stream issues one streaming inference call and returns the raw response
// body for the caller to relay. No retries: a single failure produces a
// single classified error. The returned body must be closed by the caller;
// cancelling ctx (e.g. on client disconnect) aborts the upstream read.
func (s *InferenceService) Stream(ctx context.Context, messages []models.ChatMessage) (io.ReadCloser, *UpstreamError) {
	payload := inferenceRequest{
		Model:       s.modelID,
		Messages:    messages,
		MaxTokens:   maxOutputTokens,
		Temperature: temperature,
		Stream:      true,
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		log.Printf("inference: marshal request failed: %v", err)
		return nil, localError(fmt.Sprintf("failed to build inference request: %v", err))
	}

	url := s.upstreamURL
	if s.gatewayURL != "" {
		url = s.gatewayURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		log.Printf("inference: build request failed: %v", err)
		return nil, localError(fmt.Sprintf("failed to build inference request: %v", err))
	}

	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	if s.gatewayURL != "" {
		// Routed through the gateway: caching on, fixed lifetime.
		req.Header.Set("cf-aig-cache-ttl", strconv.Itoa(s.gatewayCacheTTL))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("inference: upstream call failed: %v", err)
		return nil, localError("Failed to reach the AI service. Please try again.")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		resp.Body.Close()
		uerr := ClassifyErrorBody(resp.StatusCode, body)
		log.Printf("inference: %v", uerr)
		return nil, uerr
	}

	return resp.Body, nil
}

func localError(message string) *UpstreamError {
	return &UpstreamError{
		Type:    ErrorTypeGeneral,
		Status:  http.StatusInternalServerError,
		Message: message,
	}
}
