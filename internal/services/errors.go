package services

import (
	"encoding/json"
	"fmt"
)

// ErrorType classifies a failed inference call for the client. The fourth
// member of the taxonomy, "network", describes client-side transport
// failures and is never produced by the backend.
type ErrorType string

const (
	ErrorTypePromptBlocked   ErrorType = "prompt_blocked"
	ErrorTypeResponseBlocked ErrorType = "response_blocked"
	ErrorTypeGeneral         ErrorType = "general"
)

// Moderation gateway guardrail codes.
const (
	codePromptBlocked   = 2016 // request content rejected before generation
	codeResponseBlocked = 2017 // generated content rejected after generation
)

const genericUpstreamMessage = "The AI service returned an error. Please try again."

// UpstreamError is a classified failure of one inference call. Constructed
// per failed call, never stored.
type UpstreamError struct {
	Type    ErrorType
	Status  int // upstream HTTP status, mirrored to the client
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream inference error (status %d, %s): %s", e.Status, e.Type, e.Message)
}

// Title is the short human-readable heading the client renders above the
// error details.
func (e *UpstreamError) Title() string {
	switch e.Type {
	case ErrorTypePromptBlocked:
		return "Message Blocked"
	case ErrorTypeResponseBlocked:
		return "Response Blocked"
	default:
		return "AI Service Error"
	}
}

// Details is the longer explanation shown under the title.
func (e *UpstreamError) Details() string {
	switch e.Type {
	case ErrorTypePromptBlocked:
		return "Your message was flagged by content moderation and was not sent to the model. It has been removed from the conversation."
	case ErrorTypeResponseBlocked:
		return "The model's response was flagged by content moderation and has been withheld."
	default:
		return e.Message
	}
}

// Known upstream error body shapes. The gateway and the bare inference API
// disagree on envelope naming, so each variant is decoded explicitly and
// the first that yields anything wins.
type codedError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type errorsArrayBody struct {
	Errors []codedError `json:"errors"`
}

type errorArrayBody struct {
	Error []codedError `json:"error"`
}

type errorStringBody struct {
	Error string `json:"error"`
}

type messageStringBody struct {
	Message string `json:"message"`
}

// decodeErrorBody extracts a guardrail code and/or message from an upstream
// error body, trying each known shape in turn. ok is false when no variant
// matched, in which case the body is treated as unrecognized.
func decodeErrorBody(body []byte) (code int, message string, ok bool) {
	var withErrors errorsArrayBody
	if err := json.Unmarshal(body, &withErrors); err == nil && len(withErrors.Errors) > 0 {
		return withErrors.Errors[0].Code, withErrors.Errors[0].Message, true
	}

	var withErrorArray errorArrayBody
	if err := json.Unmarshal(body, &withErrorArray); err == nil && len(withErrorArray.Error) > 0 {
		return withErrorArray.Error[0].Code, withErrorArray.Error[0].Message, true
	}

	var withErrorString errorStringBody
	if err := json.Unmarshal(body, &withErrorString); err == nil && withErrorString.Error != "" {
		return 0, withErrorString.Error, true
	}

	var withMessage messageStringBody
	if err := json.Unmarshal(body, &withMessage); err == nil && withMessage.Message != "" {
		return 0, withMessage.Message, true
	}

	return 0, "", false
}

// ClassifyErrorBody maps an upstream error body and status to an
// UpstreamError. Guardrail codes take precedence over any accompanying
// message text.
func ClassifyErrorBody(status int, body []byte) *UpstreamError {
	code, message, ok := decodeErrorBody(body)
	if !ok {
		return &UpstreamError{Type: ErrorTypeGeneral, Status: status, Message: genericUpstreamMessage}
	}

	switch code {
	case codePromptBlocked:
		return &UpstreamError{Type: ErrorTypePromptBlocked, Status: status, Message: message}
	case codeResponseBlocked:
		return &UpstreamError{Type: ErrorTypeResponseBlocked, Status: status, Message: message}
	}

	if message != "" {
		return &UpstreamError{Type: ErrorTypeGeneral, Status: status, Message: message}
	}

	return &UpstreamError{Type: ErrorTypeGeneral, Status: status, Message: genericUpstreamMessage}
}
