package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"webchat-backend/internal/models"
	"webchat-backend/internal/services"
)

type ChatHandler struct {
	inference *services.InferenceService
}

func NewChatHandler(inference *services.InferenceService) *ChatHandler {
	return &ChatHandler{inference: inference}
}

// Chat handles POST /api/chat. The client sends its full conversation
// history plus the texts of previously blocked user messages; the handler
// sanitizes the history, issues one streaming inference call and relays the
// upstream body to the client as Server-Sent Events. Failures produce a
// single non-streaming JSON error whose status mirrors the upstream status.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeChatError(w, http.StatusBadRequest, services.ErrorTypeGeneral,
			"Invalid Request", "Could not parse the request body.")
		return
	}

	if len(req.Messages) == 0 {
		h.writeChatError(w, http.StatusBadRequest, services.ErrorTypeGeneral,
			"Invalid Request", "No messages provided.")
		return
	}

	messages := services.SanitizeHistory(req.Messages, req.BlockedSet())

	body, uerr := h.inference.Stream(r.Context(), messages)
	if uerr != nil {
		h.writeChatError(w, uerr.Status, uerr.Type, uerr.Title(), uerr.Details())
		return
	}
	defer body.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeChatError(w, http.StatusInternalServerError, services.ErrorTypeGeneral,
			"AI Service Error", "Streaming is not supported by this server.")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Forward upstream chunks as they arrive, one SSE frame per line. The
	// loop runs inside the handler so it is bound to the response lifetime;
	// a client disconnect cancels r.Context() and aborts the upstream read.
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", line)
		flusher.Flush()
	}
	if err := scanner.Err(); err != nil {
		// Mid-stream failure: the stream is closed without an error event,
		// so the client sees a truncated response. Log-only.
		log.Printf("chat: upstream stream read failed: %v", err)
	}
}

func (h *ChatHandler) writeChatError(w http.ResponseWriter, status int, errType services.ErrorType, title, details string) {
	writeJSON(w, status, models.ChatErrorResponse{
		Error:        title,
		ErrorType:    string(errType),
		Details:      details,
		UsingGateway: h.inference.UsingGateway(),
	})
}

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFound answers unknown paths under the API prefix.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
}

// MethodNotAllowed answers wrong-method requests to known API paths.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
}
