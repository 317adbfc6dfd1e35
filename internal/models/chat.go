package models

// Message roles. Ordering of messages is conversation order; the full
// history is resent by the client on every request.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest is the payload sent to POST /api/chat. BlockedUserContents
// carries the exact texts of user messages a prior turn revealed were
// rejected by the moderation gateway; the backend excludes them from the
// outbound prompt but otherwise treats them as opaque.
type ChatRequest struct {
	Messages            []ChatMessage `json:"messages"`
	BlockedUserContents []string      `json:"blockedUserContents,omitempty"`
}

// BlockedSet converts the blocked-content list into a set for exact-match
// lookup.
func (r *ChatRequest) BlockedSet() map[string]struct{} {
	if len(r.BlockedUserContents) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(r.BlockedUserContents))
	for _, content := range r.BlockedUserContents {
		set[content] = struct{}{}
	}
	return set
}

// ChatErrorResponse is the single non-streaming JSON body returned when a
// chat request fails. ErrorType is one of "prompt_blocked",
// "response_blocked" or "general"; "network" is reserved for client-side
// transport failures and never emitted by the backend.
type ChatErrorResponse struct {
	Error        string `json:"error"`
	ErrorType    string `json:"errorType"`
	Details      string `json:"details"`
	UsingGateway bool   `json:"usingGateway"`
}
