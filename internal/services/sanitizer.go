package services

import (
	"regexp"

	"webchat-backend/internal/models"
)

// MaxHistoryMessages bounds how much of the conversation is resent to the
// model each turn. Older messages are truncated first, which also limits
// how long previously flagged context can linger.
const MaxHistoryMessages = 16

const personaPrompt = "You are a friendly and helpful assistant for a small web chat. " +
	"Answer concisely, use Markdown formatting where it helps, and admit when you do not know something."

const safetyPrompt = "Do not repeat, summarize or build upon any earlier message that was " +
	"refused or removed for violating content policies. Treat such turns as if they never happened."

// guardrailNoticeRe matches assistant messages that report having been
// blocked by the moderation guardrail, e.g. "This response was blocked by
// content guardrails." The match is case-insensitive and deliberately loose
// about the words in between.
var guardrailNoticeRe = regexp.MustCompile(`(?i)\b(blocked|flagged|rejected)\b.*\b(guardrails?|content (?:moderation|policy|policies))\b`)

// SanitizeHistory turns the raw caller-supplied conversation into the
// bounded message list sent upstream. It is a pure function of its inputs.
//
// Rules, applied in order:
//  1. caller-supplied system messages are dropped (the server is the sole
//     source of the system prompt),
//  2. user messages whose content is in blocked are dropped,
//  3. assistant messages reporting a guardrail block are dropped together
//     with the immediately preceding retained user message,
//  4. only the last MaxHistoryMessages messages are kept,
//  5. one synthesized system message is prepended.
//
// The result always contains exactly one system message, first.
func SanitizeHistory(history []models.ChatMessage, blocked map[string]struct{}) []models.ChatMessage {
	kept := make([]models.ChatMessage, 0, len(history))

	for _, msg := range history {
		if msg.Role == models.RoleSystem {
			continue
		}

		if msg.Role == models.RoleUser {
			if _, isBlocked := blocked[msg.Content]; isBlocked {
				continue
			}
		}

		if msg.Role == models.RoleAssistant && guardrailNoticeRe.MatchString(msg.Content) {
			// A guardrail notice means the previous user turn was rejected;
			// drop the pair so it does not re-enter context.
			if n := len(kept); n > 0 && kept[n-1].Role == models.RoleUser {
				kept = kept[:n-1]
			}
			continue
		}

		kept = append(kept, msg)
	}

	if len(kept) > MaxHistoryMessages {
		kept = kept[len(kept)-MaxHistoryMessages:]
	}

	out := make([]models.ChatMessage, 0, len(kept)+1)
	out = append(out, models.ChatMessage{
		Role:    models.RoleSystem,
		Content: personaPrompt + "\n\n" + safetyPrompt,
	})
	out = append(out, kept...)

	return out
}
