package chat

import (
	"strings"
	"time"
)

// Role identifies who authored a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole maps wire roles onto the two transcript roles.
// Anything that is not the user is treated as the master, so the legacy
// "bot" label keeps working.
func ParseRole(raw string) Role {
	if strings.EqualFold(strings.TrimSpace(raw), string(RoleUser)) {
		return RoleUser
	}
	return RoleAssistant
}

// Entry is one chat message.
type Entry struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Transcript is the ordered, append-only conversation.
type Transcript []Entry

// Session is a chat widget conversation.
type Session struct {
	ID         string     `json:"id"`
	Transcript Transcript `json:"transcript"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Config wires runtime settings for the chat domain.
type Config struct {
	Model            string
	Persona          string
	Temperature      float32
	Greeting         string
	MaxHistoryTokens int
}
