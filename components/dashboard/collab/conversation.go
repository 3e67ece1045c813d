// Package collab implements the collaboration panel: per-session
// conversations with a simulated counterpart that answers after a delay.
package collab

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrEmptyMessage is returned when the outgoing text is blank.
	ErrEmptyMessage = errors.New("dashboard: chat message is empty")
	// ErrUnknownConversation is returned for conversations outside Conversations.
	ErrUnknownConversation = errors.New("dashboard: unknown conversation")
	// ErrPanelClosed is returned when sending on a panel that was closed.
	ErrPanelClosed = errors.New("dashboard: chat panel closed")
)

// DefaultReplyDelay is how long the counterpart takes to answer.
const DefaultReplyDelay = 1500 * time.Millisecond

// Conversation identifies the counterpart team of a panel.
type Conversation string

const (
	ConversationRMG      Conversation = "rmg"
	ConversationTAG      Conversation = "tag"
	ConversationDelivery Conversation = "delivery"
)

// Conversations lists the supported conversations; the first is the default.
var Conversations = []Conversation{ConversationRMG, ConversationTAG, ConversationDelivery}

// ParseConversation validates value.
func ParseConversation(value string) (Conversation, error) {
	c := Conversation(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Conversations {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownConversation, value)
}

// Counterpart is the display name of the team answering in c.
func (c Conversation) Counterpart() string {
	switch c {
	case ConversationTAG:
		return "Talent Acquisition"
	case ConversationDelivery:
		return "Delivery Lead"
	default:
		return "RMG Desk"
	}
}

// Role is the author side of a message.
type Role string

const (
	RoleViewer      Role = "viewer"
	RoleCounterpart Role = "counterpart"
)

// Message is one entry of a conversation log.
type Message struct {
	ID           string       `json:"id"`
	Conversation Conversation `json:"conversation"`
	Role         Role         `json:"role"`
	Author       string       `json:"author"`
	Text         string       `json:"text"`
	SentAt       time.Time    `json:"sent_at"`
}

// Transcript is a point-in-time copy of a panel.
type Transcript struct {
	Conversation Conversation `json:"conversation"`
	Counterpart  string       `json:"counterpart"`
	Messages     []Message    `json:"messages"`
	// Pending counts replies that are scheduled but not yet delivered.
	Pending int `json:"pending"`
}

// Responder produces the counterpart's answer to text. seq is the number of
// replies already delivered in the conversation.
type Responder interface {
	Reply(conversation Conversation, text string, seq int) string
}

// ResponderFunc adapts a function into a Responder.
type ResponderFunc func(conversation Conversation, text string, seq int) string

// Reply calls f.
func (f ResponderFunc) Reply(conversation Conversation, text string, seq int) string {
	return f(conversation, text, seq)
}

var cannedReplies = map[Conversation][]string{
	ConversationRMG: {
		"Thanks, RMG has picked this up. We will share profiles shortly.",
		"Noted. We are checking bench availability for this skill.",
		"Two internal candidates look close; will confirm by end of day.",
	},
	ConversationTAG: {
		"Talent Acquisition here. We have opened an external search.",
		"Sourcing is underway; first shortlist expected within the week.",
		"We can fast-track interviews if the panel is available.",
	},
	ConversationDelivery: {
		"Delivery acknowledges. Can we start with a partial allocation?",
		"Understood, we will adjust the ramp-up plan accordingly.",
		"Please flag if the start date is at risk.",
	},
}

// CannedResponder cycles through fixed replies per conversation.
var CannedResponder = ResponderFunc(func(conversation Conversation, _ string, seq int) string {
	replies := cannedReplies[conversation]
	if len(replies) == 0 {
		return "Noted."
	}
	return replies[seq%len(replies)]
})
