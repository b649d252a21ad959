package models

import (
	"time"

	"github.com/google/uuid"
)

// Author is the display identity attached to an enriched message.
type Author struct {
	MemberID uuid.UUID `json:"member_id"`
	Name     string    `json:"name"`
	Image    string    `json:"image,omitempty"`
}

// ReactionGroup folds every reaction with the same value on one message.
type ReactionGroup struct {
	Value     string      `json:"value"`
	Count     int         `json:"count"`
	MemberIDs []uuid.UUID `json:"member_ids"`
}

// ThreadSummary previews the replies under a root message. Replies carry
// the zero value.
type ThreadSummary struct {
	Count          int        `json:"count"`
	LastReplyAt    *time.Time `json:"last_reply_at,omitempty"`
	LastReplyName  string     `json:"last_reply_name,omitempty"`
	LastReplyImage string     `json:"last_reply_image,omitempty"`
}

// EnrichedMessage is a message ready for display.
type EnrichedMessage struct {
	Message
	ImageURL  string          `json:"image_url,omitempty"`
	Author    *Author         `json:"author"`
	Reactions []ReactionGroup `json:"reactions"`
	Thread    ThreadSummary   `json:"thread"`
	Compact   bool            `json:"compact"`
}

// Inconsistency reports a row whose references could not be resolved.
type Inconsistency struct {
	MessageID uuid.UUID `json:"message_id"`
	Reason    string    `json:"reason"`
}

// MessagePage is one page of a scope, newest first.
type MessagePage struct {
	Items           []EnrichedMessage `json:"items"`
	NextCursor      string            `json:"next_cursor,omitempty"`
	Inconsistencies []Inconsistency   `json:"inconsistencies,omitempty"`
}
