package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a member's authority inside one workspace. The set is closed:
// RoleAdmin and RoleMember are the only valid values.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMember:
		return true
	default:
		return false
	}
}

// Workspace is the tenant boundary. Every member, channel, conversation,
// message and reaction carries the id of exactly one workspace.
type Workspace struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"owner_id"`
	JoinCode  string    `json:"join_code"`
	CreatedAt time.Time `json:"created_at"`
}

// WorkspaceInfo is the public preview shown on the join page.
type WorkspaceInfo struct {
	Name     string `json:"name"`
	IsMember bool   `json:"is_member"`
}

// User is the account behind a principal. ID is the principal id issued by
// the identity provider; name and image are what other members see.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Member is a principal's presence inside one workspace. Content is always
// attributed to a member, never to the principal directly.
// (WorkspaceID, PrincipalID) is unique.
type Member struct {
	ID          uuid.UUID `json:"id"`
	PrincipalID uuid.UUID `json:"principal_id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsAdmin reports whether the member holds the admin role.
func (m *Member) IsAdmin() bool {
	return m != nil && m.Role == RoleAdmin
}

// MemberWithUser is a member joined with its account for listings.
type MemberWithUser struct {
	Member
	User User `json:"user"`
}

// Channel is a named room within a workspace (like #general).
type Channel struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Conversation is a direct 1:1 surface between two members. The pair is
// unordered in meaning; lookups must check both slots.
type Conversation struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	MemberOneID uuid.UUID `json:"member_one_id"`
	MemberTwoID uuid.UUID `json:"member_two_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Involves reports whether memberID occupies either slot.
func (c *Conversation) Involves(memberID uuid.UUID) bool {
	return c.MemberOneID == memberID || c.MemberTwoID == memberID
}

// Message lives on exactly one surface: a channel or a conversation.
// A non-nil ParentMessageID makes it a thread reply on the root's surface.
type Message struct {
	ID              uuid.UUID  `json:"id"`
	WorkspaceID     uuid.UUID  `json:"workspace_id"`
	MemberID        uuid.UUID  `json:"member_id"`
	Body            string     `json:"body"`
	Image           string     `json:"image,omitempty"`
	ChannelID       *uuid.UUID `json:"channel_id,omitempty"`
	ConversationID  *uuid.UUID `json:"conversation_id,omitempty"`
	ParentMessageID *uuid.UUID `json:"parent_message_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// IsReply reports whether the message belongs to a thread.
func (m *Message) IsReply() bool {
	return m.ParentMessageID != nil
}

// Reaction is one member's reaction value on one message.
type Reaction struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	MessageID   uuid.UUID `json:"message_id"`
	MemberID    uuid.UUID `json:"member_id"`
	Value       string    `json:"value"`
	CreatedAt   time.Time `json:"created_at"`
}
