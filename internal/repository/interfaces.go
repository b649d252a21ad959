package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/manideeprkummitha/team-collab/internal/models"
)

// Every method takes ctx first and every lookup returns nil, nil when the
// row does not exist. Callers turn absence into NotFound or an empty
// result depending on whether they are a read or a write path.
//
// Bulk deletes take ids collected by an indexed scan and report how many
// rows were actually removed.

// WorkspaceRepository persists workspaces.
type WorkspaceRepository interface {
	Create(ctx context.Context, name string, ownerID uuid.UUID, joinCode string) (*models.Workspace, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
	// ListByIDs skips ids that no longer exist.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Workspace, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) error
	UpdateJoinCode(ctx context.Context, id uuid.UUID, joinCode string) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

// MemberRepository persists workspace memberships. Uniqueness of
// (workspace, principal) is enforced by the caller with a lookup before
// Create.
type MemberRepository interface {
	Create(ctx context.Context, workspaceID, principalID uuid.UUID, role models.Role) (*models.Member, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	// GetByIDs returns the members that exist, keyed by id.
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Member, error)
	// GetByWorkspaceAndPrincipal is the hot-path lookup behind every
	// authorization decision.
	GetByWorkspaceAndPrincipal(ctx context.Context, workspaceID, principalID uuid.UUID) (*models.Member, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Member, error)
	ListByPrincipal(ctx context.Context, principalID uuid.UUID) ([]models.Member, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) error
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// UserRepository persists accounts keyed by principal id.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// GetByIDs returns the accounts that exist, keyed by id.
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error)
	Upsert(ctx context.Context, u *models.User) (*models.User, error)
}

// ChannelRepository persists channels.
type ChannelRepository interface {
	Create(ctx context.Context, workspaceID uuid.UUID, name string) (*models.Channel, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Channel, error)
	// ListByWorkspace returns channels oldest first.
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Channel, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) error
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// ConversationRepository persists direct conversations.
type ConversationRepository interface {
	Create(ctx context.Context, workspaceID, memberOneID, memberTwoID uuid.UUID) (*models.Conversation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	// FindBetween checks both slot orderings.
	FindBetween(ctx context.Context, workspaceID, a, b uuid.UUID) (*models.Conversation, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Conversation, error)
	// ListByMember returns conversations where the member is in either slot.
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]models.Conversation, error)
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// MessageScope selects one pageable collection of messages. Exactly one
// field is set. Channel and conversation scopes contain root messages
// only; a parent scope contains the replies of that root.
type MessageScope struct {
	ChannelID       *uuid.UUID
	ConversationID  *uuid.UUID
	ParentMessageID *uuid.UUID
}

// Cursor is the keyset position of the last message of a page.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// ThreadStat summarises the replies of one root message.
type ThreadStat struct {
	Count     int
	LastReply models.Message
}

// MessageRepository persists messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	// List returns up to limit messages of scope strictly after cursor in
	// (created_at DESC, id DESC) order. A nil cursor starts at the newest.
	List(ctx context.Context, scope MessageScope, after *Cursor, limit int) ([]models.Message, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Message, error)
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]models.Message, error)
	// ListByChannel includes thread replies posted on the channel.
	ListByChannel(ctx context.Context, channelID uuid.UUID) ([]models.Message, error)
	ListByConversations(ctx context.Context, conversationIDs []uuid.UUID) ([]models.Message, error)
	ListByParents(ctx context.Context, parentIDs []uuid.UUID) ([]models.Message, error)
	// ThreadStats is keyed by parent id; roots without replies are absent.
	ThreadStats(ctx context.Context, parentIDs []uuid.UUID) (map[uuid.UUID]ThreadStat, error)
	UpdateBody(ctx context.Context, id uuid.UUID, body string, updatedAt time.Time) error
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// ReactionRepository persists reactions.
type ReactionRepository interface {
	Create(ctx context.Context, r *models.Reaction) (*models.Reaction, error)
	// ListByMessages returns reactions oldest first.
	ListByMessages(ctx context.Context, messageIDs []uuid.UUID) ([]models.Reaction, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Reaction, error)
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]models.Reaction, error)
	ListByMemberAndMessage(ctx context.Context, memberID, messageID uuid.UUID) ([]models.Reaction, error)
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// Repositories bundles every repository behind one value so services can
// be wired from a single store.
type Repositories struct {
	Workspaces    WorkspaceRepository
	Members       MemberRepository
	Users         UserRepository
	Channels      ChannelRepository
	Conversations ConversationRepository
	Messages      MessageRepository
	Reactions     ReactionRepository
}
