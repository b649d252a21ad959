// Package postgres implements the repository interfaces on a pgx pool.
package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/manideeprkummitha/team-collab/internal/repository"
)

var (
	_ repository.WorkspaceRepository    = (*WorkspaceStore)(nil)
	_ repository.MemberRepository       = (*MemberStore)(nil)
	_ repository.UserRepository         = (*UserStore)(nil)
	_ repository.ChannelRepository      = (*ChannelStore)(nil)
	_ repository.ConversationRepository = (*ConversationStore)(nil)
	_ repository.MessageRepository      = (*MessageStore)(nil)
	_ repository.ReactionRepository     = (*ReactionStore)(nil)
)

// NewRepositories builds every store on the same pool. The pool is safe
// for concurrent use, so sharing it is fine.
func NewRepositories(pool *pgxpool.Pool) *repository.Repositories {
	return &repository.Repositories{
		Workspaces:    NewWorkspaceStore(pool),
		Members:       NewMemberStore(pool),
		Users:         NewUserStore(pool),
		Channels:      NewChannelStore(pool),
		Conversations: NewConversationStore(pool),
		Messages:      NewMessageStore(pool),
		Reactions:     NewReactionStore(pool),
	}
}
