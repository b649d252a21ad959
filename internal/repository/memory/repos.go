package memory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/manideeprkummitha/team-collab/internal/models"
	"github.com/manideeprkummitha/team-collab/internal/repository"
)

var (
	_ repository.WorkspaceRepository    = (*workspaceRepo)(nil)
	_ repository.MemberRepository       = (*memberRepo)(nil)
	_ repository.UserRepository         = (*userRepo)(nil)
	_ repository.ChannelRepository      = (*channelRepo)(nil)
	_ repository.ConversationRepository = (*conversationRepo)(nil)
	_ repository.MessageRepository      = (*messageRepo)(nil)
	_ repository.ReactionRepository     = (*reactionRepo)(nil)
)

func workspaceKey(w models.Workspace) (time.Time, uuid.UUID)       { return w.CreatedAt, w.ID }
func memberKey(m models.Member) (time.Time, uuid.UUID)             { return m.CreatedAt, m.ID }
func channelKey(c models.Channel) (time.Time, uuid.UUID)           { return c.CreatedAt, c.ID }
func conversationKey(c models.Conversation) (time.Time, uuid.UUID) { return c.CreatedAt, c.ID }
func messageKey(m models.Message) (time.Time, uuid.UUID)           { return m.CreatedAt, m.ID }
func reactionKey(r models.Reaction) (time.Time, uuid.UUID)         { return r.CreatedAt, r.ID }

// ---------------------------------------------------------------
// workspaces
// ---------------------------------------------------------------

type workspaceRepo struct{ s *Store }

func (r *workspaceRepo) Create(_ context.Context, name string, ownerID uuid.UUID, joinCode string) (*models.Workspace, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("workspaces.Create"); err != nil {
		return nil, err
	}
	w := models.Workspace{ID: uuid.New(), Name: name, OwnerID: ownerID, JoinCode: joinCode, CreatedAt: r.s.now()}
	r.s.workspaces[w.ID] = w
	return &w, nil
}

func (r *workspaceRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Workspace, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("workspaces.GetByID"); err != nil {
		return nil, err
	}
	w, ok := r.s.workspaces[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *workspaceRepo) ListByIDs(_ context.Context, ids []uuid.UUID) ([]models.Workspace, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("workspaces.ListByIDs"); err != nil {
		return nil, err
	}
	set := idSet(ids)
	return filter(r.s.workspaces, workspaceKey, func(w models.Workspace) bool {
		_, ok := set[w.ID]
		return ok
	}), nil
}

func (r *workspaceRepo) UpdateName(_ context.Context, id uuid.UUID, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("workspaces.UpdateName"); err != nil {
		return err
	}
	if w, ok := r.s.workspaces[id]; ok {
		w.Name = name
		r.s.workspaces[id] = w
	}
	return nil
}

func (r *workspaceRepo) UpdateJoinCode(_ context.Context, id uuid.UUID, joinCode string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("workspaces.UpdateJoinCode"); err != nil {
		return err
	}
	if w, ok := r.s.workspaces[id]; ok {
		w.JoinCode = joinCode
		r.s.workspaces[id] = w
	}
	return nil
}

func (r *workspaceRepo) Delete(_ context.Context, id uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("workspaces.Delete"); err != nil {
		return 0, err
	}
	return deleteIDs(r.s.workspaces, []uuid.UUID{id}), nil
}

// ---------------------------------------------------------------
// members
// ---------------------------------------------------------------

type memberRepo struct{ s *Store }

func (r *memberRepo) Create(_ context.Context, workspaceID, principalID uuid.UUID, role models.Role) (*models.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("members.Create"); err != nil {
		return nil, err
	}
	m := models.Member{ID: uuid.New(), PrincipalID: principalID, WorkspaceID: workspaceID, Role: role, CreatedAt: r.s.now()}
	r.s.members[m.ID] = m
	return &m, nil
}

func (r *memberRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("members.GetByID"); err != nil {
		return nil, err
	}
	m, ok := r.s.members[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *memberRepo) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("members.GetByIDs"); err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]models.Member, len(ids))
	for _, id := range ids {
		if m, ok := r.s.members[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func (r *memberRepo) GetByWorkspaceAndPrincipal(_ context.Context, workspaceID, principalID uuid.UUID) (*models.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("members.GetByWorkspaceAndPrincipal"); err != nil {
		return nil, err
	}
	found := filter(r.s.members, memberKey, func(m models.Member) bool {
		return m.WorkspaceID == workspaceID && m.PrincipalID == principalID
	})
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

func (r *memberRepo) ListByWorkspace(_ context.Context, workspaceID uuid.UUID) ([]models.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("members.ListByWorkspace"); err != nil {
		return nil, err
	}
	return filter(r.s.members, memberKey, func(m models.Member) bool { return m.WorkspaceID == workspaceID }), nil
}

func (r *memberRepo) ListByPrincipal(_ context.Context, principalID uuid.UUID) ([]models.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("members.ListByPrincipal"); err != nil {
		return nil, err
	}
	return filter(r.s.members, memberKey, func(m models.Member) bool { return m.PrincipalID == principalID }), nil
}

func (r *memberRepo) UpdateRole(_ context.Context, id uuid.UUID, role models.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("members.UpdateRole"); err != nil {
		return err
	}
	if m, ok := r.s.members[id]; ok {
		m.Role = role
		r.s.members[id] = m
	}
	return nil
}

func (r *memberRepo) DeleteByIDs(_ context.Context, ids []uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("members.DeleteByIDs"); err != nil {
		return 0, err
	}
	return deleteIDs(r.s.members, ids), nil
}

// ---------------------------------------------------------------
// users
// ---------------------------------------------------------------

type userRepo struct{ s *Store }

func (r *userRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("users.GetByID"); err != nil {
		return nil, err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepo) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("users.GetByIDs"); err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (r *userRepo) Upsert(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("users.Upsert"); err != nil {
		return nil, err
	}
	saved := *u
	if existing, ok := r.s.users[u.ID]; ok {
		saved.CreatedAt = existing.CreatedAt
	} else {
		saved.CreatedAt = r.s.now()
	}
	r.s.users[saved.ID] = saved
	return &saved, nil
}

// ---------------------------------------------------------------
// channels
// ---------------------------------------------------------------

type channelRepo struct{ s *Store }

func (r *channelRepo) Create(_ context.Context, workspaceID uuid.UUID, name string) (*models.Channel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("channels.Create"); err != nil {
		return nil, err
	}
	ch := models.Channel{ID: uuid.New(), WorkspaceID: workspaceID, Name: name, CreatedAt: r.s.now()}
	r.s.channels[ch.ID] = ch
	return &ch, nil
}

func (r *channelRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Channel, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("channels.GetByID"); err != nil {
		return nil, err
	}
	ch, ok := r.s.channels[id]
	if !ok {
		return nil, nil
	}
	return &ch, nil
}

func (r *channelRepo) ListByWorkspace(_ context.Context, workspaceID uuid.UUID) ([]models.Channel, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("channels.ListByWorkspace"); err != nil {
		return nil, err
	}
	return filter(r.s.channels, channelKey, func(c models.Channel) bool { return c.WorkspaceID == workspaceID }), nil
}

func (r *channelRepo) UpdateName(_ context.Context, id uuid.UUID, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("channels.UpdateName"); err != nil {
		return err
	}
	if ch, ok := r.s.channels[id]; ok {
		ch.Name = name
		r.s.channels[id] = ch
	}
	return nil
}

func (r *channelRepo) DeleteByIDs(_ context.Context, ids []uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("channels.DeleteByIDs"); err != nil {
		return 0, err
	}
	return deleteIDs(r.s.channels, ids), nil
}

// ---------------------------------------------------------------
// conversations
// ---------------------------------------------------------------

type conversationRepo struct{ s *Store }

func (r *conversationRepo) Create(_ context.Context, workspaceID, memberOneID, memberTwoID uuid.UUID) (*models.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("conversations.Create"); err != nil {
		return nil, err
	}
	c := models.Conversation{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		MemberOneID: memberOneID,
		MemberTwoID: memberTwoID,
		CreatedAt:   r.s.now(),
	}
	r.s.conversations[c.ID] = c
	return &c, nil
}

func (r *conversationRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("conversations.GetByID"); err != nil {
		return nil, err
	}
	c, ok := r.s.conversations[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *conversationRepo) FindBetween(_ context.Context, workspaceID, a, b uuid.UUID) (*models.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("conversations.FindBetween"); err != nil {
		return nil, err
	}
	found := filter(r.s.conversations, conversationKey, func(c models.Conversation) bool {
		return c.WorkspaceID == workspaceID &&
			((c.MemberOneID == a && c.MemberTwoID == b) || (c.MemberOneID == b && c.MemberTwoID == a))
	})
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

func (r *conversationRepo) ListByWorkspace(_ context.Context, workspaceID uuid.UUID) ([]models.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("conversations.ListByWorkspace"); err != nil {
		return nil, err
	}
	return filter(r.s.conversations, conversationKey, func(c models.Conversation) bool { return c.WorkspaceID == workspaceID }), nil
}

func (r *conversationRepo) ListByMember(_ context.Context, memberID uuid.UUID) ([]models.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("conversations.ListByMember"); err != nil {
		return nil, err
	}
	return filter(r.s.conversations, conversationKey, func(c models.Conversation) bool { return c.Involves(memberID) }), nil
}

func (r *conversationRepo) DeleteByIDs(_ context.Context, ids []uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("conversations.DeleteByIDs"); err != nil {
		return 0, err
	}
	return deleteIDs(r.s.conversations, ids), nil
}

// ---------------------------------------------------------------
// messages
// ---------------------------------------------------------------

type messageRepo struct{ s *Store }

func (r *messageRepo) Create(_ context.Context, msg *models.Message) (*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("messages.Create"); err != nil {
		return nil, err
	}
	saved := *msg
	saved.ID = uuid.New()
	saved.CreatedAt = r.s.now()
	saved.UpdatedAt = nil
	r.s.messages[saved.ID] = saved
	return &saved, nil
}

func (r *messageRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("messages.GetByID"); err != nil {
		return nil, err
	}
	m, ok := r.s.messages[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func sameID(p *uuid.UUID, id uuid.UUID) bool {
	return p != nil && *p == id
}

func (r *messageRepo) List(_ context.Context, scope repository.MessageScope, after *repository.Cursor, limit int) ([]models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("messages.List"); err != nil {
		return nil, err
	}

	var inScope func(models.Message) bool
	switch {
	case scope.ParentMessageID != nil:
		inScope = func(m models.Message) bool { return sameID(m.ParentMessageID, *scope.ParentMessageID) }
	case scope.ChannelID != nil:
		inScope = func(m models.Message) bool { return !m.IsReply() && sameID(m.ChannelID, *scope.ChannelID) }
	case scope.ConversationID != nil:
		inScope = func(m models.Message) bool { return !m.IsReply() && sameID(m.ConversationID, *scope.ConversationID) }
	default:
		return nil, errors.New("list messages: empty scope")
	}

	page := filter(r.s.messages, messageKey, func(m models.Message) bool {
		return inScope(m) && (after == nil || before(m.CreatedAt, m.ID, after))
	})
	// filter sorts oldest first.
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}
	if len(page) > limit {
		page = page[:limit]
	}
	return page, nil
}

func (r *messageRepo) listWhere(op string, keep func(models.Message) bool) ([]models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure(op); err != nil {
		return nil, err
	}
	return filter(r.s.messages, messageKey, keep), nil
}

func (r *messageRepo) ListByWorkspace(_ context.Context, workspaceID uuid.UUID) ([]models.Message, error) {
	return r.listWhere("messages.ListByWorkspace", func(m models.Message) bool { return m.WorkspaceID == workspaceID })
}

func (r *messageRepo) ListByMember(_ context.Context, memberID uuid.UUID) ([]models.Message, error) {
	return r.listWhere("messages.ListByMember", func(m models.Message) bool { return m.MemberID == memberID })
}

func (r *messageRepo) ListByChannel(_ context.Context, channelID uuid.UUID) ([]models.Message, error) {
	return r.listWhere("messages.ListByChannel", func(m models.Message) bool { return sameID(m.ChannelID, channelID) })
}

func (r *messageRepo) ListByConversations(_ context.Context, conversationIDs []uuid.UUID) ([]models.Message, error) {
	set := idSet(conversationIDs)
	return r.listWhere("messages.ListByConversations", func(m models.Message) bool {
		if m.ConversationID == nil {
			return false
		}
		_, ok := set[*m.ConversationID]
		return ok
	})
}

func (r *messageRepo) ListByParents(_ context.Context, parentIDs []uuid.UUID) ([]models.Message, error) {
	set := idSet(parentIDs)
	return r.listWhere("messages.ListByParents", func(m models.Message) bool {
		if m.ParentMessageID == nil {
			return false
		}
		_, ok := set[*m.ParentMessageID]
		return ok
	})
}

func (r *messageRepo) ThreadStats(_ context.Context, parentIDs []uuid.UUID) (map[uuid.UUID]repository.ThreadStat, error) {
	replies, err := r.listWhere("messages.ThreadStats", func(m models.Message) bool {
		return m.ParentMessageID != nil
	})
	if err != nil {
		return nil, err
	}
	wanted := idSet(parentIDs)
	stats := make(map[uuid.UUID]repository.ThreadStat)
	// replies are oldest first, so the last one seen per parent is the newest.
	for _, reply := range replies {
		parent := *reply.ParentMessageID
		if _, ok := wanted[parent]; !ok {
			continue
		}
		st := stats[parent]
		st.Count++
		st.LastReply = reply
		stats[parent] = st
	}
	return stats, nil
}

func (r *messageRepo) UpdateBody(_ context.Context, id uuid.UUID, body string, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("messages.UpdateBody"); err != nil {
		return err
	}
	if m, ok := r.s.messages[id]; ok {
		m.Body = body
		at := updatedAt
		m.UpdatedAt = &at
		r.s.messages[id] = m
	}
	return nil
}

func (r *messageRepo) DeleteByIDs(_ context.Context, ids []uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("messages.DeleteByIDs"); err != nil {
		return 0, err
	}
	return deleteIDs(r.s.messages, ids), nil
}

// ---------------------------------------------------------------
// reactions
// ---------------------------------------------------------------

type reactionRepo struct{ s *Store }

func (r *reactionRepo) Create(_ context.Context, reaction *models.Reaction) (*models.Reaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("reactions.Create"); err != nil {
		return nil, err
	}
	saved := *reaction
	saved.ID = uuid.New()
	saved.CreatedAt = r.s.now()
	r.s.reactions[saved.ID] = saved
	return &saved, nil
}

func (r *reactionRepo) listWhere(op string, keep func(models.Reaction) bool) ([]models.Reaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure(op); err != nil {
		return nil, err
	}
	return filter(r.s.reactions, reactionKey, keep), nil
}

func (r *reactionRepo) ListByMessages(_ context.Context, messageIDs []uuid.UUID) ([]models.Reaction, error) {
	set := idSet(messageIDs)
	return r.listWhere("reactions.ListByMessages", func(x models.Reaction) bool {
		_, ok := set[x.MessageID]
		return ok
	})
}

func (r *reactionRepo) ListByWorkspace(_ context.Context, workspaceID uuid.UUID) ([]models.Reaction, error) {
	return r.listWhere("reactions.ListByWorkspace", func(x models.Reaction) bool { return x.WorkspaceID == workspaceID })
}

func (r *reactionRepo) ListByMember(_ context.Context, memberID uuid.UUID) ([]models.Reaction, error) {
	return r.listWhere("reactions.ListByMember", func(x models.Reaction) bool { return x.MemberID == memberID })
}

func (r *reactionRepo) ListByMemberAndMessage(_ context.Context, memberID, messageID uuid.UUID) ([]models.Reaction, error) {
	return r.listWhere("reactions.ListByMemberAndMessage", func(x models.Reaction) bool {
		return x.MemberID == memberID && x.MessageID == messageID
	})
}

func (r *reactionRepo) DeleteByIDs(_ context.Context, ids []uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("reactions.DeleteByIDs"); err != nil {
		return 0, err
	}
	return deleteIDs(r.s.reactions, ids), nil
}
