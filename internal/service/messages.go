package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/manideeprkummitha/team-collab/internal/apperr"
	"github.com/manideeprkummitha/team-collab/internal/models"
	"github.com/manideeprkummitha/team-collab/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// CompactThreshold is the largest gap between two messages of the same
	// author that still renders them under one header.
	CompactThreshold = 5 * time.Minute
)

type MessageService struct {
	repos    *repository.Repositories
	resolver *Resolver
	cascade  *Coordinator
	images   ImageURLResolver
	logger   *zap.Logger
	now      func() time.Time
}

func NewMessageService(repos *repository.Repositories, resolver *Resolver, cascade *Coordinator, images ImageURLResolver, logger *zap.Logger) *MessageService {
	return &MessageService{
		repos:    repos,
		resolver: resolver,
		cascade:  cascade,
		images:   images,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ListQuery selects one page. Exactly one scope field must be set.
type ListQuery struct {
	Scope  repository.MessageScope
	Cursor string
	Limit  int
}

// EncodeCursor renders the keyset position as "<unix nanos>:<id>" in
// unpadded base64url.
//
// The cursor names the last row a client has seen, not an offset:
//   - The next page is "everything strictly older than (created_at, id)",
//     which the store answers from the scope index without counting rows.
//   - Messages posted while a client pages do not shift later pages.
//   - id breaks ties between rows stamped with the same created_at, so no
//     row is skipped or repeated at a page boundary.
//
// Clients must treat the string as opaque; DecodeCursor rejects anything it
// did not produce with Invalid.
func EncodeCursor(c repository.Cursor) string {
	raw := strconv.FormatInt(c.CreatedAt.UnixNano(), 10) + ":" + c.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func DecodeCursor(s string) (*repository.Cursor, error) {
	invalid := apperr.New(apperr.KindInvalid, "invalid cursor")

	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, invalid
	}
	nanos, id, ok := strings.Cut(string(raw), ":")
	if !ok {
		return nil, invalid
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, invalid
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, invalid
	}
	return &repository.Cursor{CreatedAt: time.Unix(0, n).UTC(), ID: parsed}, nil
}

func scopeFields(scope repository.MessageScope) int {
	n := 0
	for _, p := range []*uuid.UUID{scope.ChannelID, scope.ConversationID, scope.ParentMessageID} {
		if p != nil {
			n++
		}
	}
	return n
}

// List returns one page of a scope, newest first, fully enriched. A caller
// who cannot see the scope gets an empty page, not an error.
func (s *MessageService) List(ctx context.Context, principalID uuid.UUID, q ListQuery) (*models.MessagePage, error) {
	if scopeFields(q.Scope) != 1 {
		return nil, apperr.New(apperr.KindInvalid, "exactly one of channel_id, conversation_id or parent_message_id is required")
	}
	var after *repository.Cursor
	if q.Cursor != "" {
		c, err := DecodeCursor(q.Cursor)
		if err != nil {
			return nil, err
		}
		after = c
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	empty := &models.MessagePage{Items: make([]models.EnrichedMessage, 0)}

	member, err := s.scopeMember(ctx, principalID, q.Scope)
	if err != nil || member == nil {
		if err != nil {
			return nil, err
		}
		return empty, nil
	}

	// One extra row tells whether another page exists.
	raw, err := s.repos.Messages.List(ctx, q.Scope, after, limit+1)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to list messages")
	}
	var next string
	if len(raw) > limit {
		raw = raw[:limit]
		last := raw[len(raw)-1]
		next = EncodeCursor(repository.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	items, inconsistencies, err := s.enrich(ctx, raw, q.Scope.ParentMessageID == nil)
	if err != nil {
		return nil, err
	}
	Compact(items)

	return &models.MessagePage{Items: items, NextCursor: next, Inconsistencies: inconsistencies}, nil
}

// scopeMember resolves the caller's member in the scope's workspace. It
// returns nil when the scope does not exist or the caller may not read
// it; direct conversations are visible to their two members only.
func (s *MessageService) scopeMember(ctx context.Context, principalID uuid.UUID, scope repository.MessageScope) (*models.Member, error) {
	var workspaceID uuid.UUID
	conversationID := scope.ConversationID

	switch {
	case scope.ChannelID != nil:
		ch, err := s.repos.Channels.GetByID(ctx, *scope.ChannelID)
		if err != nil {
			return nil, fmt.Errorf("get channel: %w", err)
		}
		if ch == nil {
			return nil, nil
		}
		workspaceID = ch.WorkspaceID
	case scope.ConversationID != nil:
		conv, err := s.repos.Conversations.GetByID(ctx, *scope.ConversationID)
		if err != nil {
			return nil, fmt.Errorf("get conversation: %w", err)
		}
		if conv == nil {
			return nil, nil
		}
		workspaceID = conv.WorkspaceID
	case scope.ParentMessageID != nil:
		parent, err := s.repos.Messages.GetByID(ctx, *scope.ParentMessageID)
		if err != nil {
			return nil, fmt.Errorf("get parent message: %w", err)
		}
		if parent == nil {
			return nil, nil
		}
		workspaceID = parent.WorkspaceID
		conversationID = parent.ConversationID
	}

	member, err := s.resolver.ResolveMember(ctx, principalID, workspaceID)
	if err != nil || member == nil {
		return nil, err
	}
	ok, err := canSeeConversation(ctx, s.repos.Conversations, member, conversationID)
	if err != nil || !ok {
		return nil, err
	}
	return member, nil
}

func canSeeConversation(ctx context.Context, conversations repository.ConversationRepository, member *models.Member, conversationID *uuid.UUID) (bool, error) {
	if conversationID == nil {
		return true, nil
	}
	conv, err := conversations.GetByID(ctx, *conversationID)
	if err != nil {
		return false, fmt.Errorf("get conversation: %w", err)
	}
	return conv != nil && conv.WorkspaceID == member.WorkspaceID && conv.Involves(member.ID), nil
}

// enrich attaches authors, reaction groups, image URLs and, for root
// messages, thread summaries. A message whose author cannot be resolved
// keeps its place with a nil Author and is reported as an inconsistency.
func (s *MessageService) enrich(ctx context.Context, msgs []models.Message, withThreads bool) ([]models.EnrichedMessage, []models.Inconsistency, error) {
	items := make([]models.EnrichedMessage, 0, len(msgs))
	if len(msgs) == 0 {
		return items, nil, nil
	}

	messageIDs := make([]uuid.UUID, 0, len(msgs))
	rootIDs := make([]uuid.UUID, 0, len(msgs))
	for _, m := range msgs {
		messageIDs = append(messageIDs, m.ID)
		if !m.IsReply() {
			rootIDs = append(rootIDs, m.ID)
		}
	}

	var (
		reactions []models.Reaction
		stats     map[uuid.UUID]repository.ThreadStat
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		reactions, err = s.repos.Reactions.ListByMessages(gctx, messageIDs)
		return
	})
	if withThreads && len(rootIDs) > 0 {
		g.Go(func() (err error) {
			stats, err = s.repos.Messages.ThreadStats(gctx, rootIDs)
			return
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, apperr.Wrap(err, apperr.KindInternal, "failed to load message details")
	}

	authorIDs := make([]uuid.UUID, 0, len(msgs)+len(stats))
	for _, m := range msgs {
		authorIDs = append(authorIDs, m.MemberID)
	}
	for _, st := range stats {
		authorIDs = append(authorIDs, st.LastReply.MemberID)
	}
	authors, err := s.authors(ctx, union(authorIDs))
	if err != nil {
		return nil, nil, err
	}

	groups := groupReactions(reactions)

	var inconsistencies []models.Inconsistency
	for _, m := range msgs {
		item := models.EnrichedMessage{
			Message:   m,
			ImageURL:  s.imageURL(ctx, m.Image),
			Reactions: groups[m.ID],
		}
		if item.Reactions == nil {
			item.Reactions = make([]models.ReactionGroup, 0)
		}

		if a := authors[m.MemberID]; a.author != nil {
			item.Author = a.author
		} else {
			s.logger.Warn("message author unresolved",
				zap.String("message_id", m.ID.String()),
				zap.String("member_id", m.MemberID.String()),
				zap.String("reason", a.missing),
			)
			inconsistencies = append(inconsistencies, models.Inconsistency{MessageID: m.ID, Reason: a.missing})
		}

		if st, ok := stats[m.ID]; ok {
			at := st.LastReply.CreatedAt
			item.Thread = models.ThreadSummary{Count: st.Count, LastReplyAt: &at}
			if a := authors[st.LastReply.MemberID].author; a != nil {
				item.Thread.LastReplyName = a.Name
				item.Thread.LastReplyImage = a.Image
			}
		}
		items = append(items, item)
	}
	return items, inconsistencies, nil
}

type resolvedAuthor struct {
	author  *models.Author
	missing string
}

// authors resolves member ids to display identities. Every requested id
// gets an entry; unresolved ones carry the reason in missing.
func (s *MessageService) authors(ctx context.Context, memberIDs []uuid.UUID) (map[uuid.UUID]resolvedAuthor, error) {
	members, err := s.repos.Members.GetByIDs(ctx, memberIDs)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to load authors")
	}
	principals := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		principals = append(principals, m.PrincipalID)
	}
	users, err := s.repos.Users.GetByIDs(ctx, principals)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to load author accounts")
	}

	out := make(map[uuid.UUID]resolvedAuthor, len(memberIDs))
	for _, id := range memberIDs {
		m, ok := members[id]
		if !ok {
			out[id] = resolvedAuthor{missing: "author member not found"}
			continue
		}
		u, ok := users[m.PrincipalID]
		if !ok {
			out[id] = resolvedAuthor{missing: "author account not found"}
			continue
		}
		out[id] = resolvedAuthor{author: &models.Author{MemberID: m.ID, Name: u.Name, Image: u.Image}}
	}
	return out, nil
}

// groupReactions folds reactions per message by value. Groups keep the
// order in which their value was first used.
func groupReactions(reactions []models.Reaction) map[uuid.UUID][]models.ReactionGroup {
	groups := make(map[uuid.UUID][]models.ReactionGroup)
	index := make(map[uuid.UUID]map[string]int)
	for _, r := range reactions {
		byValue, ok := index[r.MessageID]
		if !ok {
			byValue = make(map[string]int)
			index[r.MessageID] = byValue
		}
		i, ok := byValue[r.Value]
		if !ok {
			i = len(groups[r.MessageID])
			byValue[r.Value] = i
			groups[r.MessageID] = append(groups[r.MessageID], models.ReactionGroup{Value: r.Value, MemberIDs: make([]uuid.UUID, 0, 1)})
		}
		g := &groups[r.MessageID][i]
		g.Count++
		g.MemberIDs = append(g.MemberIDs, r.MemberID)
	}
	return groups
}

func (s *MessageService) imageURL(ctx context.Context, key string) string {
	if key == "" {
		return ""
	}
	if s.images == nil {
		return key
	}
	url, err := s.images.ImageURL(ctx, key)
	if err != nil {
		s.logger.Warn("image url unavailable", zap.String("key", key), zap.Error(err))
		return ""
	}
	return url
}

// Compact marks each message that directly follows, in time, a message by
// the same member posted less than CompactThreshold earlier. items are
// newest first, so the chronological predecessor of items[i] is
// items[i+1]. The oldest item of a page is never compact.
func Compact(items []models.EnrichedMessage) {
	for i := range items {
		items[i].Compact = false
		if i+1 == len(items) {
			continue
		}
		prev := items[i+1]
		items[i].Compact = prev.MemberID == items[i].MemberID &&
			items[i].CreatedAt.Sub(prev.CreatedAt) < CompactThreshold
	}
}

// NewMessage is the input of Create. Either a surface or a parent is set;
// a reply inherits its parent's surface.
type NewMessage struct {
	Body            string
	Image           string
	ChannelID       *uuid.UUID
	ConversationID  *uuid.UUID
	ParentMessageID *uuid.UUID
}

// Create posts a message as the caller's member of the surface's workspace.
func (s *MessageService) Create(ctx context.Context, principalID uuid.UUID, in NewMessage) (*models.Message, error) {
	in.Body = strings.TrimSpace(in.Body)
	in.Image = strings.TrimSpace(in.Image)
	if in.Body == "" && in.Image == "" {
		return nil, apperr.New(apperr.KindInvalid, "message body or image is required")
	}

	if in.ParentMessageID != nil {
		parent, err := s.repos.Messages.GetByID(ctx, *in.ParentMessageID)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.KindInternal, "failed to load parent message")
		}
		if parent == nil {
			return nil, apperr.ErrMessageNotFound
		}
		if parent.IsReply() {
			return nil, apperr.New(apperr.KindInvalid, "replies cannot have replies")
		}
		if (in.ChannelID != nil && !sameSurface(in.ChannelID, parent.ChannelID)) ||
			(in.ConversationID != nil && !sameSurface(in.ConversationID, parent.ConversationID)) {
			return nil, apperr.New(apperr.KindInvalid, "reply must be posted where its parent is")
		}
		in.ChannelID, in.ConversationID = parent.ChannelID, parent.ConversationID
	}
	if (in.ChannelID == nil) == (in.ConversationID == nil) {
		return nil, apperr.New(apperr.KindInvalid, "exactly one of channel_id or conversation_id is required")
	}

	var workspaceID uuid.UUID
	if in.ChannelID != nil {
		ch, err := s.repos.Channels.GetByID(ctx, *in.ChannelID)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.KindInternal, "failed to load channel")
		}
		if ch == nil {
			return nil, apperr.ErrChannelNotFound
		}
		workspaceID = ch.WorkspaceID
	} else {
		conv, err := s.repos.Conversations.GetByID(ctx, *in.ConversationID)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.KindInternal, "failed to load conversation")
		}
		if conv == nil {
			return nil, apperr.ErrConversationNotFound
		}
		workspaceID = conv.WorkspaceID
	}

	member, err := s.resolver.Require(ctx, principalID, workspaceID, models.RoleMember)
	if err != nil {
		return nil, err
	}
	ok, err := canSeeConversation(ctx, s.repos.Conversations, member, in.ConversationID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to load conversation")
	}
	if !ok {
		return nil, apperr.ErrUnauthorized
	}

	msg, err := s.repos.Messages.Create(ctx, &models.Message{
		WorkspaceID:     workspaceID,
		MemberID:        member.ID,
		Body:            in.Body,
		Image:           in.Image,
		ChannelID:       in.ChannelID,
		ConversationID:  in.ConversationID,
		ParentMessageID: in.ParentMessageID,
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to create message")
	}
	return msg, nil
}

func sameSurface(a, b *uuid.UUID) bool {
	return b != nil && *a == *b
}

// Update edits the body of a message. Author only.
func (s *MessageService) Update(ctx context.Context, principalID, messageID uuid.UUID, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperr.New(apperr.KindInvalid, "message body is required")
	}
	msg, err := s.repos.Messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to load message")
	}
	if msg == nil {
		return nil, apperr.ErrMessageNotFound
	}
	member, err := s.resolver.Require(ctx, principalID, msg.WorkspaceID, models.RoleMember)
	if err != nil {
		return nil, err
	}
	if member.ID != msg.MemberID {
		return nil, apperr.ErrUnauthorized
	}

	now := s.now()
	if err := s.repos.Messages.UpdateBody(ctx, messageID, body, now); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to update message")
	}
	msg.Body = body
	msg.UpdatedAt = &now
	return msg, nil
}

// Remove deletes a message with its replies and reactions. Author only.
func (s *MessageService) Remove(ctx context.Context, principalID, messageID uuid.UUID) (*CascadeReport, error) {
	return s.cascade.DeleteMessage(ctx, principalID, messageID)
}

// Get returns one enriched message, or nil when the caller cannot see it.
func (s *MessageService) Get(ctx context.Context, principalID, messageID uuid.UUID) (*models.EnrichedMessage, error) {
	msg, err := s.repos.Messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	if msg == nil {
		return nil, nil
	}
	member, err := s.resolver.ResolveMember(ctx, principalID, msg.WorkspaceID)
	if err != nil || member == nil {
		return nil, err
	}
	ok, err := canSeeConversation(ctx, s.repos.Conversations, member, msg.ConversationID)
	if err != nil || !ok {
		return nil, err
	}

	items, _, err := s.enrich(ctx, []models.Message{*msg}, !msg.IsReply())
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}
