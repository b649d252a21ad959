package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/manideeprkummitha/team-collab/internal/apperr"
	"github.com/manideeprkummitha/team-collab/internal/models"
	"github.com/manideeprkummitha/team-collab/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PhaseState tracks one collection of a deletion sweep.
type PhaseState string

const (
	PhasePending    PhaseState = "pending"
	PhaseInProgress PhaseState = "in_progress"
	PhaseDone       PhaseState = "done"
	PhaseSkipped    PhaseState = "skipped"
)

// PhaseReport is the outcome of one phase.
type PhaseReport struct {
	Collection string     `json:"collection"`
	State      PhaseState `json:"state"`
	Found      int        `json:"found"`
	Deleted    int64      `json:"deleted"`
}

// CascadeReport describes a sweep. On failure it shows how far the sweep
// got; the rows of done phases stay deleted.
type CascadeReport struct {
	Root   string        `json:"root"`
	RootID uuid.UUID     `json:"root_id"`
	Phases []PhaseReport `json:"phases"`
}

type phase struct {
	collection string
	ids        []uuid.UUID
	state      PhaseState
	deleted    int64
	drain      func(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// sweep deletes its phases in order, leaves first, and the root row last.
// A collection that scanned empty starts skipped, so re-running a sweep
// that failed half way skips whatever the first run already drained.
//
// The order is fixed by what references what:
//
//	reactions     -> message
//	messages      -> channel | conversation, parent message, member
//	conversations -> two members
//	channels      -> workspace
//	members       -> workspace
//
// Draining from the top of that list down means a failure at any phase
// leaves only rows whose referents still exist. The worst case after a
// crash is a workspace with fewer children, never a reaction pointing at a
// deleted message.
type sweep struct {
	root       string
	rootID     uuid.UUID
	phases     []*phase
	deleteRoot func(ctx context.Context) (int64, error)
}

func (s *sweep) add(collection string, ids []uuid.UUID, drain func(context.Context, []uuid.UUID) (int64, error)) {
	state := PhasePending
	if len(ids) == 0 {
		state = PhaseSkipped
	}
	s.phases = append(s.phases, &phase{collection: collection, ids: ids, state: state, drain: drain})
}

func (s *sweep) report() *CascadeReport {
	r := &CascadeReport{Root: s.root, RootID: s.rootID, Phases: make([]PhaseReport, 0, len(s.phases))}
	for _, p := range s.phases {
		r.Phases = append(r.Phases, PhaseReport{
			Collection: p.collection,
			State:      p.state,
			Found:      len(p.ids),
			Deleted:    p.deleted,
		})
	}
	return r
}

func (s *sweep) states() map[string]PhaseState {
	out := make(map[string]PhaseState, len(s.phases))
	for _, p := range s.phases {
		out[p.collection] = p.state
	}
	return out
}

// Coordinator removes a root entity together with everything that
// references it. It never retries: the first failed phase ends the sweep.
type Coordinator struct {
	repos    *repository.Repositories
	resolver *Resolver
	logger   *zap.Logger
}

func NewCoordinator(repos *repository.Repositories, resolver *Resolver, logger *zap.Logger) *Coordinator {
	return &Coordinator{repos: repos, resolver: resolver, logger: logger}
}

func (c *Coordinator) run(ctx context.Context, s *sweep) (*CascadeReport, error) {
	for _, p := range s.phases {
		if p.state != PhasePending {
			continue
		}
		p.state = PhaseInProgress
		n, err := p.drain(ctx, p.ids)
		if err != nil {
			c.logger.Error("cascade phase failed",
				zap.Error(err),
				zap.String("root", s.root),
				zap.String("root_id", s.rootID.String()),
				zap.String("collection", p.collection),
				zap.Any("phases", s.states()),
			)
			return s.report(), apperr.Wrap(err, apperr.KindInternal, "delete "+p.collection)
		}
		p.deleted = n
		p.state = PhaseDone
	}

	n, err := s.deleteRoot(ctx)
	if err != nil {
		c.logger.Error("cascade root delete failed", zap.Error(err),
			zap.String("root", s.root), zap.String("root_id", s.rootID.String()))
		return s.report(), apperr.Wrap(err, apperr.KindInternal, "delete "+s.root)
	}
	if n == 0 {
		c.logger.Warn("cascade root vanished before delete",
			zap.String("root", s.root), zap.String("root_id", s.rootID.String()))
		return s.report(), apperr.Newf(apperr.KindInconsistency, "%s %s vanished during deletion", s.root, s.rootID)
	}

	c.logger.Info("cascade complete",
		zap.String("root", s.root),
		zap.String("root_id", s.rootID.String()),
		zap.Any("phases", s.states()),
	)
	return s.report(), nil
}

// DeleteWorkspace removes every member, channel, conversation, message and
// reaction of the workspace, then the workspace itself. Admin only.
func (c *Coordinator) DeleteWorkspace(ctx context.Context, principalID, workspaceID uuid.UUID) (*CascadeReport, error) {
	ws, err := c.repos.Workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("load workspace: %w", err)
	}
	if ws == nil {
		return nil, apperr.ErrWorkspaceNotFound
	}
	if err := c.authorizeWorkspaceDelete(ctx, principalID, ws); err != nil {
		return nil, err
	}

	var (
		members       []models.Member
		channels      []models.Channel
		conversations []models.Conversation
		messages      []models.Message
		reactions     []models.Reaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		members, err = c.repos.Members.ListByWorkspace(gctx, workspaceID)
		return
	})
	g.Go(func() (err error) {
		channels, err = c.repos.Channels.ListByWorkspace(gctx, workspaceID)
		return
	})
	g.Go(func() (err error) {
		conversations, err = c.repos.Conversations.ListByWorkspace(gctx, workspaceID)
		return
	})
	g.Go(func() (err error) {
		messages, err = c.repos.Messages.ListByWorkspace(gctx, workspaceID)
		return
	})
	g.Go(func() (err error) {
		reactions, err = c.repos.Reactions.ListByWorkspace(gctx, workspaceID)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "scan workspace")
	}

	s := &sweep{
		root:   "workspace",
		rootID: workspaceID,
		deleteRoot: func(ctx context.Context) (int64, error) {
			return c.repos.Workspaces.Delete(ctx, workspaceID)
		},
	}
	s.add("reactions", ids(reactions, reactionIDOf), c.repos.Reactions.DeleteByIDs)
	s.add("messages", ids(messages, messageIDOf), c.repos.Messages.DeleteByIDs)
	s.add("conversations", ids(conversations, conversationIDOf), c.repos.Conversations.DeleteByIDs)
	s.add("channels", ids(channels, channelIDOf), c.repos.Channels.DeleteByIDs)
	s.add("members", ids(members, memberIDOf), c.repos.Members.DeleteByIDs)

	report, err := c.run(ctx, s)
	// Members may already be gone even when a later phase failed.
	c.resolver.ForgetWorkspace(context.WithoutCancel(ctx), workspaceID)
	return report, err
}

// authorizeWorkspaceDelete admits an admin of the workspace. Once a sweep
// has drained the members phase nobody is an admin any more, so a workspace
// left without members can only be finished by its owner.
func (c *Coordinator) authorizeWorkspaceDelete(ctx context.Context, principalID uuid.UUID, ws *models.Workspace) error {
	member, err := c.resolver.ResolveMember(ctx, principalID, ws.ID)
	if err != nil {
		return err
	}
	if member != nil {
		return Authorize(member, models.RoleAdmin)
	}
	if principalID == uuid.Nil || ws.OwnerID != principalID {
		return apperr.ErrUnauthorized
	}
	remaining, err := c.repos.Members.ListByWorkspace(ctx, ws.ID)
	if err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "scan workspace members")
	}
	if len(remaining) > 0 {
		return apperr.ErrUnauthorized
	}
	c.logger.Info("owner resuming workspace deletion",
		zap.String("workspace_id", ws.ID.String()),
		zap.String("principal_id", principalID.String()),
	)
	return nil
}

// DeleteMember removes a member after re-checking the removal rules. It
// deletes the member's messages, the replies under them, every message of
// the member's direct conversations, all reactions on any of those
// messages, the reactions the member placed elsewhere, and the
// conversations themselves.
func (c *Coordinator) DeleteMember(ctx context.Context, principalID, memberID uuid.UUID) (*CascadeReport, error) {
	target, err := c.repos.Members.GetByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("load member: %w", err)
	}
	if target == nil {
		return nil, apperr.ErrMemberNotFound
	}
	actor, err := c.resolver.ResolveMember(ctx, principalID, target.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if err := CanRemoveMember(actor, target); err != nil {
		return nil, err
	}

	var (
		authored      []models.Message
		conversations []models.Conversation
		ownReactions  []models.Reaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		authored, err = c.repos.Messages.ListByMember(gctx, memberID)
		return
	})
	g.Go(func() (err error) {
		conversations, err = c.repos.Conversations.ListByMember(gctx, memberID)
		return
	})
	g.Go(func() (err error) {
		ownReactions, err = c.repos.Reactions.ListByMember(gctx, memberID)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "scan member")
	}

	var inConversations, replies []models.Message
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		inConversations, err = c.repos.Messages.ListByConversations(gctx, ids(conversations, conversationIDOf))
		return
	})
	g.Go(func() (err error) {
		replies, err = c.repos.Messages.ListByParents(gctx, ids(authored, messageIDOf))
		return
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "scan member messages")
	}

	messageIDs := union(ids(authored, messageIDOf), ids(inConversations, messageIDOf), ids(replies, messageIDOf))
	onMessages, err := c.repos.Reactions.ListByMessages(ctx, messageIDs)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "scan member reactions")
	}

	s := &sweep{
		root:   "member",
		rootID: memberID,
		deleteRoot: func(ctx context.Context) (int64, error) {
			return c.repos.Members.DeleteByIDs(ctx, []uuid.UUID{memberID})
		},
	}
	s.add("reactions", union(ids(onMessages, reactionIDOf), ids(ownReactions, reactionIDOf)), c.repos.Reactions.DeleteByIDs)
	s.add("messages", messageIDs, c.repos.Messages.DeleteByIDs)
	s.add("conversations", ids(conversations, conversationIDOf), c.repos.Conversations.DeleteByIDs)

	report, err := c.run(ctx, s)
	c.resolver.Forget(context.WithoutCancel(ctx), target.WorkspaceID, target.PrincipalID)
	return report, err
}

// DeleteChannel removes a channel with every message posted on it, thread
// replies included, and their reactions. Admin only.
func (c *Coordinator) DeleteChannel(ctx context.Context, principalID, channelID uuid.UUID) (*CascadeReport, error) {
	ch, err := c.repos.Channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("load channel: %w", err)
	}
	if ch == nil {
		return nil, apperr.ErrChannelNotFound
	}
	if _, err := c.resolver.Require(ctx, principalID, ch.WorkspaceID, models.RoleAdmin); err != nil {
		return nil, err
	}

	messages, err := c.repos.Messages.ListByChannel(ctx, channelID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "scan channel")
	}
	messageIDs := ids(messages, messageIDOf)
	reactions, err := c.repos.Reactions.ListByMessages(ctx, messageIDs)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "scan channel reactions")
	}

	s := &sweep{
		root:   "channel",
		rootID: channelID,
		deleteRoot: func(ctx context.Context) (int64, error) {
			return c.repos.Channels.DeleteByIDs(ctx, []uuid.UUID{channelID})
		},
	}
	s.add("reactions", ids(reactions, reactionIDOf), c.repos.Reactions.DeleteByIDs)
	s.add("messages", messageIDs, c.repos.Messages.DeleteByIDs)

	return c.run(ctx, s)
}

// DeleteMessage removes a message, its replies and their reactions. Only
// the author may delete a message.
func (c *Coordinator) DeleteMessage(ctx context.Context, principalID, msgID uuid.UUID) (*CascadeReport, error) {
	msg, err := c.repos.Messages.GetByID(ctx, msgID)
	if err != nil {
		return nil, fmt.Errorf("load message: %w", err)
	}
	if msg == nil {
		return nil, apperr.ErrMessageNotFound
	}
	actor, err := c.resolver.Require(ctx, principalID, msg.WorkspaceID, models.RoleMember)
	if err != nil {
		return nil, err
	}
	if actor.ID != msg.MemberID {
		return nil, apperr.ErrUnauthorized
	}

	replies, err := c.repos.Messages.ListByParents(ctx, []uuid.UUID{msgID})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "scan replies")
	}
	replyIDs := ids(replies, messageIDOf)
	reactions, err := c.repos.Reactions.ListByMessages(ctx, append([]uuid.UUID{msgID}, replyIDs...))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "scan message reactions")
	}

	s := &sweep{
		root:   "message",
		rootID: msgID,
		deleteRoot: func(ctx context.Context) (int64, error) {
			return c.repos.Messages.DeleteByIDs(ctx, []uuid.UUID{msgID})
		},
	}
	s.add("reactions", ids(reactions, reactionIDOf), c.repos.Reactions.DeleteByIDs)
	s.add("replies", replyIDs, c.repos.Messages.DeleteByIDs)

	return c.run(ctx, s)
}

func memberIDOf(m models.Member) uuid.UUID             { return m.ID }
func channelIDOf(c models.Channel) uuid.UUID           { return c.ID }
func conversationIDOf(c models.Conversation) uuid.UUID { return c.ID }
func messageIDOf(m models.Message) uuid.UUID           { return m.ID }
func reactionIDOf(r models.Reaction) uuid.UUID         { return r.ID }

func ids[T any](items []T, id func(T) uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		out = append(out, id(item))
	}
	return out
}

// union concatenates id lists, keeping the first occurrence of each id.
func union(lists ...[]uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	out := make([]uuid.UUID, 0)
	for _, list := range lists {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
