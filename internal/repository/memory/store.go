// Package memory implements the repository interfaces on maps guarded by
// one mutex. It backs STORE_BACKEND=memory and every service test.
package memory

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/manideeprkummitha/team-collab/internal/models"
	"github.com/manideeprkummitha/team-collab/internal/repository"
)

// Store holds every collection. The zero value is not usable; call New.
type Store struct {
	mu sync.RWMutex

	workspaces    map[uuid.UUID]models.Workspace
	members       map[uuid.UUID]models.Member
	users         map[uuid.UUID]models.User
	channels      map[uuid.UUID]models.Channel
	conversations map[uuid.UUID]models.Conversation
	messages      map[uuid.UUID]models.Message
	reactions     map[uuid.UUID]models.Reaction

	failures map[string]error
	clock    func() time.Time
	last     time.Time
}

type Option func(*Store)

// WithClock replaces time.Now as the source of created_at values.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

func New(opts ...Option) *Store {
	s := &Store{
		workspaces:    make(map[uuid.UUID]models.Workspace),
		members:       make(map[uuid.UUID]models.Member),
		users:         make(map[uuid.UUID]models.User),
		channels:      make(map[uuid.UUID]models.Channel),
		conversations: make(map[uuid.UUID]models.Conversation),
		messages:      make(map[uuid.UUID]models.Message),
		reactions:     make(map[uuid.UUID]models.Reaction),
		failures:      make(map[string]error),
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Workspaces:    &workspaceRepo{s},
		Members:       &memberRepo{s},
		Users:         &userRepo{s},
		Channels:      &channelRepo{s},
		Conversations: &conversationRepo{s},
		Messages:      &messageRepo{s},
		Reactions:     &reactionRepo{s},
	}
}

// FailOn makes every call to op return err until Clear is called. op is
// "<collection>.<Method>", for example "members.Create".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// Clear removes injected failures. With no arguments it removes all of them.
func (s *Store) Clear(ops ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(ops) == 0 {
		s.failures = make(map[string]error)
		return
	}
	for _, op := range ops {
		delete(s.failures, op)
	}
}

// Counts reports how many rows each collection holds.
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]int{
		"workspaces":    len(s.workspaces),
		"members":       len(s.members),
		"users":         len(s.users),
		"channels":      len(s.channels),
		"conversations": len(s.conversations),
		"messages":      len(s.messages),
		"reactions":     len(s.reactions),
	}
}

// failure must be called with mu held.
func (s *Store) failure(op string) error {
	if err, ok := s.failures[op]; ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// now returns a strictly increasing timestamp at microsecond precision,
// matching what Postgres stores. It must be called with mu held.
func (s *Store) now() time.Time {
	t := s.clock().UTC().Truncate(time.Microsecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func idSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// deleteIDs removes ids from m and reports how many were present.
func deleteIDs[T any](m map[uuid.UUID]T, ids []uuid.UUID) int64 {
	var n int64
	for id := range idSet(ids) {
		if _, ok := m[id]; ok {
			delete(m, id)
			n++
		}
	}
	return n
}

// filter returns the values of m that keep accepts, oldest first.
func filter[T any](m map[uuid.UUID]T, createdAt func(T) (time.Time, uuid.UUID), keep func(T) bool) []T {
	out := make([]T, 0)
	for _, v := range m {
		if keep(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti, idi := createdAt(out[i])
		tj, idj := createdAt(out[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return bytes.Compare(idi[:], idj[:]) < 0
	})
	return out
}

// before reports whether (t, id) sorts strictly before the cursor in
// (created_at DESC, id DESC) order, that is, whether it is older.
func before(t time.Time, id uuid.UUID, c *repository.Cursor) bool {
	if !t.Equal(c.CreatedAt) {
		return t.Before(c.CreatedAt)
	}
	return bytes.Compare(id[:], c.ID[:]) < 0
}
