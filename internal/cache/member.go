// Package cache keeps resolved memberships in Redis so authorization does
// not hit Postgres on every request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/manideeprkummitha/team-collab/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	memberPrefix = "member:"

	// DefaultTTL bounds how long a role change made by another replica
	// can go unnoticed if its invalidation is lost.
	DefaultTTL = 10 * time.Minute
)

// MemberCache stores positive membership lookups keyed by
// member:<workspace>:<principal>. Absence is never cached so a fresh join
// is visible immediately.
type MemberCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMemberCache connects to redisURL ("redis://host:6379/0") and pings it.
func NewMemberCache(ctx context.Context, redisURL string, ttl time.Duration) (*MemberCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewMemberCacheWithClient(client, ttl), nil
}

func NewMemberCacheWithClient(client *redis.Client, ttl time.Duration) *MemberCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemberCache{client: client, ttl: ttl}
}

func memberKey(workspaceID, principalID uuid.UUID) string {
	return memberPrefix + workspaceID.String() + ":" + principalID.String()
}

// Get returns nil, nil on a miss.
func (c *MemberCache) Get(ctx context.Context, workspaceID, principalID uuid.UUID) (*models.Member, error) {
	raw, err := c.client.Get(ctx, memberKey(workspaceID, principalID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached member: %w", err)
	}

	var m models.Member
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode cached member: %w", err)
	}
	return &m, nil
}

func (c *MemberCache) Set(ctx context.Context, m *models.Member) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode member: %w", err)
	}
	if err := c.client.Set(ctx, memberKey(m.WorkspaceID, m.PrincipalID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache member: %w", err)
	}
	return nil
}

func (c *MemberCache) Invalidate(ctx context.Context, workspaceID, principalID uuid.UUID) error {
	if err := c.client.Del(ctx, memberKey(workspaceID, principalID)).Err(); err != nil {
		return fmt.Errorf("invalidate member: %w", err)
	}
	return nil
}

// InvalidateWorkspace drops every cached member of a workspace. It walks
// the keyspace with SCAN rather than KEYS.
func (c *MemberCache) InvalidateWorkspace(ctx context.Context, workspaceID uuid.UUID) error {
	pattern := memberPrefix + workspaceID.String() + ":*"

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete %s: %w", pattern, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (c *MemberCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *MemberCache) Close() error {
	return c.client.Close()
}
