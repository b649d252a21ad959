package postgres

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/manideeprkummitha/team-collab/internal/db"
	"github.com/manideeprkummitha/team-collab/internal/models"
	"github.com/manideeprkummitha/team-collab/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// testPool connects to TEAMCOLLAB_TEST_DATABASE_URL, recreates the public
// schema and migrates it. The database is wiped on every call.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("TEAMCOLLAB_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("TEAMCOLLAB_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	database, err := db.New(ctx, db.Options{URL: dsn, MaxConns: 4}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(database.Close)

	_, err = database.Pool().Exec(ctx, `DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;`)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx))
	return database.Pool()
}

func TestMessageListKeyset(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	store := NewMessageStore(pool)
	ws, member, channel := uuid.New(), uuid.New(), uuid.New()

	var roots []*models.Message
	for i := 0; i < 5; i++ {
		m, err := store.Create(ctx, &models.Message{WorkspaceID: ws, MemberID: member, Body: "root", ChannelID: &channel})
		require.NoError(t, err)
		roots = append(roots, m)
	}
	var replies []*models.Message
	for i := 0; i < 3; i++ {
		m, err := store.Create(ctx, &models.Message{WorkspaceID: ws, MemberID: member, Body: "reply", ChannelID: &channel, ParentMessageID: &roots[0].ID})
		require.NoError(t, err)
		replies = append(replies, m)
	}

	channelScope := repository.MessageScope{ChannelID: &channel}
	first, err := store.List(ctx, channelScope, nil, 3)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, []uuid.UUID{roots[4].ID, roots[3].ID, roots[2].ID},
		[]uuid.UUID{first[0].ID, first[1].ID, first[2].ID})

	last := first[2]
	rest, err := store.List(ctx, channelScope, &repository.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, 3)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, roots[1].ID, rest[0].ID)
	assert.Equal(t, roots[0].ID, rest[1].ID)

	parentScope := repository.MessageScope{ParentMessageID: &roots[0].ID}
	page, err := store.List(ctx, parentScope, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, replies[2].ID, page[0].ID)

	page, err = store.List(ctx, parentScope, &repository.Cursor{CreatedAt: page[1].CreatedAt, ID: page[1].ID}, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, replies[0].ID, page[0].ID)

	_, err = store.List(ctx, repository.MessageScope{}, nil, 2)
	assert.Error(t, err)
}

func TestMessageThreadStats(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	store := NewMessageStore(pool)
	ws, ada, bob, channel := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	busy, err := store.Create(ctx, &models.Message{WorkspaceID: ws, MemberID: ada, Body: "busy", ChannelID: &channel})
	require.NoError(t, err)
	quiet, err := store.Create(ctx, &models.Message{WorkspaceID: ws, MemberID: ada, Body: "quiet", ChannelID: &channel})
	require.NoError(t, err)

	_, err = store.Create(ctx, &models.Message{WorkspaceID: ws, MemberID: ada, Body: "one", ChannelID: &channel, ParentMessageID: &busy.ID})
	require.NoError(t, err)
	latest, err := store.Create(ctx, &models.Message{WorkspaceID: ws, MemberID: bob, Body: "two", ChannelID: &channel, ParentMessageID: &busy.ID})
	require.NoError(t, err)

	stats, err := store.ThreadStats(ctx, []uuid.UUID{busy.ID, quiet.ID})
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[busy.ID].Count)
	assert.Equal(t, latest.ID, stats[busy.ID].LastReply.ID)
	assert.Equal(t, bob, stats[busy.ID].LastReply.MemberID)

	n, err := store.DeleteByIDs(ctx, []uuid.UUID{latest.ID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
