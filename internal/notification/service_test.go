package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/modelly/modelly-backend/internal/email"
	"github.com/modelly/modelly-backend/internal/store/rabbitmq"
)

var testDBSeq atomic.Int64

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:notification_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Notification{}))
	return db
}

func newTestService(t *testing.T) (*Service, *Repo, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	repo := NewRepo(db)
	// empty SMTP host disables the email copy
	return NewService(repo, db, email.SMTPConfig{}), repo, db
}

func TestHandleJob_NewMessage(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	job := rabbitmq.NotificationJob{
		UserID: 10,
		Event:  TypeNewMessage,
		Payload: map[string]any{
			"chat_id": "01TESTCHATID0000000000000000",
			"message": map[string]any{"content": "Oi, tudo bem?"},
		},
	}
	require.NoError(t, svc.HandleJob(ctx, job))

	list, err := repo.ListByUser(ctx, 10, 10, false)
	require.NoError(t, err)
	require.Len(t, list, 1)

	n := list[0]
	assert.Equal(t, TypeNewMessage, n.Type)
	assert.Equal(t, "Nova Mensagem", n.Title)
	assert.Equal(t, "Oi, tudo bem?", n.Message)
	assert.False(t, n.Read)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(n.Data, &payload))
	assert.Equal(t, "01TESTCHATID0000000000000000", payload["chat_id"])
}

func TestHandleJob_NewChat(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	job := rabbitmq.NotificationJob{
		UserID:  10,
		Event:   TypeNewChat,
		Payload: map[string]any{"chat_id": "01TESTCHATID0000000000000000"},
	}
	require.NoError(t, svc.HandleJob(ctx, job))

	list, err := repo.ListByUser(ctx, 10, 10, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Novo Chat", list[0].Title)
	assert.Equal(t, "Você recebeu um novo contato", list[0].Message)
}

func TestHandleJob_TruncatesLongContent(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	long := strings.Repeat("a", 150)
	job := rabbitmq.NotificationJob{
		UserID:  10,
		Event:   TypeNewMessage,
		Payload: map[string]any{"message": map[string]any{"content": long}},
	}
	require.NoError(t, svc.HandleJob(ctx, job))

	list, err := repo.ListByUser(ctx, 10, 10, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, strings.Repeat("a", 100)+"...", list[0].Message)
}

func TestListByUser_UnreadFilterAndCount(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.HandleJob(ctx, rabbitmq.NotificationJob{
			UserID:  10,
			Event:   TypeNewChat,
			Payload: map[string]any{"chat_id": fmt.Sprintf("chat-%d", i)},
		}))
	}
	// another user's notification stays invisible
	require.NoError(t, svc.HandleJob(ctx, rabbitmq.NotificationJob{UserID: 20, Event: TypeNewChat}))

	all, err := repo.ListByUser(ctx, 10, 50, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// newest first
	assert.Greater(t, all[0].ID, all[2].ID)

	require.NoError(t, repo.MarkRead(ctx, 10, all[0].ID))

	unread, err := repo.ListByUser(ctx, 10, 50, true)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	count, err := repo.UnreadCount(ctx, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestMarkRead_OwnershipAndIdempotence(t *testing.T) {
	svc, repo, db := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.HandleJob(ctx, rabbitmq.NotificationJob{UserID: 10, Event: TypeNewChat}))

	list, err := repo.ListByUser(ctx, 10, 10, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := list[0].ID

	// a foreign user reads as not found
	err = repo.MarkRead(ctx, 20, id)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	require.NoError(t, repo.MarkRead(ctx, 10, id))

	var n Notification
	require.NoError(t, db.First(&n, id).Error)
	require.NotNil(t, n.ReadAt)
	first := *n.ReadAt

	// re-marking keeps the original stamp
	require.NoError(t, repo.MarkRead(ctx, 10, id))
	require.NoError(t, db.First(&n, id).Error)
	assert.True(t, n.ReadAt.Equal(first))
}
