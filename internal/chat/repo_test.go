package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"
)

func seedChat(t *testing.T, repo *Repo) *Chat {
	t.Helper()
	now := time.Now()
	c := &Chat{
		ChatID:       "01REPOTESTCHAT00000000000000",
		ModelID:      testModelID,
		ClientID:     testClientID,
		Status:       StatusActive,
		MessageCount: 1,
		LastMessage:  &now,
		ExpiresAt:    now.Add(24 * time.Hour),
	}
	seed := &Message{
		SenderID:  testClientID,
		Type:      MessageTypeSystem,
		Content:   "Chat iniciado",
		CreatedAt: now,
	}
	if err := repo.CreateChat(context.Background(), c, seed); err != nil {
		t.Fatalf("create chat: %v", err)
	}
	return c
}

func TestAppendText_ConflictWhenStatusChangedUnderneath(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	c := seedChat(t, repo)

	// another actor blocks between our read and our append
	if err := db.Model(&Chat{}).Where("id = ?", c.ID).
		UpdateColumn("status", StatusBlocked).Error; err != nil {
		t.Fatalf("block underneath: %v", err)
	}

	_, err := repo.AppendText(ctx, c, testClientID, RoleClient, "oi", time.Now())
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// the losing append must leave no message behind
	var n int64
	db.Model(&Message{}).Where("chat_id = ? AND type = ?", c.ChatID, MessageTypeText).Count(&n)
	if n != 0 {
		t.Fatalf("conflicted append left %d message rows", n)
	}
}

func TestAppendText_BumpsRoleCounters(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	c := seedChat(t, repo)

	if _, err := repo.AppendText(ctx, c, testClientID, RoleClient, "oi", time.Now()); err != nil {
		t.Fatalf("client append: %v", err)
	}
	if _, err := repo.AppendText(ctx, c, testModelID, RoleModel, "olá", time.Now()); err != nil {
		t.Fatalf("model append: %v", err)
	}

	var reloaded Chat
	if err := db.Where("id = ?", c.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.MessageCount != 3 || reloaded.ClientMessageCount != 1 || reloaded.ModelMessageCount != 1 {
		t.Fatalf("counters off: total=%d client=%d model=%d",
			reloaded.MessageCount, reloaded.ClientMessageCount, reloaded.ModelMessageCount)
	}
	if reloaded.LastClientMessage == nil || reloaded.LastModelMessage == nil {
		t.Fatalf("role timestamps not stamped")
	}
}

func TestBlock_DoubleBlockConflicts(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	c := seedChat(t, repo)

	if _, err := repo.Block(ctx, c, testModelID, "spam", time.Now()); err != nil {
		t.Fatalf("block: %v", err)
	}
	if _, err := repo.Block(ctx, c, testModelID, "spam again", time.Now()); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on second block, got %v", err)
	}
	if _, err := repo.Unblock(ctx, c, time.Now()); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	if _, err := repo.Unblock(ctx, c, time.Now()); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on second unblock, got %v", err)
	}
}

func TestMarkExpired_OnlyFromActive(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	c := seedChat(t, repo)

	if _, err := repo.Block(ctx, c, testModelID, "spam", time.Now()); err != nil {
		t.Fatalf("block: %v", err)
	}
	if err := repo.MarkExpired(ctx, c.ID); err != nil {
		t.Fatalf("mark expired: %v", err)
	}

	var reloaded Chat
	if err := db.Where("id = ?", c.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != StatusBlocked {
		t.Fatalf("expiry must not override blocked, got %q", reloaded.Status)
	}
}

func TestMarkMessagesRead_OnceOnly(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	c := seedChat(t, repo)

	if _, err := repo.AppendText(ctx, c, testModelID, RoleModel, "olá", time.Now()); err != nil {
		t.Fatalf("append: %v", err)
	}

	first := time.Now()
	if err := repo.MarkMessagesRead(ctx, c.ChatID, testClientID, first); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	var msg Message
	if err := db.Where("chat_id = ? AND sender_id = ?", c.ChatID, testModelID).First(&msg).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if msg.ReadAt == nil {
		t.Fatalf("message not marked read")
	}

	// a later pass must not move the stamp
	if err := repo.MarkMessagesRead(ctx, c.ChatID, testClientID, first.Add(time.Hour)); err != nil {
		t.Fatalf("second mark read: %v", err)
	}
	var again Message
	if err := db.Where("id = ?", msg.ID).First(&again).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !again.ReadAt.Equal(*msg.ReadAt) {
		t.Fatalf("read_at moved from %v to %v", msg.ReadAt, again.ReadAt)
	}

	// the reader's own messages are untouched
	var own Message
	if err := db.Where("chat_id = ? AND sender_id = ?", c.ChatID, testClientID).First(&own).Error; err != nil {
		t.Fatalf("load own: %v", err)
	}
	if own.ReadAt != nil {
		t.Fatalf("own message should stay unread")
	}
}

func TestMarkPaid_SetsPaymentMirror(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	c := seedChat(t, repo)

	if err := repo.MarkPaid(ctx, c.ChatID, "pay_42", 4990); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	var reloaded Chat
	if err := db.Where("id = ?", c.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.IsPaid || reloaded.PaymentStatus != PaymentCompleted || reloaded.PaymentAmountCents != 4990 {
		t.Fatalf("payment mirror off: %+v", reloaded)
	}
	if reloaded.PaymentID == nil || *reloaded.PaymentID != "pay_42" {
		t.Fatalf("payment id not recorded")
	}

	if err := repo.MarkPaid(ctx, "01NOSUCHCHAT0000000000000000", "pay_x", 1); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record-not-found, got %v", err)
	}
}

func TestFindActivePair_IgnoresNonActive(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	c := seedChat(t, repo)

	got, err := repo.FindActivePair(ctx, testModelID, testClientID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ChatID != c.ChatID {
		t.Fatalf("wrong chat %q", got.ChatID)
	}

	if _, err := repo.Block(ctx, c, testModelID, "spam", time.Now()); err != nil {
		t.Fatalf("block: %v", err)
	}
	if _, err := repo.FindActivePair(ctx, testModelID, testClientID); !IsNotFound(err) {
		t.Fatalf("blocked chat must not satisfy the active lookup, got %v", err)
	}
}
