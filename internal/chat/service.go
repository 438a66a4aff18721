package chat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/modelly/modelly-backend/internal/common"
)

// Notifier delivers live events to currently-connected participants.
// Delivery is best-effort and at-most-once; a disconnected participant
// re-fetches state on reconnect.
type Notifier interface {
	SendToUser(userID uint64, event string, payload map[string]any)
	SendToChat(chatID string, event string, payload map[string]any)
}

// Profile is the display metadata the profile collaborator resolves for a
// participant. Lookups are enrichment only, never a correctness dependency.
type Profile struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	ProfilePhoto string `json:"profile_photo"`
}

type ProfileDirectory interface {
	Profile(ctx context.Context, userID uint64) (*Profile, error)
}

type Service struct {
	repo         *Repo
	notifier     Notifier
	profiles     ProfileDirectory
	freeMessages int
	expiry       time.Duration
}

// NewService builds the chat lifecycle manager. notifier may be nil (the
// worker has no live channel); profiles is required.
func NewService(repo *Repo, notifier Notifier, profiles ProfileDirectory, freeMessages, expiryDays int) *Service {
	if freeMessages <= 0 || freeMessages > 100 {
		freeMessages = 5
	}
	if expiryDays <= 0 {
		expiryDays = 90
	}
	return &Service{
		repo:         repo,
		notifier:     notifier,
		profiles:     profiles,
		freeMessages: freeMessages,
		expiry:       time.Duration(expiryDays) * 24 * time.Hour,
	}
}

func (s *Service) sendToUser(userID uint64, event string, payload map[string]any) {
	if s.notifier != nil {
		s.notifier.SendToUser(userID, event, payload)
	}
}

func (s *Service) sendToChat(chatID, event string, payload map[string]any) {
	if s.notifier != nil {
		s.notifier.SendToChat(chatID, event, payload)
	}
}

func (s *Service) profile(ctx context.Context, userID uint64) *Profile {
	if s.profiles == nil {
		return nil
	}
	p, err := s.profiles.Profile(ctx, userID)
	if err != nil {
		return nil
	}
	return p
}

// refreshExpiry is the single expiry rule: computed against the clock, and
// the stored status flipped opportunistically so listings converge. Both the
// lazy path and CanSend agree by construction.
func (s *Service) refreshExpiry(ctx context.Context, c *Chat) {
	if c.Status == StatusActive && time.Now().After(c.ExpiresAt) {
		_ = s.repo.MarkExpired(ctx, c.ID)
		c.Status = StatusExpired
	}
}

// StartChat creates the conversation between a client and a model, or
// returns the existing active one unchanged. The bool reports whether a new
// chat was created.
func (s *Service) StartChat(ctx context.Context, clientID, modelID uint64) (*Chat, bool, error) {
	model := s.profile(ctx, modelID)
	if model == nil || model.Role != RoleModel.String() {
		return nil, false, ErrModelNotFound
	}

	if existing, err := s.repo.FindActivePair(ctx, modelID, clientID); err == nil {
		return existing, false, nil
	} else if !IsNotFound(err) {
		return nil, false, err
	}

	chatID, err := common.NewULID()
	if err != nil {
		return nil, false, err
	}

	now := time.Now()
	c := &Chat{
		ChatID:       chatID,
		ModelID:      modelID,
		ClientID:     clientID,
		Status:       StatusActive,
		MessageCount: 1, // seed system message
		LastMessage:  &now,
		ExpiresAt:    now.Add(s.expiry),
	}
	seed := &Message{
		SenderID:  clientID,
		Type:      MessageTypeSystem,
		Content:   "Chat iniciado",
		CreatedAt: now,
	}
	if err := s.repo.CreateChat(ctx, c, seed); err != nil {
		return nil, false, err
	}

	payload := map[string]any{"chat_id": c.ChatID}
	if client := s.profile(ctx, clientID); client != nil {
		payload["client"] = client
	}
	s.sendToUser(modelID, "new_chat", payload)

	return c, true, nil
}

// SendMessage validates eligibility, appends atomically and fans out to the
// other participant. The fan-out fires only after the append is persisted,
// so a participant who re-fetches on the event observes consistent state.
func (s *Service) SendMessage(ctx context.Context, chatID string, actorID uint64, content string) (*Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > MaxMessageLen {
		return nil, ErrMessageTooLong
	}

	c, err := s.repo.GetByChatID(ctx, chatID)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}

	if !CanAccess(c, actorID) {
		return nil, ErrAccessDenied
	}

	s.refreshExpiry(ctx, c)

	d := CanSend(c, actorID, s.freeMessages, time.Now())
	if !d.Allowed {
		if d.PaymentRequired {
			return nil, &QuotaExceededError{Reason: d.Reason}
		}
		return nil, &SendRefusedError{Reason: d.Reason}
	}

	msg, err := s.repo.AppendText(ctx, c, actorID, c.RoleOf(actorID), content, time.Now())
	if err != nil {
		return nil, err
	}

	s.sendToUser(c.OtherParticipant(actorID), "new_message", map[string]any{
		"chat_id": c.ChatID,
		"message": msg,
	})

	return msg, nil
}

// ChatSummary is a listing row: the chat without its message log, plus
// best-effort participant display data.
type ChatSummary struct {
	Chat
	Model  *Profile `json:"model,omitempty"`
	Client *Profile `json:"client,omitempty"`
}

func (s *Service) ListChats(ctx context.Context, userID uint64, status Status) ([]ChatSummary, error) {
	if status == "" {
		status = StatusActive
	}
	chats, err := s.repo.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, err
	}

	out := make([]ChatSummary, 0, len(chats))
	for i := range chats {
		out = append(out, ChatSummary{
			Chat:   chats[i],
			Model:  s.profile(ctx, chats[i].ModelID),
			Client: s.profile(ctx, chats[i].ClientID),
		})
	}
	return out, nil
}

// GetChat returns the full conversation for a participant and stamps the
// counterpart's unread messages as read.
func (s *Service) GetChat(ctx context.Context, chatID string, actorID uint64) (*ChatSummary, error) {
	c, err := s.repo.GetByChatID(ctx, chatID)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}

	if !CanAccess(c, actorID) {
		return nil, ErrAccessDenied
	}

	s.refreshExpiry(ctx, c)

	if err := s.repo.MarkMessagesRead(ctx, c.ChatID, actorID, time.Now()); err != nil {
		return nil, err
	}

	msgs, err := s.repo.ListMessages(ctx, c.ChatID)
	if err != nil {
		return nil, err
	}
	c.Messages = msgs

	return &ChatSummary{
		Chat:   *c,
		Model:  s.profile(ctx, c.ModelID),
		Client: s.profile(ctx, c.ClientID),
	}, nil
}

// ToggleBlock flips active -> blocked (reason required) or blocked ->
// active. Only the model side may invoke it.
func (s *Service) ToggleBlock(ctx context.Context, chatID string, actorID uint64, reason string) (*Chat, error) {
	c, err := s.repo.GetByChatID(ctx, chatID)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}

	if !CanAccess(c, actorID) {
		return nil, ErrAccessDenied
	}
	if c.RoleOf(actorID) != RoleModel {
		return nil, ErrAccessDenied
	}

	s.refreshExpiry(ctx, c)

	now := time.Now()
	switch c.Status {
	case StatusBlocked:
		if _, err := s.repo.Unblock(ctx, c, now); err != nil {
			return nil, err
		}
		c.Status = StatusActive
		c.BlockedBy = nil
		c.BlockReason = nil
		c.MessageCount++
		s.sendToChat(c.ChatID, "chat_unblocked", map[string]any{
			"chat_id":      c.ChatID,
			"unblocker_id": actorID,
		})
		return c, nil

	case StatusActive:
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return nil, ErrBlockReasonRequired
		}
		if _, err := s.repo.Block(ctx, c, actorID, reason, now); err != nil {
			return nil, err
		}
		c.Status = StatusBlocked
		c.BlockedBy = &actorID
		c.BlockReason = &reason
		c.MessageCount++
		s.sendToChat(c.ChatID, "chat_blocked", map[string]any{
			"chat_id":    c.ChatID,
			"blocker_id": actorID,
			"reason":     reason,
		})
		return c, nil

	default:
		if c.Status == StatusExpired {
			return nil, &SendRefusedError{Reason: ReasonExpired}
		}
		return nil, &SendRefusedError{Reason: "Chat " + string(c.Status)}
	}
}

// MarkPaid is the payment collaborator's entry point; it mirrors the
// confirmed payment onto the chat and unlocks client messaging.
func (s *Service) MarkPaid(ctx context.Context, chatID, paymentID string, amountCents int64) error {
	if err := s.repo.MarkPaid(ctx, chatID, paymentID, amountCents); err != nil {
		if IsNotFound(err) {
			return ErrChatNotFound
		}
		return err
	}
	s.sendToChat(chatID, "chat_paid", map[string]any{
		"chat_id":    chatID,
		"payment_id": paymentID,
	})
	return nil
}

// ChatIDs lists every chat id the user participates in, for realtime room
// membership.
func (s *Service) ChatIDs(ctx context.Context, userID uint64) ([]string, error) {
	return s.repo.ListChatIDsByUser(ctx, userID)
}

// HasAccess reports whether userID participates in chatID. Used by the
// realtime gateway to vet room joins.
func (s *Service) HasAccess(ctx context.Context, chatID string, userID uint64) bool {
	c, err := s.repo.GetByChatID(ctx, chatID)
	if err != nil {
		return false
	}
	return CanAccess(c, userID)
}
