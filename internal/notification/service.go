package notification

import (
	"context"
	"encoding/json"
	"log"

	"gorm.io/gorm"

	"github.com/modelly/modelly-backend/internal/email"
	"github.com/modelly/modelly-backend/internal/models"
	"github.com/modelly/modelly-backend/internal/store/rabbitmq"
)

// Service turns queued jobs into durable notification records, with a
// best-effort email copy. Consumed by cmd/worker.
type Service struct {
	repo *Repo
	db   *gorm.DB
	smtp email.SMTPConfig
}

func NewService(repo *Repo, db *gorm.DB, smtp email.SMTPConfig) *Service {
	return &Service{repo: repo, db: db, smtp: smtp}
}

// HandleJob persists the notification. A failed insert is returned so the
// consumer nacks and the broker retries; email failures are only logged.
func (s *Service) HandleJob(ctx context.Context, job rabbitmq.NotificationJob) error {
	title, body := render(job)

	var data json.RawMessage
	if len(job.Payload) > 0 {
		if b, err := json.Marshal(job.Payload); err == nil {
			data = b
		}
	}

	n := &Notification{
		UserID:   job.UserID,
		Type:     job.Event,
		Title:    title,
		Message:  body,
		Data:     data,
		Priority: "medium",
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	s.sendEmailCopy(ctx, job.UserID, title, body)
	return nil
}

func (s *Service) sendEmailCopy(ctx context.Context, userID uint64, subject, body string) {
	if s.smtp.Host == "" {
		return
	}
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, userID).Error; err != nil || u.Email == "" {
		return
	}
	if err := email.SendText(s.smtp, u.Email, subject, body); err != nil {
		log.Printf("[notification] email copy failed user=%d err=%v", userID, err)
	}
}

func render(job rabbitmq.NotificationJob) (title, body string) {
	switch job.Event {
	case TypeNewMessage:
		return "Nova Mensagem", truncate(messageContent(job.Payload), 100)
	case TypeNewChat:
		return "Novo Chat", "Você recebeu um novo contato"
	default:
		return job.Event, ""
	}
}

func messageContent(payload map[string]any) string {
	msg, ok := payload["message"].(map[string]any)
	if !ok {
		return ""
	}
	content, _ := msg["content"].(string)
	return content
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
