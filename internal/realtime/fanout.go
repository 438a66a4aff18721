package realtime

import (
	"context"
	"log"
	"time"

	"github.com/modelly/modelly-backend/internal/store/rabbitmq"
)

// durableEvents are the events worth persisting for an offline recipient.
// Presence and block/unblock pushes are advisory; a reconnecting user
// re-fetches chat state anyway.
var durableEvents = map[string]struct{}{
	"new_chat":    {},
	"new_message": {},
}

// Fanout implements the chat service's Notifier: live push to connected
// participants, durable RabbitMQ hand-off for offline recipients of
// persistent events. The queue is optional; without it offline recipients
// simply miss the event.
type Fanout struct {
	hub   *Hub
	queue *rabbitmq.Publisher
}

func NewFanout(hub *Hub, queue *rabbitmq.Publisher) *Fanout {
	return &Fanout{hub: hub, queue: queue}
}

func (f *Fanout) SendToUser(userID uint64, event string, payload map[string]any) {
	if f.hub.SendToUser(userID, event, payload) {
		return
	}
	if f.queue == nil {
		return
	}
	if _, ok := durableEvents[event]; !ok {
		return
	}

	// fire and forget: the live path must never block on the broker
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.queue.PublishNotification(ctx, rabbitmq.NotificationJob{
		UserID:  userID,
		Event:   event,
		Payload: payload,
	}); err != nil {
		log.Printf("[fanout] durable hand-off failed user=%d event=%s err=%v", userID, event, err)
	}
}

func (f *Fanout) SendToChat(chatID string, event string, payload map[string]any) {
	f.hub.SendToChat(chatID, event, payload)
}
