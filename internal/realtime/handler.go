package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"

	"github.com/modelly/modelly-backend/internal/auth"
	"github.com/modelly/modelly-backend/internal/common"
)

// ChatDirectory is the slice of the chat service the gateway needs: room
// membership at connect time and join vetting afterwards.
type ChatDirectory interface {
	ChatIDs(ctx context.Context, userID uint64) ([]string, error)
	HasAccess(ctx context.Context, chatID string, userID uint64) bool
}

// PresenceMirror propagates presence changes to a shared store so other
// instances can observe them. Best effort.
type PresenceMirror interface {
	SetOnline(ctx context.Context, userID uint64) error
	SetOffline(ctx context.Context, userID uint64) error
}

// Handler upgrades authenticated users to a realtime connection and keeps
// the presence registry and room membership in sync with its lifetime.
type Handler struct {
	hub       *Hub
	chats     ChatDirectory
	mirror    PresenceMirror // optional
	jwtSecret string
	origin    string
}

func NewHandler(hub *Hub, chats ChatDirectory, mirror PresenceMirror, jwtSecret, origin string) *Handler {
	return &Handler{
		hub:       hub,
		chats:     chats,
		mirror:    mirror,
		jwtSecret: jwtSecret,
		origin:    origin,
	}
}

// clientFrame is what connected clients may send upstream.
type clientFrame struct {
	Action string `json:"action"` // join_chat | leave_chat | ping
	ChatID string `json:"chat_id,omitempty"`
}

func (h *Handler) tokenFrom(c *gin.Context) string {
	if t := c.Query("token"); t != "" {
		return t
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func (h *Handler) Serve(c *gin.Context) {
	token := h.tokenFrom(c)
	if token == "" {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	claims, err := auth.ParseJWT(token, h.jwtSecret)
	if err != nil {
		common.Fail(c, http.StatusUnauthorized, 40102, "invalid token")
		return
	}
	uid := claims.UserID

	opts := &websocket.AcceptOptions{}
	if h.origin != "" {
		opts.OriginPatterns = []string{strings.TrimPrefix(strings.TrimPrefix(h.origin, "https://"), "http://")}
	}
	ws, err := websocket.Accept(c.Writer, c.Request, opts)
	if err != nil {
		log.Printf("[ws] accept failed user=%d err=%v", uid, err)
		return
	}

	conn := newWSConn(ws)
	if prev := h.hub.Presence().Register(uid, conn); prev != nil {
		// last-connected-wins
		prev.Close("superseded by a newer connection")
	}

	ctx := c.Request.Context()
	if h.mirror != nil {
		_ = h.mirror.SetOnline(ctx, uid)
	}
	h.hub.BroadcastUserStatus(uid, true)

	// join the user's existing conversations
	if ids, err := h.chats.ChatIDs(ctx, uid); err == nil {
		for _, id := range ids {
			h.hub.JoinChat(id, uid)
		}
	}

	h.readLoop(ctx, uid, ws)

	// a stale close from a superseded connection must not evict the newer
	// registration or its rooms
	if h.hub.Presence().Unregister(uid, conn) {
		h.hub.LeaveAll(uid)
		if h.mirror != nil {
			_ = h.mirror.SetOffline(context.Background(), uid)
		}
		h.hub.BroadcastUserStatus(uid, false)
	}
	conn.Close("session ended")
}

func (h *Handler) readLoop(ctx context.Context, uid uint64, ws *websocket.Conn) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			return
		}

		var f clientFrame
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}

		switch f.Action {
		case "join_chat":
			if f.ChatID != "" && h.chats.HasAccess(ctx, f.ChatID, uid) {
				h.hub.JoinChat(f.ChatID, uid)
			}
		case "leave_chat":
			if f.ChatID != "" {
				h.hub.LeaveChat(f.ChatID, uid)
			}
		case "ping":
			if h.mirror != nil {
				_ = h.mirror.SetOnline(ctx, uid)
			}
		}
	}
}
