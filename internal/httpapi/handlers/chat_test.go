package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/modelly/modelly-backend/internal/httpapi/middleware"
	"github.com/modelly/modelly-backend/internal/models"
)

func startChatContext(t *testing.T, role string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/chats",
		strings.NewReader(`{"model_id": 10}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.UserIDKey, uint64(20))
	c.Set(middleware.RoleKey, role)
	return c, w
}

func TestStartChat_NonClientActorForbidden(t *testing.T) {
	// nil ChatSvc: the role gate must fire before any service call
	h := &Handler{}

	for _, role := range []string{models.RoleModel, models.RoleAdmin, ""} {
		c, w := startChatContext(t, role)
		h.StartChat(c)

		if w.Code != http.StatusForbidden {
			t.Fatalf("role %q: expected 403, got %d", role, w.Code)
		}

		var resp struct {
			Code int `json:"code"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("role %q: decode response: %v", role, err)
		}
		if resp.Code != 40311 {
			t.Fatalf("role %q: expected business code 40311, got %d", role, resp.Code)
		}
	}
}
