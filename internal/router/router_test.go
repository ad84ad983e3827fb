package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tourboard/internal/db"
	"tourboard/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))

	return New(gdb, zap.NewNop(), "test-secret"), gdb
}

// client 保存会话 cookie 的测试客户端
type client struct {
	t       *testing.T
	r       *gin.Engine
	cookies []*http.Cookie
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)
	if set := w.Result().Cookies(); len(set) > 0 {
		c.cookies = set
	}
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func register(t *testing.T, r *gin.Engine, username string) (*client, uint) {
	t.Helper()
	c := &client{t: t, r: r}
	w := c.do(http.MethodPost, "/api/auth/register", gin.H{"username": username, "password": "password1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return c, uint(decode(t, w)["id"].(float64))
}

func TestHealthAndRequestID(t *testing.T) {
	r, _ := setupTestRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-Id"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestAuthRequired(t *testing.T) {
	r, _ := setupTestRouter(t)
	anon := &client{t: t, r: r}
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodPost, "/api/threads", gin.H{"title": "x"}).Code)
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodGet, "/api/notifications", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodGet, "/api/admin/statistics", nil).Code)

	user, _ := register(t, r, "plainuser")
	assert.Equal(t, http.StatusForbidden, user.do(http.MethodGet, "/api/admin/statistics", nil).Code)
	assert.Equal(t, http.StatusConflict, (&client{t: t, r: r}).do(http.MethodPost, "/api/auth/register", gin.H{"username": "plainuser", "password": "password1"}).Code)
}

func TestCommentLikeNotificationFlow(t *testing.T) {
	r, _ := setupTestRouter(t)
	owner, _ := register(t, r, "owner")
	guest, _ := register(t, r, "guest1")

	w := owner.do(http.MethodPost, "/api/threads", gin.H{"title": "Gyeongju", "content": "temples", "area": "gyeongju"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	threadID := uint(decode(t, w)["id"].(float64))

	w = guest.do(http.MethodPost, fmt.Sprintf("/api/threads/%d/comments", threadID), gin.H{"content": "nice trip"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	commentID := uint(decode(t, w)["id"].(float64))

	w = guest.do(http.MethodPost, fmt.Sprintf("/api/threads/%d/comments", threadID), gin.H{"content": "reply", "parent_id": commentID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = guest.do(http.MethodPost, fmt.Sprintf("/api/threads/%d/comments", threadID), gin.H{"content": "", "parent_id": commentID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = guest.do(http.MethodGet, fmt.Sprintf("/api/threads/%d/comments", threadID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	roots := decode(t, w)["comments"].([]any)
	require.Len(t, roots, 1)
	assert.Len(t, roots[0].(map[string]any)["children"].([]any), 1)

	w = guest.do(http.MethodPost, fmt.Sprintf("/api/threads/%d/like", threadID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"liked": true, "like_count": float64(1)}, decode(t, w))

	w = guest.do(http.MethodGet, fmt.Sprintf("/api/threads/%d", threadID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["liked_by_current_user"])

	w = owner.do(http.MethodGet, "/api/notifications/unread-count", nil)
	assert.Equal(t, float64(2), decode(t, w)["unread_count"])

	w = owner.do(http.MethodGet, "/api/notifications", nil)
	list := decode(t, w)["notifications"].([]any)
	require.Len(t, list, 2)
	first := uint(list[0].(map[string]any)["id"].(float64))

	assert.Equal(t, http.StatusNoContent, owner.do(http.MethodPost, fmt.Sprintf("/api/notifications/%d/read", first), nil).Code)
	assert.Equal(t, http.StatusNotFound, guest.do(http.MethodPost, fmt.Sprintf("/api/notifications/%d/read", first), nil).Code)

	w = owner.do(http.MethodDelete, "/api/notifications", gin.H{"ids": []uint{first, 9999}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["deleted"])

	assert.Equal(t, http.StatusForbidden, guest.do(http.MethodDelete, fmt.Sprintf("/api/threads/%d", threadID), nil).Code)
	assert.Equal(t, http.StatusBadRequest, guest.do(http.MethodDelete, "/api/threads/abc", nil).Code)
}

func TestAdminDeletesUser(t *testing.T) {
	r, gdb := setupTestRouter(t)
	admin, adminID := register(t, r, "admin1")
	require.NoError(t, gdb.Model(&models.User{}).Where("id = ?", adminID).Update("role", models.RoleAdmin).Error)

	victim, victimID := register(t, r, "victim")
	w := victim.do(http.MethodPost, "/api/threads", gin.H{"title": "to be purged"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = admin.do(http.MethodGet, "/api/admin/statistics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["users"])

	assert.Equal(t, http.StatusForbidden, admin.do(http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", adminID), nil).Code)

	w = admin.do(http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", victimID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), decode(t, w)["threads"])

	assert.Equal(t, http.StatusNotFound, admin.do(http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", victimID), nil).Code)
	// 被删用户的会话失效
	assert.Equal(t, http.StatusUnauthorized, victim.do(http.MethodGet, "/api/auth/me", nil).Code)
}

func TestUserProfileRoutes(t *testing.T) {
	r, _ := setupTestRouter(t)
	alice, aliceID := register(t, r, "alice")
	bob, bobID := register(t, r, "bob")

	w := alice.do(http.MethodPost, "/api/threads", gin.H{"title": "Jeju loop"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	threadID := uint(decode(t, w)["id"].(float64))
	w = bob.do(http.MethodPost, fmt.Sprintf("/api/threads/%d/like", threadID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = bob.do(http.MethodGet, "/api/users/username/alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(aliceID), decode(t, w)["id"])
	w = bob.do(http.MethodGet, "/api/users/username/nobody", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = bob.do(http.MethodGet, fmt.Sprintf("/api/users/%d/threads", aliceID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["threads"], 1)
	w = alice.do(http.MethodGet, fmt.Sprintf("/api/users/%d/liked-threads", bobID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["threads"], 1)

	w = bob.do(http.MethodPut, fmt.Sprintf("/api/users/%d", aliceID), gin.H{"nickname": "hijack"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = alice.do(http.MethodPut, fmt.Sprintf("/api/users/%d", aliceID), gin.H{"nickname": "Alice", "email": "a@example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Alice", decode(t, w)["nickname"])

	anon := &client{t: t, r: r}
	w = anon.do(http.MethodPut, fmt.Sprintf("/api/users/%d", aliceID), gin.H{"nickname": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
