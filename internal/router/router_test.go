package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tablero/config"
	"tablero/internal/domain"
	"tablero/internal/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Env: "test"},
		JWT: config.JWTConfig{
			AccessSecret:  "test-access-secret",
			RefreshSecret: "test-refresh-secret",
			AccessExpiry:  time.Hour,
			RefreshExpiry: time.Hour,
			Issuer:        "tablero-test",
		},
	}
}

func newTestEnv(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Notification{}, &models.NotificationView{}, &models.Visit{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return Setup(testConfig(), db), db
}

func seedUser(t *testing.T, db *gorm.DB, username, name, password, role string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &models.User{Username: username, Name: name, PasswordHash: string(hash), Role: role}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func doJSON(t *testing.T, engine http.Handler, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	var resp map[string]interface{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response %q: %v", w.Body.String(), err)
		}
	}
	return w.Code, resp
}

func login(t *testing.T, engine http.Handler, username, password string) string {
	t.Helper()
	code, resp := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": username,
		"password": password,
	})
	if code != http.StatusOK {
		t.Fatalf("login %s: status %d (%v)", username, code, resp)
	}
	token, _ := resp["access_token"].(string)
	if token == "" {
		t.Fatalf("login %s: no access token in %v", username, resp)
	}
	return token
}

func TestNotificationContract(t *testing.T) {
	engine, db := newTestEnv(t)
	seedUser(t, db, "admin", "Administrator", "secret", domain.RoleAdmin)
	seedUser(t, db, "carla", "Carla Diaz", "secret", domain.RoleUser)

	adminToken := login(t, engine, "admin", "secret")
	userToken := login(t, engine, "carla", "secret")

	// Unauthenticated and unauthorized access.
	if code, _ := doJSON(t, engine, http.MethodGet, "/api/v1/notifications/active", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("active without token: status %d, want 401", code)
	}
	if code, _ := doJSON(t, engine, http.MethodPost, "/api/v1/admin/notifications", userToken, gin.H{"message": "nope"}); code != http.StatusForbidden {
		t.Fatalf("create as user: status %d, want 403", code)
	}
	if code, _ := doJSON(t, engine, http.MethodPost, "/api/v1/admin/notifications", adminToken, gin.H{"message": ""}); code != http.StatusBadRequest {
		t.Fatalf("create empty message: status %d, want 400", code)
	}

	// Publish and read back.
	code, resp := doJSON(t, engine, http.MethodPost, "/api/v1/admin/notifications", adminToken, gin.H{"message": "System maintenance at 10pm"})
	if code != http.StatusCreated {
		t.Fatalf("create: status %d (%v)", code, resp)
	}
	first := resp["notification"].(map[string]interface{})
	firstID := uint(first["id"].(float64))

	code, resp = doJSON(t, engine, http.MethodGet, "/api/v1/notifications/active", userToken, nil)
	if code != http.StatusOK {
		t.Fatalf("active: status %d", code)
	}
	active := resp["notification"].(map[string]interface{})
	if active["message"] != "System maintenance at 10pm" || active["status"] != domain.NotificationStatusActive {
		t.Fatalf("active = %v, want maintenance notice", active)
	}

	// A second notice supersedes the first.
	code, resp = doJSON(t, engine, http.MethodPost, "/api/v1/admin/notifications", adminToken, gin.H{"message": "Second notice"})
	if code != http.StatusCreated {
		t.Fatalf("create second: status %d", code)
	}
	_, resp = doJSON(t, engine, http.MethodGet, "/api/v1/notifications/active", userToken, nil)
	if got := resp["notification"].(map[string]interface{})["message"]; got != "Second notice" {
		t.Fatalf("active message = %v, want Second notice", got)
	}
	code, resp = doJSON(t, engine, http.MethodGet, "/api/v1/admin/notifications", adminToken, nil)
	if code != http.StatusOK {
		t.Fatalf("history: status %d", code)
	}
	history := resp["notifications"].([]interface{})
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].(map[string]interface{})["message"] != "Second notice" {
		t.Fatalf("history[0] = %v, want Second notice first", history[0])
	}
	if history[1].(map[string]interface{})["status"] != domain.NotificationStatusInactive {
		t.Fatalf("history[1] = %v, want inactive", history[1])
	}

	// View tracking is idempotent and per user.
	for i := 0; i < 2; i++ {
		code, _ = doJSON(t, engine, http.MethodPost, "/api/v1/notifications/viewed", userToken, gin.H{"notification_id": firstID})
		if code != http.StatusOK {
			t.Fatalf("mark viewed (attempt %d): status %d", i+1, code)
		}
	}
	path := fmt.Sprintf("/api/v1/notifications/%d/viewed", firstID)
	_, resp = doJSON(t, engine, http.MethodGet, path, userToken, nil)
	if resp["viewed"] != true {
		t.Fatalf("viewed = %v, want true", resp["viewed"])
	}
	_, resp = doJSON(t, engine, http.MethodGet, path, adminToken, nil)
	if resp["viewed"] != false {
		t.Fatalf("viewed by other user = %v, want false", resp["viewed"])
	}
	if code, _ = doJSON(t, engine, http.MethodPost, "/api/v1/notifications/viewed", userToken, gin.H{}); code != http.StatusBadRequest {
		t.Fatalf("mark viewed without id: status %d, want 400", code)
	}
	if code, _ = doJSON(t, engine, http.MethodPost, "/api/v1/notifications/viewed", userToken, gin.H{"notification_id": 99999}); code != http.StatusNotFound {
		t.Fatalf("mark viewed unknown id: status %d, want 404", code)
	}

	// Stats resolve the viewer's display name.
	statsPath := fmt.Sprintf("/api/v1/admin/notifications/%d/stats", firstID)
	code, resp = doJSON(t, engine, http.MethodGet, statsPath, adminToken, nil)
	if code != http.StatusOK {
		t.Fatalf("stats: status %d", code)
	}
	stats := resp["stats"].(map[string]interface{})
	if stats["total_views"].(float64) != 1 {
		t.Fatalf("total_views = %v, want 1", stats["total_views"])
	}
	viewers := stats["viewers"].([]interface{})
	if viewers[0].(map[string]interface{})["user_name"] != "Carla Diaz" {
		t.Fatalf("viewers = %v, want Carla Diaz", viewers)
	}
	if code, _ = doJSON(t, engine, http.MethodGet, "/api/v1/admin/notifications/abc/stats", adminToken, nil); code != http.StatusBadRequest {
		t.Fatalf("stats with bad id: status %d, want 400", code)
	}
	if code, _ = doJSON(t, engine, http.MethodGet, statsPath, userToken, nil); code != http.StatusForbidden {
		t.Fatalf("stats as user: status %d, want 403", code)
	}

	// Deactivate-all clears the banner.
	if code, _ = doJSON(t, engine, http.MethodPost, "/api/v1/admin/notifications/deactivate-all", adminToken, nil); code != http.StatusOK {
		t.Fatalf("deactivate-all: status %d", code)
	}
	_, resp = doJSON(t, engine, http.MethodGet, "/api/v1/notifications/active", userToken, nil)
	if resp["notification"] != nil {
		t.Fatalf("active after deactivate-all = %v, want null", resp["notification"])
	}
}

func TestDashboardAndVisits(t *testing.T) {
	engine, db := newTestEnv(t)
	seedUser(t, db, "admin", "Administrator", "secret", domain.RoleAdmin)
	seedUser(t, db, "dora", "Dora Reyes", "secret", domain.RoleUser)

	adminToken := login(t, engine, "admin", "secret")
	userToken := login(t, engine, "dora", "secret")

	if code, _ := doJSON(t, engine, http.MethodPost, "/api/v1/visits", userToken, gin.H{"page": "/dashboard"}); code != http.StatusOK {
		t.Fatalf("record visit: status %d", code)
	}
	if code, _ := doJSON(t, engine, http.MethodPost, "/api/v1/visits", userToken, gin.H{}); code != http.StatusBadRequest {
		t.Fatalf("record visit without page: status %d, want 400", code)
	}

	code, resp := doJSON(t, engine, http.MethodGet, "/api/v1/admin/dashboard", adminToken, nil)
	if code != http.StatusOK {
		t.Fatalf("dashboard: status %d", code)
	}
	if resp["total_users"].(float64) != 2 {
		t.Errorf("total_users = %v, want 2", resp["total_users"])
	}
	if resp["total_visits"].(float64) != 1 {
		t.Errorf("total_visits = %v, want 1", resp["total_visits"])
	}
	if resp["has_active_notification"] != false {
		t.Errorf("has_active_notification = %v, want false", resp["has_active_notification"])
	}

	if code, _ = doJSON(t, engine, http.MethodGet, "/api/v1/admin/dashboard", userToken, nil); code != http.StatusForbidden {
		t.Fatalf("dashboard as user: status %d, want 403", code)
	}

	code, resp = doJSON(t, engine, http.MethodGet, "/api/v1/admin/visits", adminToken, nil)
	if code != http.StatusOK {
		t.Fatalf("visits: status %d", code)
	}
	if visits := resp["visits"].([]interface{}); len(visits) != 1 {
		t.Fatalf("visits = %v, want 1 entry", visits)
	}
}

func TestUserAdministration(t *testing.T) {
	engine, db := newTestEnv(t)
	seedUser(t, db, "admin", "Administrator", "secret", domain.RoleAdmin)
	adminToken := login(t, engine, "admin", "secret")

	code, resp := doJSON(t, engine, http.MethodPost, "/api/v1/admin/users", adminToken, gin.H{
		"username": "elena",
		"name":     "Elena Soto",
		"password": "hunter2",
	})
	if code != http.StatusCreated {
		t.Fatalf("create user: status %d (%v)", code, resp)
	}
	if resp["user"].(map[string]interface{})["role"] != domain.RoleUser {
		t.Fatalf("role = %v, want USER default", resp["user"])
	}

	// Duplicate username is rejected.
	code, _ = doJSON(t, engine, http.MethodPost, "/api/v1/admin/users", adminToken, gin.H{
		"username": "elena",
		"name":     "Elena Soto",
		"password": "hunter2",
	})
	if code != http.StatusConflict {
		t.Fatalf("duplicate user: status %d, want 409", code)
	}

	// The new account can sign in straight away.
	login(t, engine, "elena", "hunter2")

	code, resp = doJSON(t, engine, http.MethodGet, "/api/v1/admin/users", adminToken, nil)
	if code != http.StatusOK {
		t.Fatalf("list users: status %d", code)
	}
	if users := resp["users"].([]interface{}); len(users) != 2 {
		t.Fatalf("users = %d entries, want 2", len(users))
	}
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	engine, db := newTestEnv(t)
	seedUser(t, db, "admin", "Administrator", "secret", domain.RoleAdmin)

	code, resp := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "admin",
		"password": "secret",
	})
	if code != http.StatusOK {
		t.Fatalf("login: status %d", code)
	}
	refresh := resp["refresh_token"].(string)

	code, resp = doJSON(t, engine, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": refresh})
	if code != http.StatusOK {
		t.Fatalf("refresh: status %d (%v)", code, resp)
	}
	access, _ := resp["access_token"].(string)
	if access == "" {
		t.Fatal("refresh returned no access token")
	}

	code, resp = doJSON(t, engine, http.MethodGet, "/api/v1/me", access, nil)
	if code != http.StatusOK {
		t.Fatalf("me with refreshed token: status %d", code)
	}
	if resp["user"].(map[string]interface{})["username"] != "admin" {
		t.Fatalf("me = %v, want admin", resp["user"])
	}

	if code, _ = doJSON(t, engine, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": "garbage"}); code != http.StatusUnauthorized {
		t.Fatalf("refresh with garbage: status %d, want 401", code)
	}
}
