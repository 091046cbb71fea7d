package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellness-backend-go/internal/config"
	"wellness-backend-go/internal/db"
	"wellness-backend-go/internal/logger"
	"wellness-backend-go/internal/migrations"
	"wellness-backend-go/internal/services"
)

var fixedNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

type testAPI struct {
	t      *testing.T
	server *Server
	srv    *httptest.Server
	db     *sqlx.DB
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	conn, err := db.Open(config.DriverSQLite, filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_, err = migrations.Apply(conn, config.DriverSQLite)
	require.NoError(t, err)

	cfg := config.Config{
		DBDriver:          config.DriverSQLite,
		DatabaseURL:       "test",
		JWTSecret:         "test-secret",
		JWTIssuer:         "wellness-test",
		AccessTTLSeconds:  3600,
		RefreshTTLSeconds: 86400,
		Timezone:          "UTC",
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := services.NewEventHub(16)
	go hub.Run(ctx)

	server := NewServer(conn, cfg, services.NewMemoryRevoker(func() time.Time { return fixedNow }), hub, logger.Discard())
	server.Now = func() time.Time { return fixedNow }
	srv := httptest.NewServer(server.Router())
	t.Cleanup(srv.Close)
	return &testAPI{t: t, server: server, srv: srv, db: conn}
}

func (a *testAPI) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	a.t.Helper()
	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(v)
	default:
		raw, err := json.Marshal(v)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	out := map[string]interface{}{}
	if len(bytes.TrimSpace(raw)) > 0 {
		require.NoError(a.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

// register creates an account and returns its access token, refresh token
// and user id.
func (a *testAPI) register(email string) (string, string, string) {
	a.t.Helper()
	status, body := a.do(http.MethodPost, "/api/register", "", map[string]string{
		"name":                  "User " + email,
		"email":                 email,
		"password":              "password123",
		"password_confirmation": "password123",
	})
	require.Equal(a.t, http.StatusCreated, status, body)
	user := body["user"].(map[string]interface{})
	return body["access_token"].(string), body["refresh_token"].(string), user["id"].(string)
}

func (a *testAPI) count(query string, args ...interface{}) int {
	a.t.Helper()
	var n int
	require.NoError(a.t, a.db.Get(&n, query, args...))
	return n
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := setupAPI(t)
	for _, path := range []string{"/api/habits", "/api/moods/today", "/api/journal", "/api/statistics/summary", "/api/user", "/api/dashboard"} {
		status, body := api.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
		assert.Equal(t, "Unauthenticated.", body["message"])
	}
	status, _ := api.do(http.MethodGet, "/api/habits", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	_, refresh, _ := api.register("a@example.com")
	status, _ = api.do(http.MethodGet, "/api/habits", refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, status, "refresh token is not an access token")
}

func TestRegisterLoginAndCurrentUser(t *testing.T) {
	api := setupAPI(t)
	_, _, userID := api.register("ada@example.com")

	status, body := api.do(http.MethodPost, "/api/login", "", map[string]string{"email": "ADA@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Bearer", body["token_type"])
	token := body["access_token"].(string)

	status, body = api.do(http.MethodGet, "/api/user", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, userID, body["id"])
	assert.Equal(t, "ada@example.com", body["email"])
	assert.NotContains(t, body, "password_hash")

	status, _ = api.do(http.MethodPost, "/api/login", "", map[string]string{"email": "ada@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = api.do(http.MethodPost, "/api/login", "", map[string]string{})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["errors"], "email")
}

func TestLogoutAndRefresh(t *testing.T) {
	api := setupAPI(t)
	access, refresh, _ := api.register("a@example.com")

	status, body := api.do(http.MethodPost, "/api/refresh", "", map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, status, body)
	newAccess := body["access_token"].(string)
	newRefresh := body["refresh_token"].(string)

	status, _ = api.do(http.MethodPost, "/api/refresh", "", map[string]string{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, status, "refresh tokens are single use")

	status, _ = api.do(http.MethodPost, "/api/logout", newAccess, map[string]string{"refresh_token": newRefresh})
	require.Equal(t, http.StatusOK, status)

	status, _ = api.do(http.MethodGet, "/api/user", newAccess, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = api.do(http.MethodPost, "/api/refresh", "", map[string]string{"refresh_token": newRefresh})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = api.do(http.MethodGet, "/api/user", access, nil)
	assert.Equal(t, http.StatusOK, status, "other sessions stay valid")
}

func TestAccountManagement(t *testing.T) {
	api := setupAPI(t)
	token, _, userID := api.register("a@example.com")
	api.register("b@example.com")

	status, body := api.do(http.MethodPatch, "/api/user", token, map[string]string{"name": "Renamed"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Renamed", body["name"])
	assert.Equal(t, "a@example.com", body["email"])

	status, body = api.do(http.MethodPatch, "/api/user", token, map[string]string{"email": "B@example.com"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["errors"], "email")

	status, body = api.do(http.MethodPut, "/api/user/password", token, map[string]string{
		"current_password": "password123", "password": "new-password", "password_confirmation": "new-password",
	})
	require.Equal(t, http.StatusNoContent, status, body)
	status, _ = api.do(http.MethodPost, "/api/login", "", map[string]string{"email": "a@example.com", "password": "new-password"})
	assert.Equal(t, http.StatusOK, status)

	status, _ = api.do(http.MethodPost, "/api/habits", token, map[string]string{"name": "Walk", "category": "sport"})
	require.Equal(t, http.StatusCreated, status)

	status, _ = api.do(http.MethodDelete, "/api/user", token, nil)
	require.Equal(t, http.StatusNoContent, status)
	assert.Equal(t, 0, api.count(`SELECT COUNT(*) FROM habits WHERE user_id = $1`, userID))
	status, _ = api.do(http.MethodGet, "/api/user", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestHabitToggleScenario(t *testing.T) {
	api := setupAPI(t)
	token, _, _ := api.register("a@example.com")

	status, habit := api.do(http.MethodPost, "/api/habits", token, map[string]string{"name": "Sleep 8h", "category": "sleep"})
	require.Equal(t, http.StatusCreated, status, habit)
	habitID := habit["id"].(string)
	assert.Equal(t, true, habit["is_active"])

	status, entry := api.do(http.MethodPost, "/api/habits/"+habitID+"/toggle", token, map[string]bool{"completed": true})
	require.Equal(t, http.StatusOK, status, entry)
	assert.Equal(t, "2026-03-15", entry["date"])

	status, today := api.do(http.MethodGet, "/api/habit-logs/today", token, nil)
	require.Equal(t, http.StatusOK, status)
	items := today["items"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, true, item["completed"])
	assert.Equal(t, entry["id"], item["log_id"])

	status, _ = api.do(http.MethodPost, "/api/habits/"+habitID+"/toggle", token, map[string]bool{"completed": false})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, api.count(`SELECT COUNT(*) FROM habit_logs WHERE habit_id = $1`, habitID))

	status, body := api.do(http.MethodPost, "/api/habits/"+habitID+"/toggle", token, map[string]interface{}{"completed": true, "date": "2026-03-16"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["errors"], "date")

	status, logs := api.do(http.MethodGet, "/api/habits/"+habitID+"/logs?from=2026-03-01&to=2026-03-31", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, logs["items"], 1)

	status, _ = api.do(http.MethodGet, "/api/habits/"+habitID+"/logs?from=yesterday", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestHabitUpdateAndDelete(t *testing.T) {
	api := setupAPI(t)
	token, _, _ := api.register("a@example.com")
	_, habit := api.do(http.MethodPost, "/api/habits", token, map[string]string{"name": "Walk", "category": "sport"})
	habitID := habit["id"].(string)

	status, updated := api.do(http.MethodPut, "/api/habits/"+habitID, token, map[string]interface{}{"is_active": false})
	require.Equal(t, http.StatusOK, status, updated)
	assert.Equal(t, false, updated["is_active"])
	assert.Equal(t, "Walk", updated["name"])

	status, list := api.do(http.MethodGet, "/api/habits?active=true", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, list["items"])
	_, list = api.do(http.MethodGet, "/api/habits", token, nil)
	assert.Len(t, list["items"], 1)

	for i := 0; i < 5; i++ {
		date := fixedNow.AddDate(0, 0, -i).Format("2006-01-02")
		status, _ := api.do(http.MethodPost, "/api/habits/"+habitID+"/toggle", token, map[string]interface{}{"completed": true, "date": date})
		require.Equal(t, http.StatusOK, status)
	}
	assert.Equal(t, 5, api.count(`SELECT COUNT(*) FROM habit_logs WHERE habit_id = $1`, habitID))

	status, _ = api.do(http.MethodDelete, "/api/habits/"+habitID, token, nil)
	require.Equal(t, http.StatusNoContent, status)
	assert.Equal(t, 0, api.count(`SELECT COUNT(*) FROM habit_logs WHERE habit_id = $1`, habitID))

	status, _ = api.do(http.MethodDelete, "/api/habits/"+habitID, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestValidationAndMalformedPayloads(t *testing.T) {
	api := setupAPI(t)
	token, _, _ := api.register("a@example.com")

	status, body := api.do(http.MethodPost, "/api/habits", token, map[string]string{})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	errs := body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "category")

	status, _ = api.do(http.MethodPost, "/api/habits", token, "{not json")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = api.do(http.MethodPost, "/api/moods", token, map[string]interface{}{"mood_level": "high"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["errors"], "mood_level")

	status, _ = api.do(http.MethodPost, "/api/moods", token, map[string]interface{}{"mood_level": 9})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = api.do(http.MethodPost, "/api/journal", token, map[string]interface{}{"title": "no content"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, 0, api.count(`SELECT COUNT(*) FROM journal_entries`))
}

func TestOwnershipIsolation(t *testing.T) {
	api := setupAPI(t)
	owner, _, _ := api.register("owner@example.com")
	intruder, _, _ := api.register("intruder@example.com")

	_, habit := api.do(http.MethodPost, "/api/habits", owner, map[string]string{"name": "Read", "category": "mental"})
	habitID := habit["id"].(string)
	_, entry := api.do(http.MethodPost, "/api/journal", owner, map[string]string{"content": "secret"})
	entryID := entry["id"].(string)

	checks := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodPut, "/api/habits/" + habitID, map[string]string{"name": "Mine"}},
		{http.MethodDelete, "/api/habits/" + habitID, nil},
		{http.MethodPost, "/api/habits/" + habitID + "/toggle", map[string]bool{"completed": true}},
		{http.MethodGet, "/api/habits/" + habitID + "/logs", nil},
		{http.MethodGet, "/api/journal/" + entryID, nil},
		{http.MethodPut, "/api/journal/" + entryID, map[string]string{"content": "mine"}},
		{http.MethodDelete, "/api/journal/" + entryID, nil},
	}
	for _, c := range checks {
		status, _ := api.do(c.method, c.path, intruder, c.body)
		assert.Equal(t, http.StatusForbidden, status, c.method+" "+c.path)
	}

	status, _ := api.do(http.MethodGet, "/api/journal/00000000-0000-4000-8000-000000000000", owner, nil)
	assert.Equal(t, http.StatusNotFound, status)

	_, list := api.do(http.MethodGet, "/api/habits", intruder, nil)
	assert.Empty(t, list["items"])
	assert.Equal(t, 0, api.count(`SELECT COUNT(*) FROM habit_logs`))
	_, got := api.do(http.MethodGet, "/api/journal/"+entryID, owner, nil)
	assert.Equal(t, "secret", got["content"])
}

func TestMoodScenario(t *testing.T) {
	api := setupAPI(t)
	token, _, _ := api.register("a@example.com")

	status, body := api.do(http.MethodGet, "/api/moods/today", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "mood")
	assert.Nil(t, body["mood"])

	status, body = api.do(http.MethodPost, "/api/moods", token, map[string]interface{}{"mood_level": 1, "note": "tired"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Len(t, body["suggestions"], 5)
	first := body["mood"].(map[string]interface{})

	_, body = api.do(http.MethodGet, "/api/moods/today", token, nil)
	assert.Equal(t, float64(1), body["mood"].(map[string]interface{})["mood_level"])

	status, body = api.do(http.MethodPost, "/api/moods", token, map[string]interface{}{"mood_level": 4})
	require.Equal(t, http.StatusOK, status)
	second := body["mood"].(map[string]interface{})
	assert.Equal(t, first["id"], second["id"])
	assert.Equal(t, float64(4), second["mood_level"])
	assert.Equal(t, "tired", second["note"], "omitted note keeps the stored one")
	assert.Equal(t, services.Suggestions(4), toStrings(body["suggestions"]))

	status, body = api.do(http.MethodPost, "/api/moods", token, `{"mood_level": 4, "note": null}`)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, body["mood"].(map[string]interface{})["note"])

	_, page := api.do(http.MethodGet, "/api/moods", token, nil)
	assert.Equal(t, float64(1), page["total"])
	assert.Equal(t, float64(30), page["per_page"])
	assert.Equal(t, 1, api.count(`SELECT COUNT(*) FROM moods`))
}

func TestJournalEndpoints(t *testing.T) {
	api := setupAPI(t)
	token, _, _ := api.register("a@example.com")

	status, entry := api.do(http.MethodPost, "/api/journal", token, map[string]interface{}{"title": "Day one", "content": "Hello", "mood_level": 3})
	require.Equal(t, http.StatusCreated, status, entry)
	entryID := entry["id"].(string)

	status, updated := api.do(http.MethodPut, "/api/journal/"+entryID, token, "{\"title\": null}")
	require.Equal(t, http.StatusOK, status, updated)
	assert.Nil(t, updated["title"])
	assert.Equal(t, float64(3), updated["mood_level"])
	assert.Equal(t, "Hello", updated["content"])

	for i := 0; i < 11; i++ {
		api.do(http.MethodPost, "/api/journal", token, map[string]string{"content": "more"})
	}
	_, page := api.do(http.MethodGet, "/api/journal?page=2", token, nil)
	assert.Equal(t, float64(2), page["current_page"])
	assert.Equal(t, float64(2), page["last_page"])
	assert.Equal(t, float64(12), page["total"])
	assert.Len(t, page["data"], 2)

	status, page = api.do(http.MethodGet, "/api/journal?page=9223372036854775807", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, page["data"])
	assert.Equal(t, float64(2147483647), page["current_page"])

	status, _ = api.do(http.MethodDelete, "/api/journal/"+entryID, token, nil)
	require.Equal(t, http.StatusNoContent, status)
	status, _ = api.do(http.MethodGet, "/api/journal/"+entryID, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStatisticsEndpoints(t *testing.T) {
	api := setupAPI(t)
	token, _, _ := api.register("a@example.com")
	_, habit := api.do(http.MethodPost, "/api/habits", token, map[string]string{"name": "Run", "category": "sport"})
	habitID := habit["id"].(string)
	for i := 0; i < 10; i++ {
		date := fixedNow.AddDate(0, 0, -i).Format("2006-01-02")
		api.do(http.MethodPost, "/api/habits/"+habitID+"/toggle", token, map[string]interface{}{"completed": i < 7, "date": date})
	}
	api.do(http.MethodPost, "/api/moods", token, map[string]int{"mood_level": 4})

	status, stats := api.do(http.MethodGet, "/api/statistics/habits?days=30", token, nil)
	require.Equal(t, http.StatusOK, status)
	items := stats["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, float64(70), items[0].(map[string]interface{})["success_rate"])

	status, chart := api.do(http.MethodGet, "/api/statistics/mood-chart?days=9999", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(365), chart["days"])
	assert.Len(t, chart["items"], 1)

	status, summary := api.do(http.MethodGet, "/api/statistics/summary", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2026-03", summary["month"])
	assert.Equal(t, float64(4), summary["average_mood"])
	assert.Equal(t, float64(7), summary["total_habits_completed"])
	top := summary["top_habit"].(map[string]interface{})
	assert.Equal(t, "Run", top["name"])

	status, dash := api.do(http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2026-03-15", dash["date"])
	assert.Len(t, dash["suggestions"], 5)
	assert.NotEmpty(t, dash["quote"])
}

func TestHealth(t *testing.T) {
	api := setupAPI(t)
	status, body := api.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "up", body["database"])

	require.NoError(t, api.db.Close())
	status, body = api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "degraded", body["status"])
}

func TestEventsSocket(t *testing.T) {
	api := setupAPI(t)
	token, _, userID := api.register("a@example.com")
	other, _, _ := api.register("b@example.com")

	wsURL := "ws" + strings.TrimPrefix(api.srv.URL, "http") + "/api/ws?token="
	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"garbage", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+token, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return api.server.Events.Connections(userID) == 1 }, 2*time.Second, 10*time.Millisecond)

	api.do(http.MethodPost, "/api/habits", other, map[string]string{"name": "Not yours", "category": "other"})
	status, _ := api.do(http.MethodPost, "/api/moods", token, map[string]int{"mood_level": 5})
	require.Equal(t, http.StatusOK, status)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev struct {
		Type string                 `json:"type"`
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, services.EventMoodRecorded, ev.Type)
	assert.Equal(t, float64(5), ev.Data["mood_level"])
	assert.Equal(t, userID, ev.Data["user_id"])
}

func toStrings(v interface{}) []string {
	items, _ := v.([]interface{})
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, _ := item.(string)
		out = append(out, s)
	}
	return out
}
