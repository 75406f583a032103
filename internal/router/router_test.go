package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"studytracker/backend/internal/db"
	"studytracker/backend/internal/handler"
	"studytracker/backend/internal/repository"
	"studytracker/backend/internal/router"
	"studytracker/backend/internal/service"
	"studytracker/backend/migrations"
)

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type subjectsEnvelope struct {
	Subjects []struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Color        string `json:"color"`
		CreationDate int64  `json:"creationDate"`
	} `json:"subjects"`
}

type sessionsEnvelope struct {
	Sessions []struct {
		SubjectID string `json:"subjectId"`
		Duration  int64  `json:"duration"`
		Date      int64  `json:"date"`
	} `json:"sessions"`
}

type goalEnvelope struct {
	Goal *struct {
		Kind      string `json:"kind"`
		TimeBased *int64 `json:"timeBased"`
		TaskBased *int64 `json:"taskBased"`
	} `json:"goal"`
}

type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			Fields map[string]string `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

const day = int64(24 * time.Hour)

func TestSubjectAndSessionLifecycle(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "user1@example.com", "123456")

	status, body := requestJSON(t, engine, http.MethodPost, "/api/subjects", user.Token, map[string]string{
		"id": "a", "name": "  Math ", "color": "#ef4444",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on add subject, got %d: %s", status, body)
	}
	addSubject(t, engine, user.Token, "b", "Art", "#22c55e")

	status, body = requestJSON(t, engine, http.MethodPost, "/api/subjects", user.Token, map[string]string{
		"id": "a", "name": "Again", "color": "#ef4444",
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate subject id, got %d: %s", status, body)
	}

	status, _ = requestJSON(t, engine, http.MethodPut, "/api/subjects/b", user.Token, map[string]string{
		"name": "Drawing", "color": "#3b82f6",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on edit subject, got %d", status)
	}

	subjects := listSubjects(t, engine, user.Token)
	if len(subjects.Subjects) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(subjects.Subjects))
	}
	if subjects.Subjects[0].Name != "Math" || subjects.Subjects[1].Name != "Drawing" {
		t.Fatalf("unexpected subjects: %+v", subjects.Subjects)
	}
	if subjects.Subjects[0].CreationDate == 0 {
		t.Fatal("expected creationDate to be stamped by the store")
	}

	d0 := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC).UnixNano()
	recordSession(t, engine, user.Token, "a", d0, 30)
	recordSession(t, engine, user.Token, "a", d0, 45)
	recordSession(t, engine, user.Token, "b", d0+day, 20)

	all := listSessions(t, engine, user.Token, "/api/sessions")
	if len(all.Sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(all.Sessions))
	}

	forA := listSessions(t, engine, user.Token, "/api/subjects/a/sessions")
	if len(forA.Sessions) != 2 {
		t.Fatalf("expected 2 sessions for subject a, got %d", len(forA.Sessions))
	}

	weekly := listSessions(t, engine, user.Token, fmt.Sprintf("/api/sessions/weekly?start=%d&end=%d", d0+day, d0+7*day))
	if len(weekly.Sessions) != 1 || weekly.Sessions[0].SubjectID != "b" {
		t.Fatalf("expected only the day-two session in range, got %+v", weekly.Sessions)
	}

	status, _ = requestJSON(t, engine, http.MethodDelete, "/api/subjects/a", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on remove subject, got %d", status)
	}
	all = listSessions(t, engine, user.Token, "/api/sessions")
	if len(all.Sessions) != 1 {
		t.Fatalf("expected removal to cascade to sessions, got %d left", len(all.Sessions))
	}

	status, _ = requestJSON(t, engine, http.MethodDelete, "/api/subjects/a", user.Token, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 removing a missing subject, got %d", status)
	}
}

func TestValidationFailures(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "user1@example.com", "123456")
	addSubject(t, engine, user.Token, "a", "Math", "#ef4444")

	status, raw := requestJSON(t, engine, http.MethodPost, "/api/subjects", user.Token, map[string]string{
		"id": "c", "name": "   ", "color": "#ef4444",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank subject name, got %d", status)
	}
	var apiErr apiErrorEnvelope
	if err := json.Unmarshal(raw, &apiErr); err != nil {
		t.Fatalf("unmarshal error response: %v", err)
	}
	if apiErr.Error.Code != "invalid_input" || apiErr.Error.Details.Fields["name"] == "" {
		t.Fatalf("expected invalid_input on name, got %+v", apiErr.Error)
	}

	status, _ = requestJSON(t, engine, http.MethodPost, "/api/sessions", user.Token, map[string]int64{
		"startTime": 1000, "endTime": 2000, "duration": 0, "date": 500,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero-minute session, got %d", status)
	}

	status, _ = requestJSON(t, engine, http.MethodPost, "/api/sessions", user.Token, map[string]interface{}{
		"subjectId": "ghost", "startTime": 1000, "endTime": 61000, "duration": 1, "date": 500,
	})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown subject, got %d", status)
	}

	status, _ = requestJSON(t, engine, http.MethodPut, "/api/goal/time", user.Token, map[string]int{"hours": 0})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-positive goal, got %d", status)
	}

	status, _ = requestJSON(t, engine, http.MethodGet, "/api/sessions/weekly?start=abc&end=1", user.Token, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed range, got %d", status)
	}
}

func TestDailyGoalIsOverwrittenWholesale(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "user1@example.com", "123456")

	goal := getGoal(t, engine, user.Token)
	if goal.Goal != nil {
		t.Fatalf("expected no goal initially, got %+v", goal.Goal)
	}

	status, _ := requestJSON(t, engine, http.MethodPut, "/api/goal", user.Token, map[string]interface{}{
		"kind": "timeBased", "timeBased": 3,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on set goal, got %d", status)
	}

	status, _ = requestJSON(t, engine, http.MethodPut, "/api/goal/task", user.Token, map[string]int{"tasks": 5})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on set task goal, got %d", status)
	}

	goal = getGoal(t, engine, user.Token)
	if goal.Goal == nil || goal.Goal.Kind != "taskBased" || goal.Goal.TaskBased == nil || *goal.Goal.TaskBased != 5 {
		t.Fatalf("expected taskBased 5, got %+v", goal.Goal)
	}
	if goal.Goal.TimeBased != nil {
		t.Fatal("expected the time-based target to be gone after overwrite")
	}

	status, _ = requestJSON(t, engine, http.MethodPut, "/api/goal", user.Token, map[string]interface{}{
		"kind": "streak", "streak": 3,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown goal kind, got %d", status)
	}
}

func TestUserIsolationAndAuth(t *testing.T) {
	engine := setupTestEngine(t)
	user1 := registerUser(t, engine, "user1@example.com", "123456")
	user2 := registerUser(t, engine, "user2@example.com", "123456")

	addSubject(t, engine, user1.Token, "a", "Math", "#ef4444")
	recordSession(t, engine, user1.Token, "a", time.Now().UnixNano(), 25)

	if got := listSubjects(t, engine, user2.Token); len(got.Subjects) != 0 {
		t.Fatalf("expected user2 to see no subjects, got %d", len(got.Subjects))
	}
	if got := listSessions(t, engine, user2.Token, "/api/sessions"); len(got.Sessions) != 0 {
		t.Fatalf("expected user2 to see no sessions, got %d", len(got.Sessions))
	}

	status, _ := requestJSON(t, engine, http.MethodGet, "/api/subjects", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}

	status, _ = requestJSON(t, engine, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "USER1@example.com", "password": "123456",
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", status)
	}

	status, body := requestJSON(t, engine, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "user1@example.com", "password": "123456",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on login, got %d: %s", status, body)
	}
}

func TestCORSPreflight(t *testing.T) {
	engine := setupTestEngine(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/subjects/a", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "DELETE")
	recorder := httptest.NewRecorder()

	engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
}

func setupTestEngine(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	if _, err := db.RunMigrations(database, migrations.FS); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(database)
	studyRepo := repository.NewStudyRepository(database)
	authService := service.NewAuthService(userRepo, "test-secret", 24*time.Hour, nil)
	studyService := service.NewStudyService(studyRepo, nil)

	authHandler := handler.NewAuthHandler(authService)
	studyHandler := handler.NewStudyHandler(studyService)

	return router.New(authService, authHandler, studyHandler, []string{"http://localhost:5173"}, nil)
}

func registerUser(t *testing.T, server http.Handler, email, password string) authResponse {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s failed with status %d: %s", email, status, string(body))
	}
	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal register response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("empty token for user %s", email)
	}
	return resp
}

func addSubject(t *testing.T, server http.Handler, token, id, name, color string) {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/subjects", token, map[string]string{
		"id": id, "name": name, "color": color,
	})
	if status != http.StatusCreated {
		t.Fatalf("add subject %s failed with status %d: %s", id, status, string(body))
	}
}

func recordSession(t *testing.T, server http.Handler, token, subjectID string, date int64, minutes int64) {
	t.Helper()
	start := date + int64(9*time.Hour)
	status, body := requestJSON(t, server, http.MethodPost, "/api/sessions", token, map[string]interface{}{
		"subjectId": subjectID,
		"startTime": start,
		"endTime":   start + minutes*int64(time.Minute),
		"duration":  minutes,
		"date":      date,
	})
	if status != http.StatusCreated {
		t.Fatalf("record session failed with status %d: %s", status, string(body))
	}
}

func listSubjects(t *testing.T, server http.Handler, token string) subjectsEnvelope {
	t.Helper()
	var resp subjectsEnvelope
	getJSON(t, server, "/api/subjects", token, &resp)
	return resp
}

func listSessions(t *testing.T, server http.Handler, token, path string) sessionsEnvelope {
	t.Helper()
	var resp sessionsEnvelope
	getJSON(t, server, path, token, &resp)
	return resp
}

func getGoal(t *testing.T, server http.Handler, token string) goalEnvelope {
	t.Helper()
	var resp goalEnvelope
	getJSON(t, server, "/api/goal", token, &resp)
	return resp
}

func getJSON(t *testing.T, server http.Handler, path, token string, dst interface{}) {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodGet, path, token, nil)
	if status != http.StatusOK {
		t.Fatalf("GET %s failed with status %d: %s", path, status, string(body))
	}
	if err := json.Unmarshal(body, dst); err != nil {
		t.Fatalf("unmarshal %s: %v", path, err)
	}
}

func requestJSON(
	t *testing.T,
	server http.Handler,
	method, path, token string,
	body interface{},
) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}
