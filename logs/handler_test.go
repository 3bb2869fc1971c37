package logs

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"agenthub_back/agents"
	"agenthub_back/storage"
)

func newTestModule(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := storage.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(&agents.AgentLog{}); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	module := &Module{db: db}
	router := gin.New()
	module.mountRoutes(router)
	return router, db
}

func seedLogs(t *testing.T, db *gorm.DB) {
	t.Helper()
	entries := []agents.AgentLog{
		{AgentID: 1, Level: agents.LogLevelInfo, Message: "agent one started"},
		{AgentID: 2, Level: agents.LogLevelError, Message: "agent two failed"},
		{AgentID: 1, Level: agents.LogLevelInfo, Message: "agent one replied"},
	}
	for i := range entries {
		if err := db.Create(&entries[i]).Error; err != nil {
			t.Fatalf("seed log: %v", err)
		}
	}
}

func get(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

type listBody struct {
	Logs    []agents.AgentLog `json:"logs"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
	Total   int64             `json:"total"`
	Pages   int               `json:"pages"`
}

func TestListLogsAcrossAgents(t *testing.T) {
	router, db := newTestModule(t)
	seedLogs(t, db)

	recorder := get(t, router, "/logs")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var body listBody
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Total != 3 || body.Pages != 1 {
		t.Fatalf("unexpected pagination: total=%d pages=%d", body.Total, body.Pages)
	}
	if len(body.Logs) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(body.Logs))
	}
	// Newest first, across all agents.
	if body.Logs[0].Message != "agent one replied" || body.Logs[2].Message != "agent one started" {
		t.Fatalf("unexpected ordering: %q ... %q", body.Logs[0].Message, body.Logs[2].Message)
	}
}

func TestListLogsLevelFilter(t *testing.T) {
	router, db := newTestModule(t)
	seedLogs(t, db)

	recorder := get(t, router, "/logs?level=error")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var body listBody
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Total != 1 || len(body.Logs) != 1 {
		t.Fatalf("expected one error entry, got total=%d len=%d", body.Total, len(body.Logs))
	}
	if body.Logs[0].Level != agents.LogLevelError {
		t.Fatalf("unexpected level %q", body.Logs[0].Level)
	}

	invalid := get(t, router, "/logs?level=verbose")
	if invalid.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad level, got %d", invalid.Code)
	}
}

func TestListLogsPagination(t *testing.T) {
	router, db := newTestModule(t)
	for i := 0; i < 5; i++ {
		entry := agents.AgentLog{AgentID: 1, Level: agents.LogLevelInfo, Message: fmt.Sprintf("event %d", i)}
		if err := db.Create(&entry).Error; err != nil {
			t.Fatalf("seed log: %v", err)
		}
	}

	recorder := get(t, router, "/logs?page=3&per_page=2")
	var body listBody
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Total != 5 || body.Pages != 3 || body.Page != 3 {
		t.Fatalf("unexpected pagination: %+v", body)
	}
	if len(body.Logs) != 1 || body.Logs[0].Message != "event 0" {
		t.Fatalf("unexpected last page: %+v", body.Logs)
	}
}
