package agents

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"agenthub_back/httperr"
	"agenthub_back/pagination"
	"agenthub_back/storage"
)

const (
	defaultListPageSize = 10
	defaultLogsPageSize = 20
)

// Module owns the /agents resource and the per-agent log listing.
type Module struct {
	db    *gorm.DB
	store *Store
}

// RegisterRoutes opens the database, migrates the agent tables and mounts
// the agent management endpoints.
func RegisterRoutes(router *gin.Engine) (*Module, error) {
	db, err := storage.OpenFromEnv()
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Agent{}, &AgentLog{}); err != nil {
		return nil, err
	}

	module := &Module{db: db, store: NewStore(db)}
	module.mountRoutes(router)
	return module, nil
}

func (m *Module) mountRoutes(router *gin.Engine) {
	group := router.Group("/agents")
	group.POST("", m.handleCreateAgent)
	group.GET("", m.handleListAgents)
	group.GET("/:id", m.handleGetAgent)
	group.PUT("/:id", m.handleUpdateAgent)
	group.DELETE("/:id", m.handleDeleteAgent)
	group.POST("/:id/status", m.handleUpdateStatus)
	group.GET("/:id/logs", m.handleListLogs)
}

type createAgentRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	ModelID     uint64  `json:"model_id"`
	Status      *string `json:"status"`
}

type updateAgentRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ModelID     *uint64 `json:"model_id"`
	Status      *string `json:"status"`
}

type updateStatusRequest struct {
	Status *string `json:"status"`
}

func (r *createAgentRequest) decode() (Agent, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" || r.ModelID == 0 {
		return Agent{}, httperr.InvalidInput("name and model_id are required")
	}

	agent := Agent{
		Name:        name,
		ModelID:     r.ModelID,
		Status:      StatusInactive,
		Description: normalizeStringPointer(r.Description),
	}

	if r.Status != nil {
		status := strings.TrimSpace(*r.Status)
		if !IsValidStatus(status) {
			return Agent{}, invalidStatusError(status)
		}
		agent.Status = status
	}
	return agent, nil
}

func invalidStatusError(status string) error {
	return httperr.InvalidInput("invalid status %q, must be one of: %s", status, strings.Join(Statuses, ", "))
}

func invalidLogLevelError(level string) error {
	return httperr.InvalidInput("invalid level %q, must be one of: %s", level, strings.Join(LogLevels, ", "))
}

func normalizeStringPointer(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func parseResourceID(c *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		return 0, httperr.InvalidInput("invalid agent id")
	}
	return id, nil
}

func (m *Module) handleCreateAgent(c *gin.Context) {
	var req createAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Respond(c, httperr.InvalidInput("invalid request payload"))
		return
	}

	agent, err := req.decode()
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	if err := m.store.Create(c.Request.Context(), &agent); err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Agent created successfully", "agent": agent})
}

func (m *Module) handleListAgents(c *gin.Context) {
	params := pagination.Parse(c, defaultListPageSize)

	items, total, err := m.store.List(c.Request.Context(), params.Offset(), params.PerPage)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"agents":   items,
		"page":     params.Page,
		"per_page": params.PerPage,
		"total":    total,
		"pages":    params.Pages(total),
	})
}

func (m *Module) handleGetAgent(c *gin.Context) {
	id, err := parseResourceID(c)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	agent, err := m.store.FindByID(c.Request.Context(), id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"agent": agent})
}

func (m *Module) handleUpdateAgent(c *gin.Context) {
	id, err := parseResourceID(c)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	var req updateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Respond(c, httperr.InvalidInput("invalid request payload"))
		return
	}

	changes := Changes{
		Name:        normalizeStringPointer(req.Name),
		Description: req.Description,
		ModelID:     req.ModelID,
	}
	if req.Status != nil {
		status := strings.TrimSpace(*req.Status)
		if !IsValidStatus(status) {
			httperr.Respond(c, invalidStatusError(status))
			return
		}
		changes.Status = &status
	}

	agent, err := m.store.Update(c.Request.Context(), id, changes)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Agent updated successfully", "agent": agent})
}

func (m *Module) handleDeleteAgent(c *gin.Context) {
	id, err := parseResourceID(c)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	if err := m.store.Delete(c.Request.Context(), id); err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Agent deleted successfully"})
}

func (m *Module) handleUpdateStatus(c *gin.Context) {
	id, err := parseResourceID(c)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Respond(c, httperr.InvalidInput("invalid request payload"))
		return
	}
	if req.Status == nil {
		httperr.Respond(c, httperr.InvalidInput("status is required"))
		return
	}

	status := strings.TrimSpace(*req.Status)
	if !IsValidStatus(status) {
		httperr.Respond(c, invalidStatusError(status))
		return
	}

	agent, err := m.store.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Agent status updated to " + agent.Status, "agent": agent})
}

func (m *Module) handleListLogs(c *gin.Context) {
	id, err := parseResourceID(c)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	level := strings.TrimSpace(c.Query("level"))
	if level != "" && !IsValidLogLevel(level) {
		httperr.Respond(c, invalidLogLevelError(level))
		return
	}

	params := pagination.Parse(c, defaultLogsPageSize)

	items, total, err := m.store.ListLogs(c.Request.Context(), id, level, params.Offset(), params.PerPage)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":     items,
		"page":     params.Page,
		"per_page": params.PerPage,
		"total":    total,
		"pages":    params.Pages(total),
	})
}
