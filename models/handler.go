package models

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

const defaultListPageSize = 10

// Module owns the /models resource.
type Module struct {
	db    *gorm.DB
	store *Store
}

// RegisterRoutes opens the database, migrates the model table and mounts
// the model management endpoints.
func RegisterRoutes(router *gin.Engine) (*Module, error) {
	db, err := storage.OpenFromEnv()
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Model{}); err != nil {
		return nil, err
	}

	module := &Module{db: db, store: NewStore(db)}
	module.mountRoutes(router)
	return module, nil
}

func (m *Module) mountRoutes(router *gin.Engine) {
	group := router.Group("/models")
	group.POST("", m.handleCreateModel)
	group.GET("", m.handleListModels)
	group.GET("/:id", m.handleGetModel)
	group.PUT("/:id", m.handleUpdateModel)
	group.DELETE("/:id", m.handleDeleteModel)
}

type createModelRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	APIEndpoint string  `json:"api_endpoint"`
	APIKey      *string `json:"api_key"`
	ModelName   string  `json:"model_name"`
	Status      *string `json:"status"`
}

type updateModelRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	APIEndpoint *string `json:"api_endpoint"`
	APIKey      *string `json:"api_key"`
	ModelName   *string `json:"model_name"`
	Status      *string `json:"status"`
}

// decode validates presence and shape, turning every failure into one
// InvalidInput before any domain object is built.
func (r *createModelRequest) decode() (Model, error) {
	name := strings.TrimSpace(r.Name)
	endpoint := strings.TrimSpace(r.APIEndpoint)
	modelName := strings.TrimSpace(r.ModelName)
	if name == "" || endpoint == "" || modelName == "" {
		return Model{}, httperr.InvalidInput("name, api_endpoint and model_name are required")
	}

	model := Model{
		Name:        name,
		APIEndpoint: endpoint,
		ModelName:   modelName,
		Status:      StatusActive,
	}
	model.Description = normalizeStringPointer(r.Description)
	model.APIKey = normalizeStringPointer(r.APIKey)

	if r.Status != nil {
		status := strings.TrimSpace(*r.Status)
		if !IsValidStatus(status) {
			return Model{}, invalidStatusError(status)
		}
		model.Status = status
	}
	return model, nil
}

func invalidStatusError(status string) error {
	return httperr.InvalidInput("invalid status %q, must be one of: %s", status, strings.Join(Statuses, ", "))
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
		return 0, httperr.InvalidInput("invalid model id")
	}
	return id, nil
}

func (m *Module) handleCreateModel(c *gin.Context) {
	var req createModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Respond(c, httperr.InvalidInput("invalid request payload"))
		return
	}

	model, err := req.decode()
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	if err := m.store.Create(c.Request.Context(), &model); err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Model created successfully", "model": model})
}

func (m *Module) handleListModels(c *gin.Context) {
	params := pagination.Parse(c, defaultListPageSize)

	items, total, err := m.store.List(c.Request.Context(), params.Offset(), params.PerPage)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"models":   items,
		"page":     params.Page,
		"per_page": params.PerPage,
		"total":    total,
		"pages":    params.Pages(total),
	})
}

func (m *Module) handleGetModel(c *gin.Context) {
	id, err := parseResourceID(c)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	model, err := m.store.FindByID(c.Request.Context(), id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"model": model})
}

func (m *Module) handleUpdateModel(c *gin.Context) {
	id, err := parseResourceID(c)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	var req updateModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Respond(c, httperr.InvalidInput("invalid request payload"))
		return
	}

	changes := Changes{
		Name:        normalizeStringPointer(req.Name),
		Description: req.Description,
		APIEndpoint: normalizeStringPointer(req.APIEndpoint),
		APIKey:      req.APIKey,
		ModelName:   normalizeStringPointer(req.ModelName),
	}
	if req.Status != nil {
		status := strings.TrimSpace(*req.Status)
		if !IsValidStatus(status) {
			httperr.Respond(c, invalidStatusError(status))
			return
		}
		changes.Status = &status
	}

	model, err := m.store.Update(c.Request.Context(), id, changes)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Model updated successfully", "model": model})
}

func (m *Module) handleDeleteModel(c *gin.Context) {
	id, err := parseResourceID(c)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	if err := m.store.Delete(c.Request.Context(), id); err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Model deleted successfully"})
}
