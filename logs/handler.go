// Package logs exposes the platform-wide view over every agent's audit
// trail. Per-agent listings live with the agents resource.
package logs

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"agenthub_back/agents"
	"agenthub_back/httperr"
	"agenthub_back/pagination"
	"agenthub_back/storage"
)

const defaultPageSize = 20

// Module owns the global /logs listing.
type Module struct {
	db *gorm.DB
}

// RegisterRoutes opens the database and mounts the log listing. The log
// table itself is migrated by the agents module.
func RegisterRoutes(router *gin.Engine) (*Module, error) {
	db, err := storage.OpenFromEnv()
	if err != nil {
		return nil, err
	}

	module := &Module{db: db}
	module.mountRoutes(router)
	return module, nil
}

func (m *Module) mountRoutes(router *gin.Engine) {
	router.GET("/logs", m.handleListLogs)
}

func (m *Module) handleListLogs(c *gin.Context) {
	level := strings.TrimSpace(c.Query("level"))
	if level != "" && !agents.IsValidLogLevel(level) {
		httperr.Respond(c, httperr.InvalidInput("invalid level %q, must be one of: %s", level, strings.Join(agents.LogLevels, ", ")))
		return
	}

	params := pagination.Parse(c, defaultPageSize)
	ctx := c.Request.Context()

	query := func() *gorm.DB {
		q := m.db.WithContext(ctx).Model(&agents.AgentLog{})
		if level != "" {
			q = q.Where("level = ?", level)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		httperr.Respond(c, httperr.Unexpected("failed to count logs", err))
		return
	}

	items := make([]agents.AgentLog, 0, params.PerPage)
	err := query().
		Order("timestamp DESC, id DESC").
		Offset(params.Offset()).
		Limit(params.PerPage).
		Find(&items).Error
	if err != nil {
		httperr.Respond(c, httperr.Unexpected("failed to list logs", err))
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
