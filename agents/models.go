// Package agents manages agent configurations and their append-only
// operational log trail.
package agents

import "time"

const (
	StatusInactive = "inactive"
	StatusRunning  = "running"
	StatusPaused   = "paused"
	StatusStopped  = "stopped"
)

// Statuses lists the accepted agent lifecycle values.
var Statuses = []string{StatusInactive, StatusRunning, StatusPaused, StatusStopped}

// IsValidStatus reports whether value is an accepted agent status.
func IsValidStatus(value string) bool {
	for _, status := range Statuses {
		if value == status {
			return true
		}
	}
	return false
}

const (
	LogLevelInfo    = "info"
	LogLevelWarning = "warning"
	LogLevelError   = "error"
	LogLevelDebug   = "debug"
)

// LogLevels lists the accepted agent log levels.
var LogLevels = []string{LogLevelInfo, LogLevelWarning, LogLevelError, LogLevelDebug}

// IsValidLogLevel reports whether value is an accepted log level.
func IsValidLogLevel(value string) bool {
	for _, level := range LogLevels {
		if value == level {
			return true
		}
	}
	return false
}

// Agent binds a named persona to one model. ModelName is denormalized into
// responses from the bound model's catalog name.
type Agent struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	ModelID     uint64    `gorm:"not null;index" json:"model_id"`
	Status      string    `gorm:"size:20;not null;default:'inactive'" json:"status"`
	ModelName   string    `gorm:"-" json:"model_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName pins the storage table for Agent rows.
func (Agent) TableName() string {
	return "agents"
}

// AgentLog is one immutable audit entry scoped to an agent.
type AgentLog struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	AgentID   uint64    `gorm:"not null;index" json:"agent_id"`
	Level     string    `gorm:"size:20;not null;index" json:"level"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Timestamp time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}

// TableName pins the storage table for AgentLog rows.
func (AgentLog) TableName() string {
	return "agent_logs"
}
