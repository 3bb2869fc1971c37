// Package models manages the catalog of OpenAI-compatible inference
// endpoints that agents bind to.
package models

import "time"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Statuses lists the accepted model status values.
var Statuses = []string{StatusActive, StatusInactive}

// IsValidStatus reports whether value is an accepted model status.
func IsValidStatus(value string) bool {
	for _, status := range Statuses {
		if value == status {
			return true
		}
	}
	return false
}

// Model describes one external inference endpoint. The API key is persisted
// but never serialized into responses.
type Model struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	APIEndpoint string    `gorm:"size:255;not null" json:"api_endpoint"`
	APIKey      *string   `gorm:"size:255" json:"-"`
	ModelName   string    `gorm:"size:100;not null" json:"model_name"`
	Status      string    `gorm:"size:20;not null;default:'active'" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName pins the storage table for Model rows.
func (Model) TableName() string {
	return "models"
}
