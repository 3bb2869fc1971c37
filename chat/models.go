// Package chat relays conversations between agents and their bound model
// endpoints, persisting every round trip.
package chat

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is an ordered exchange scoped to one agent. ConversationID
// is the opaque server-generated handle clients address it by; it is unique
// per agent, not globally, so lookups always pair it with the agent id.
type Conversation struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	AgentID        uint64    `gorm:"not null;uniqueIndex:idx_agent_handle,priority:1" json:"agent_id"`
	ConversationID string    `gorm:"size:100;not null;uniqueIndex:idx_agent_handle,priority:2" json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName pins the storage table for Conversation rows.
func (Conversation) TableName() string {
	return "conversations"
}

// Message is one immutable turn within a conversation. The ascending
// (timestamp, id) order of a conversation's messages is the literal replay
// order sent to the model.
type Message struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	ConversationID uint64    `gorm:"not null;index" json:"conversation_id"`
	Role           string    `gorm:"size:20;not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Timestamp      time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}

// TableName pins the storage table for Message rows.
func (Message) TableName() string {
	return "messages"
}
