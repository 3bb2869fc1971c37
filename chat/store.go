package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"agenthub_back/agents"
	"agenthub_back/httperr"
	"agenthub_back/models"
)

// Store assembles and persists conversation state. Lookups are explicit and
// return owned copies; each write group that must be atomic runs in one
// transaction, and no transaction ever spans the outbound model call.
type Store struct {
	db *gorm.DB
}

// NewStore wraps the shared database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FindAgent loads the agent a chat call is addressed to.
func (s *Store) FindAgent(ctx context.Context, id uint64) (agents.Agent, error) {
	var agent agents.Agent
	err := s.db.WithContext(ctx).First(&agent, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return agents.Agent{}, httperr.NotFound("agent %d not found", id)
		}
		return agents.Agent{}, httperr.Unexpected("failed to load agent", err)
	}
	return agent, nil
}

// FindModel loads the model an agent is bound to.
func (s *Store) FindModel(ctx context.Context, id uint64) (models.Model, error) {
	var model models.Model
	err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Model{}, httperr.NotFound("model %d not found", id)
		}
		return models.Model{}, httperr.Unexpected("failed to load model", err)
	}
	return model, nil
}

// CreateConversation opens a new conversation under the agent with the
// given handle.
func (s *Store) CreateConversation(ctx context.Context, agentID uint64, handle string) (Conversation, error) {
	conv := Conversation{AgentID: agentID, ConversationID: handle}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&conv).Error; err != nil {
			return httperr.Unexpected("failed to create conversation", err)
		}
		return nil
	})
	if err != nil {
		return Conversation{}, err
	}
	return conv, nil
}

// FindConversation resolves a handle within one agent's scope. The same
// literal handle under a different agent is a different conversation.
func (s *Store) FindConversation(ctx context.Context, agentID uint64, handle string) (Conversation, error) {
	var conv Conversation
	err := s.db.WithContext(ctx).
		Where("agent_id = ? AND conversation_id = ?", agentID, handle).
		Take(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Conversation{}, httperr.NotFound("conversation not found")
		}
		return Conversation{}, httperr.Unexpected("failed to load conversation", err)
	}
	return conv, nil
}

// FindConversationByHandle resolves a handle without agent scope, for the
// message-listing endpoint that addresses conversations directly.
func (s *Store) FindConversationByHandle(ctx context.Context, handle string) (Conversation, error) {
	var conv Conversation
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", handle).
		Take(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Conversation{}, httperr.NotFound("conversation not found")
		}
		return Conversation{}, httperr.Unexpected("failed to load conversation", err)
	}
	return conv, nil
}

// AppendUserMessage commits the user turn before the external call is made,
// so a failed proxy round trip still leaves the turn on record.
func (s *Store) AppendUserMessage(ctx context.Context, conv Conversation, content string) (Message, error) {
	msg := Message{ConversationID: conv.ID, Role: RoleUser, Content: content}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return httperr.Unexpected("failed to save user message", err)
		}
		return nil
	})
	if err != nil {
		return Message{}, err
	}
	return msg, nil
}

// History loads the conversation's full message list in replay order:
// ascending timestamp with the row id as tiebreaker.
func (s *Store) History(ctx context.Context, conv Conversation) ([]Message, error) {
	var history []Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conv.ID).
		Order("timestamp ASC, id ASC").
		Find(&history).Error
	if err != nil {
		return nil, httperr.Unexpected("failed to load conversation history", err)
	}
	return history, nil
}

// CompleteTurn persists the assistant reply, touches the conversation and
// appends the exchange log entry, all in one transaction.
func (s *Store) CompleteTurn(ctx context.Context, conv Conversation, reply string) (Message, error) {
	msg := Message{ConversationID: conv.ID, Role: RoleAssistant, Content: reply}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return httperr.Unexpected("failed to save assistant message", err)
		}
		if err := tx.Model(&Conversation{}).Where("id = ?", conv.ID).Update("updated_at", time.Now().UTC()).Error; err != nil {
			return httperr.Unexpected("failed to touch conversation", err)
		}
		log := agents.AgentLog{
			AgentID: conv.AgentID,
			Level:   agents.LogLevelInfo,
			Message: fmt.Sprintf("Conversation %s: user message received and responded", conv.ConversationID),
		}
		if err := tx.Create(&log).Error; err != nil {
			return httperr.Unexpected("failed to record agent log", err)
		}
		return nil
	})
	if err != nil {
		return Message{}, err
	}
	return msg, nil
}

// ListConversations returns one page of the agent's conversations, most
// recently updated first.
func (s *Store) ListConversations(ctx context.Context, agentID uint64, offset, limit int) ([]Conversation, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&Conversation{}).Where("agent_id = ?", agentID).Count(&total).Error; err != nil {
		return nil, 0, httperr.Unexpected("failed to count conversations", err)
	}

	items := make([]Conversation, 0, limit)
	err := s.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("updated_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, httperr.Unexpected("failed to list conversations", err)
	}
	return items, total, nil
}

// ListMessages returns one page of the conversation's messages in ascending
// timestamp order.
func (s *Store) ListMessages(ctx context.Context, conv Conversation, offset, limit int) ([]Message, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&Message{}).Where("conversation_id = ?", conv.ID).Count(&total).Error; err != nil {
		return nil, 0, httperr.Unexpected("failed to count messages", err)
	}

	items := make([]Message, 0, limit)
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conv.ID).
		Order("timestamp ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, httperr.Unexpected("failed to list messages", err)
	}
	return items, total, nil
}
