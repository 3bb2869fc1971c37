package agents

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"agenthub_back/httperr"
	"agenthub_back/models"
)

// Store executes agent persistence operations. Every write group that must
// be atomic runs inside one transaction; reads return owned copies instead
// of traversing lazy relations.
type Store struct {
	db *gorm.DB
}

// NewStore wraps the shared database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Changes carries the optional fields of a partial agent update.
type Changes struct {
	Name        *string
	Description *string
	ModelID     *uint64
	Status      *string
}

// Create inserts a new agent and its creation log entry in one transaction.
// The bound model must exist and the name must be unused.
func (s *Store) Create(ctx context.Context, agent *Agent) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Agent{}).Where("name = ?", agent.Name).Count(&count).Error; err != nil {
			return httperr.Unexpected("failed to check agent name", err)
		}
		if count > 0 {
			return httperr.Conflict("agent %q already exists", agent.Name)
		}

		var model models.Model
		if err := tx.First(&model, "id = ?", agent.ModelID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return httperr.NotFound("model %d not found", agent.ModelID)
			}
			return httperr.Unexpected("failed to load model", err)
		}

		if err := tx.Create(agent).Error; err != nil {
			return httperr.Unexpected("failed to create agent", err)
		}

		log := AgentLog{
			AgentID: agent.ID,
			Level:   LogLevelInfo,
			Message: fmt.Sprintf("Agent %q created successfully", agent.Name),
		}
		if err := tx.Create(&log).Error; err != nil {
			return httperr.Unexpected("failed to record agent log", err)
		}

		agent.ModelName = model.Name
		return nil
	})
	return err
}

// FindByID loads one agent and resolves its bound model's name.
func (s *Store) FindByID(ctx context.Context, id uint64) (Agent, error) {
	var agent Agent
	err := s.db.WithContext(ctx).First(&agent, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Agent{}, httperr.NotFound("agent %d not found", id)
		}
		return Agent{}, httperr.Unexpected("failed to load agent", err)
	}
	if err := s.attachModelNames(ctx, []*Agent{&agent}); err != nil {
		return Agent{}, err
	}
	return agent, nil
}

// List returns one page of agents ordered by id together with the total
// row count.
func (s *Store) List(ctx context.Context, offset, limit int) ([]Agent, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&Agent{}).Count(&total).Error; err != nil {
		return nil, 0, httperr.Unexpected("failed to count agents", err)
	}

	items := make([]Agent, 0, limit)
	err := s.db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, httperr.Unexpected("failed to list agents", err)
	}

	refs := make([]*Agent, len(items))
	for i := range items {
		refs[i] = &items[i]
	}
	if err := s.attachModelNames(ctx, refs); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update applies a partial update, re-checking name uniqueness and model
// existence, and records the change in the agent's log.
func (s *Store) Update(ctx context.Context, id uint64, changes Changes) (Agent, error) {
	var agent Agent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&agent, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return httperr.NotFound("agent %d not found", id)
			}
			return httperr.Unexpected("failed to load agent", err)
		}

		if changes.Name != nil && *changes.Name != agent.Name {
			var count int64
			if err := tx.Model(&Agent{}).Where("name = ? AND id <> ?", *changes.Name, id).Count(&count).Error; err != nil {
				return httperr.Unexpected("failed to check agent name", err)
			}
			if count > 0 {
				return httperr.Conflict("agent %q already exists", *changes.Name)
			}
			agent.Name = *changes.Name
		}
		if changes.Description != nil {
			agent.Description = changes.Description
		}
		if changes.ModelID != nil && *changes.ModelID != agent.ModelID {
			var model models.Model
			if err := tx.First(&model, "id = ?", *changes.ModelID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return httperr.NotFound("model %d not found", *changes.ModelID)
				}
				return httperr.Unexpected("failed to load model", err)
			}
			agent.ModelID = *changes.ModelID
		}
		if changes.Status != nil {
			agent.Status = *changes.Status
		}

		if err := tx.Save(&agent).Error; err != nil {
			return httperr.Unexpected("failed to update agent", err)
		}

		log := AgentLog{
			AgentID: agent.ID,
			Level:   LogLevelInfo,
			Message: fmt.Sprintf("Agent %q updated successfully", agent.Name),
		}
		if err := tx.Create(&log).Error; err != nil {
			return httperr.Unexpected("failed to record agent log", err)
		}
		return nil
	})
	if err != nil {
		return Agent{}, err
	}
	if err := s.attachModelNames(ctx, []*Agent{&agent}); err != nil {
		return Agent{}, err
	}
	return agent, nil
}

// UpdateStatus transitions the lifecycle status and records old and new
// values in the agent's log.
func (s *Store) UpdateStatus(ctx context.Context, id uint64, status string) (Agent, error) {
	var agent Agent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&agent, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return httperr.NotFound("agent %d not found", id)
			}
			return httperr.Unexpected("failed to load agent", err)
		}

		oldStatus := agent.Status
		agent.Status = status
		if err := tx.Save(&agent).Error; err != nil {
			return httperr.Unexpected("failed to update agent status", err)
		}

		log := AgentLog{
			AgentID: agent.ID,
			Level:   LogLevelInfo,
			Message: fmt.Sprintf("Agent %q status changed from %q to %q", agent.Name, oldStatus, status),
		}
		if err := tx.Create(&log).Error; err != nil {
			return httperr.Unexpected("failed to record agent log", err)
		}
		return nil
	})
	if err != nil {
		return Agent{}, err
	}
	if err := s.attachModelNames(ctx, []*Agent{&agent}); err != nil {
		return Agent{}, err
	}
	return agent, nil
}

// Delete removes the agent together with its logs, conversations and
// messages in one transaction, then appends a final deletion entry to the
// audit trail. That trailing entry intentionally outlives the agent row so
// the removal itself stays auditable.
func (s *Store) Delete(ctx context.Context, id uint64) error {
	var name string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var agent Agent
		if err := tx.First(&agent, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return httperr.NotFound("agent %d not found", id)
			}
			return httperr.Unexpected("failed to load agent", err)
		}
		name = agent.Name

		if err := tx.Exec(
			"DELETE FROM messages WHERE conversation_id IN (SELECT id FROM conversations WHERE agent_id = ?)", id,
		).Error; err != nil {
			return httperr.Unexpected("failed to delete agent messages", err)
		}
		if err := tx.Exec("DELETE FROM conversations WHERE agent_id = ?", id).Error; err != nil {
			return httperr.Unexpected("failed to delete agent conversations", err)
		}
		if err := tx.Where("agent_id = ?", id).Delete(&AgentLog{}).Error; err != nil {
			return httperr.Unexpected("failed to delete agent logs", err)
		}
		if err := tx.Delete(&Agent{}, "id = ?", id).Error; err != nil {
			return httperr.Unexpected("failed to delete agent", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log := AgentLog{
		AgentID: id,
		Level:   LogLevelInfo,
		Message: fmt.Sprintf("Agent %q deleted successfully", name),
	}
	if err := s.db.WithContext(ctx).Create(&log).Error; err != nil {
		return httperr.Unexpected("failed to record agent deletion", err)
	}
	return nil
}

// ListLogs returns one page of the agent's log entries, newest first, with
// an optional level filter. The agent must exist.
func (s *Store) ListLogs(ctx context.Context, agentID uint64, level string, offset, limit int) ([]AgentLog, int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Agent{}).Where("id = ?", agentID).Count(&count).Error; err != nil {
		return nil, 0, httperr.Unexpected("failed to load agent", err)
	}
	if count == 0 {
		return nil, 0, httperr.NotFound("agent %d not found", agentID)
	}

	query := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&AgentLog{}).Where("agent_id = ?", agentID)
		if level != "" {
			q = q.Where("level = ?", level)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, httperr.Unexpected("failed to count agent logs", err)
	}

	items := make([]AgentLog, 0, limit)
	err := query().
		Order("timestamp DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, httperr.Unexpected("failed to list agent logs", err)
	}
	return items, total, nil
}

// attachModelNames resolves the catalog names for the agents' bound models
// with one explicit lookup.
func (s *Store) attachModelNames(ctx context.Context, agents []*Agent) error {
	if len(agents) == 0 {
		return nil
	}

	ids := make([]uint64, 0, len(agents))
	for _, agent := range agents {
		ids = append(ids, agent.ModelID)
	}

	var rows []models.Model
	if err := s.db.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return httperr.Unexpected("failed to resolve model names", err)
	}

	names := make(map[uint64]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	for _, agent := range agents {
		agent.ModelName = names[agent.ModelID]
	}
	return nil
}
