package models

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"agenthub_back/httperr"
)

// Store executes model persistence operations. Every write runs inside its
// own transaction; reads return owned copies.
type Store struct {
	db *gorm.DB
}

// NewStore wraps the shared database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Changes carries the optional fields of a partial model update. Nil fields
// are left untouched.
type Changes struct {
	Name        *string
	Description *string
	APIEndpoint *string
	APIKey      *string
	ModelName   *string
	Status      *string
}

// Create inserts a new model, rejecting duplicate names.
func (s *Store) Create(ctx context.Context, model *Model) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Model{}).Where("name = ?", model.Name).Count(&count).Error; err != nil {
			return httperr.Unexpected("failed to check model name", err)
		}
		if count > 0 {
			return httperr.Conflict("model %q already exists", model.Name)
		}
		if err := tx.Create(model).Error; err != nil {
			return httperr.Unexpected("failed to create model", err)
		}
		return nil
	})
}

// FindByID loads one model row.
func (s *Store) FindByID(ctx context.Context, id uint64) (Model, error) {
	var model Model
	err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Model{}, httperr.NotFound("model %d not found", id)
		}
		return Model{}, httperr.Unexpected("failed to load model", err)
	}
	return model, nil
}

// List returns one page of models ordered by id together with the total
// row count.
func (s *Store) List(ctx context.Context, offset, limit int) ([]Model, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&Model{}).Count(&total).Error; err != nil {
		return nil, 0, httperr.Unexpected("failed to count models", err)
	}

	items := make([]Model, 0, limit)
	err := s.db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, httperr.Unexpected("failed to list models", err)
	}
	return items, total, nil
}

// Update applies a partial update and returns the refreshed row. A name
// change is re-checked for uniqueness.
func (s *Store) Update(ctx context.Context, id uint64, changes Changes) (Model, error) {
	var model Model
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return httperr.NotFound("model %d not found", id)
			}
			return httperr.Unexpected("failed to load model", err)
		}

		if changes.Name != nil && *changes.Name != model.Name {
			var count int64
			if err := tx.Model(&Model{}).Where("name = ? AND id <> ?", *changes.Name, id).Count(&count).Error; err != nil {
				return httperr.Unexpected("failed to check model name", err)
			}
			if count > 0 {
				return httperr.Conflict("model %q already exists", *changes.Name)
			}
			model.Name = *changes.Name
		}
		if changes.Description != nil {
			model.Description = changes.Description
		}
		if changes.APIEndpoint != nil {
			model.APIEndpoint = *changes.APIEndpoint
		}
		if changes.APIKey != nil {
			model.APIKey = changes.APIKey
		}
		if changes.ModelName != nil {
			model.ModelName = *changes.ModelName
		}
		if changes.Status != nil {
			model.Status = *changes.Status
		}

		if err := tx.Save(&model).Error; err != nil {
			return httperr.Unexpected("failed to update model", err)
		}
		return nil
	})
	if err != nil {
		return Model{}, err
	}
	return model, nil
}

// Delete removes a model unless agents still reference it. The referencing
// agent count is named in the rejection so callers know what blocks the
// delete.
func (s *Store) Delete(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model Model
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return httperr.NotFound("model %d not found", id)
			}
			return httperr.Unexpected("failed to load model", err)
		}

		var agentCount int64
		if err := tx.Table("agents").Where("model_id = ?", id).Count(&agentCount).Error; err != nil {
			return httperr.Unexpected("failed to count referencing agents", err)
		}
		if agentCount > 0 {
			return httperr.InvalidInput("model %q is used by %d agent(s) and cannot be deleted", model.Name, agentCount)
		}

		if err := tx.Delete(&Model{}, "id = ?", id).Error; err != nil {
			return httperr.Unexpected("failed to delete model", err)
		}
		return nil
	})
}
