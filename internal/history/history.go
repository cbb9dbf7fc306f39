// Package history records catalog edits and prunes old records.
package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/picklesmaker/pickles/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// actorKey is the context key holding the acting admin's username.
type actorKey struct{}

// WithActor returns a context carrying the acting username.
func WithActor(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, actorKey{}, username)
}

// ActorFrom returns the username stored by WithActor.
func ActorFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}

// Record writes one history entry using tx, typically inside the transaction
// that made the change.
func Record(ctx context.Context, tx *gorm.DB, entity string, entityID uint64, action string, snapshot any) error {
	var raw datatypes.JSON
	if snapshot != nil {
		data, errMarshal := json.Marshal(snapshot)
		if errMarshal != nil {
			return fmt.Errorf("history: encode %s %d: %w", entity, entityID, errMarshal)
		}
		raw = data
	}
	entry := models.HistoryEntry{
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Actor:    ActorFrom(ctx),
		Snapshot: raw,
	}
	if errCreate := tx.WithContext(ctx).Create(&entry).Error; errCreate != nil {
		return fmt.Errorf("history: record %s %d: %w", entity, entityID, errCreate)
	}
	return nil
}

// List returns the newest entries for an entity, or for every entity when entity is empty.
func List(ctx context.Context, db *gorm.DB, entity string, entityID uint64, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := db.WithContext(ctx).Model(&models.HistoryEntry{})
	if entity != "" {
		q = q.Where("entity = ?", entity)
		if entityID != 0 {
			q = q.Where("entity_id = ?", entityID)
		}
	}
	var rows []models.HistoryEntry
	if errFind := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("history: list: %w", errFind)
	}
	return rows, nil
}
