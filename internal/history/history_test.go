package history

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/picklesmaker/pickles/internal/models"
	"github.com/picklesmaker/pickles/internal/settings"
	"gorm.io/gorm"
)

func setupHistoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:history_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.AutoMigrate(&models.HistoryEntry{}); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return db
}

func TestRecordAndList(t *testing.T) {
	db := setupHistoryTestDB(t)
	ctx := WithActor(context.Background(), "editor")

	if errRecord := Record(ctx, db, "blurbs", 3, models.HistoryActionCreate, map[string]any{"text": "Heated seats."}); errRecord != nil {
		t.Fatalf("record: %v", errRecord)
	}
	if errRecord := Record(ctx, db, "brands", 1, models.HistoryActionDelete, nil); errRecord != nil {
		t.Fatalf("record: %v", errRecord)
	}

	rows, errList := List(context.Background(), db, "blurbs", 3, 10)
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(rows) != 1 || rows[0].Actor != "editor" || rows[0].Action != models.HistoryActionCreate {
		t.Fatalf("unexpected rows %+v", rows)
	}
	var snap map[string]string
	if errUnmarshal := json.Unmarshal(rows[0].Snapshot, &snap); errUnmarshal != nil || snap["text"] != "Heated seats." {
		t.Fatalf("unexpected snapshot %s (%v)", string(rows[0].Snapshot), errUnmarshal)
	}

	all, errList := List(context.Background(), db, "", 0, 0)
	if errList != nil || len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d (%v)", len(all), errList)
	}
}

func TestRetentionCleanerDeletesExpired(t *testing.T) {
	db := setupHistoryTestDB(t)
	t.Cleanup(func() { settings.StoreDBConfig(time.Time{}, nil) })
	settings.StoreDBConfig(time.Now(), map[string]json.RawMessage{settings.HistoryRetentionDaysKey: json.RawMessage(`30`)})

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.HistoryEntry{
		{Entity: "blurbs", EntityID: 1, Action: "create", CreatedAt: now.AddDate(0, 0, -90)},
		{Entity: "blurbs", EntityID: 1, Action: "update", CreatedAt: now.AddDate(0, 0, -60)},
		{Entity: "blurbs", EntityID: 2, Action: "create", CreatedAt: now.AddDate(0, 0, -40)},
		{Entity: "blurbs", EntityID: 2, Action: "delete", CreatedAt: now.AddDate(0, 0, -31)},
		{Entity: "blurbs", EntityID: 3, Action: "create", CreatedAt: now.AddDate(0, 0, -1)},
	}
	if errCreate := db.Create(&rows).Error; errCreate != nil {
		t.Fatalf("seed: %v", errCreate)
	}

	cleaner := NewRetentionCleaner(db)
	cleaner.batchSize = 1
	cleaner.now = func() time.Time { return now }

	if deleted := cleaner.CleanupOnce(context.Background()); deleted != 3 {
		t.Fatalf("deleted %d rows, want 3", deleted)
	}
	var left []models.HistoryEntry
	db.Order("id ASC").Find(&left)
	if len(left) != 2 || left[0].EntityID != 1 || left[0].Action != "update" || left[1].EntityID != 3 {
		t.Fatalf("unexpected remaining rows %+v", left)
	}
}

func TestRetentionCleanerDisabled(t *testing.T) {
	db := setupHistoryTestDB(t)
	t.Cleanup(func() { settings.StoreDBConfig(time.Time{}, nil) })
	settings.StoreDBConfig(time.Now(), map[string]json.RawMessage{settings.HistoryRetentionDaysKey: json.RawMessage(`0`)})

	old := models.HistoryEntry{Entity: "brands", EntityID: 1, Action: "create", CreatedAt: time.Now().AddDate(-5, 0, 0)}
	if errCreate := db.Create(&old).Error; errCreate != nil {
		t.Fatalf("seed: %v", errCreate)
	}
	if deleted := NewRetentionCleaner(db).CleanupOnce(context.Background()); deleted != 0 {
		t.Fatalf("expected nothing deleted, got %d", deleted)
	}
}
