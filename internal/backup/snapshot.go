// Package backup writes and restores JSON snapshots of the catalog.
package backup

import (
	"context"
	"fmt"
	"time"

	dbutil "github.com/picklesmaker/pickles/internal/db"
	"github.com/picklesmaker/pickles/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Metadata describes a snapshot.
type Metadata struct {
	CreatedAt    time.Time        `json:"created_at"`
	AppVersion   string           `json:"app_version"`
	TotalObjects int64            `json:"total_objects"`
	Counts       map[string]int64 `json:"models"`
}

// GenerationPackage is one row of the generation to package link table.
type GenerationPackage struct {
	GenerationID uint64 `json:"generation_id"`
	PackageID    uint64 `json:"package_id"`
}

// Data holds every catalog table in dependency order.
type Data struct {
	Brands             []models.Brand        `json:"brands"`
	Models             []models.VehicleModel `json:"models"`
	Series             []models.Series       `json:"series"`
	Years              []models.Year         `json:"years"`
	Packages           []models.Package      `json:"packages"`
	Generations        []models.Generation   `json:"generations"`
	GenerationPackages []GenerationPackage   `json:"generation_packages"`
	Groups             []models.ContentGroup `json:"groups"`
	Content            []models.ContentItem  `json:"blurbs"`
	Rules              []models.Rule         `json:"rules"`
	RuleItems          []models.RuleItem     `json:"rule_items"`
}

// Snapshot is the file format.
type Snapshot struct {
	Metadata Metadata `json:"metadata"`
	Data     Data     `json:"data"`
}

// counts tallies the rows held by d.
func (d *Data) counts() map[string]int64 {
	return map[string]int64{
		"Brand":             int64(len(d.Brands)),
		"Model":             int64(len(d.Models)),
		"Series":            int64(len(d.Series)),
		"Year":              int64(len(d.Years)),
		"Package":           int64(len(d.Packages)),
		"Generation":        int64(len(d.Generations)),
		"GenerationPackage": int64(len(d.GenerationPackages)),
		"ContentGroup":      int64(len(d.Groups)),
		"ContentItem":       int64(len(d.Content)),
		"Rule":              int64(len(d.Rules)),
		"RuleItem":          int64(len(d.RuleItems)),
	}
}

// Capture reads every catalog table into a snapshot.
func Capture(ctx context.Context, db *gorm.DB, appVersion string, now time.Time) (*Snapshot, error) {
	conn := db.WithContext(ctx)
	var d Data
	reads := []struct {
		name string
		dest any
	}{
		{"brands", &d.Brands},
		{"models", &d.Models},
		{"series", &d.Series},
		{"years", &d.Years},
		{"packages", &d.Packages},
		{"generations", &d.Generations},
		{"groups", &d.Groups},
		{"blurbs", &d.Content},
		{"rules", &d.Rules},
		{"rule items", &d.RuleItems},
	}
	for _, r := range reads {
		if errFind := conn.Order("id ASC").Find(r.dest).Error; errFind != nil {
			return nil, fmt.Errorf("backup: read %s: %w", r.name, errFind)
		}
	}
	errLinks := conn.Table("generation_packages").
		Select("generation_id, package_id").
		Order("generation_id ASC").Order("package_id ASC").
		Scan(&d.GenerationPackages).Error
	if errLinks != nil {
		return nil, fmt.Errorf("backup: read generation packages: %w", errLinks)
	}

	counts := d.counts()
	var total int64
	for _, n := range counts {
		total += n
	}
	return &Snapshot{
		Metadata: Metadata{CreatedAt: now, AppVersion: appVersion, TotalObjects: total, Counts: counts},
		Data:     d,
	}, nil
}

// RestoreResult reports what Apply wrote.
type RestoreResult struct {
	Counts            map[string]int64 `json:"counts"`
	Cleared           bool             `json:"cleared"`
	NormalizedLegacy  int              `json:"normalized_legacy"`
	SnapshotCreatedAt time.Time        `json:"snapshot_created_at"`
}

// Apply writes snap into db in one transaction. Rows sharing an id with existing
// rows overwrite them. When clear is set every catalog table is emptied first;
// otherwise a snapshot row whose unique key is held by another id fails the
// restore with ErrRestoreConflict before anything is written.
func Apply(ctx context.Context, db *gorm.DB, snap *Snapshot, clear bool) (*RestoreResult, error) {
	if snap == nil {
		return nil, fmt.Errorf("backup: empty snapshot")
	}
	d := snap.Data
	result := &RestoreResult{Counts: d.counts(), Cleared: clear, SnapshotCreatedAt: snap.Metadata.CreatedAt}
	for i := range d.RuleItems {
		if models.NormalizeLegacyPlacement(&d.RuleItems[i]) {
			result.NormalizedLegacy++
		}
	}

	errTx := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if clear {
			if errClear := Clear(tx); errClear != nil {
				return errClear
			}
		} else if errConflict := checkConflicts(tx, &d); errConflict != nil {
			return errConflict
		}
		upsert := clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}
		writes := []struct {
			table string
			rows  any
			n     int
		}{
			{"brands", &d.Brands, len(d.Brands)},
			{"vehicle_models", &d.Models, len(d.Models)},
			{"series", &d.Series, len(d.Series)},
			{"years", &d.Years, len(d.Years)},
			{"packages", &d.Packages, len(d.Packages)},
			{"generations", &d.Generations, len(d.Generations)},
			{"content_groups", &d.Groups, len(d.Groups)},
			{"blurbs", &d.Content, len(d.Content)},
			{"rules", &d.Rules, len(d.Rules)},
			{"rule_items", &d.RuleItems, len(d.RuleItems)},
		}
		for _, w := range writes {
			if w.n == 0 {
				continue
			}
			errCreate := tx.Omit(clause.Associations).Clauses(upsert).CreateInBatches(w.rows, 200).Error
			if errCreate != nil {
				return fmt.Errorf("backup: restore %s: %w", w.table, errCreate)
			}
			if errSeq := resetSequence(tx, w.table); errSeq != nil {
				return errSeq
			}
		}
		if len(d.GenerationPackages) > 0 {
			errLinks := tx.Table("generation_packages").
				Clauses(clause.OnConflict{DoNothing: true}).
				Create(&d.GenerationPackages).Error
			if errLinks != nil {
				return fmt.Errorf("backup: restore generation packages: %w", errLinks)
			}
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return result, nil
}

// Clear deletes every catalog row, children first.
func Clear(tx *gorm.DB) error {
	tables := []string{
		"rule_items",
		"rules",
		"generation_packages",
		"generations",
		"blurbs",
		"content_groups",
		"packages",
		"years",
		"series",
		"vehicle_models",
		"brands",
	}
	for _, table := range tables {
		if errDelete := tx.Exec("DELETE FROM " + table).Error; errDelete != nil {
			return fmt.Errorf("backup: clear %s: %w", table, errDelete)
		}
	}
	return nil
}

// resetSequence moves a PostgreSQL id sequence past explicitly inserted ids.
func resetSequence(tx *gorm.DB, table string) error {
	if !dbutil.IsPostgres(tx) {
		return nil
	}
	stmt := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 1))", table, table)
	if errExec := tx.Exec(stmt).Error; errExec != nil {
		return fmt.Errorf("backup: reset %s sequence: %w", table, errExec)
	}
	return nil
}
