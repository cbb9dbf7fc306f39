package backup

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/picklesmaker/pickles/internal/models"
	"gorm.io/gorm"
)

// ErrRestoreConflict reports a snapshot row whose unique key already belongs to
// a different row in the database. Restoring with clear avoids it.
var ErrRestoreConflict = errors.New("backup: snapshot conflicts with existing catalog rows, restore with --clear")

// checkConflicts runs before a restore that keeps existing rows. Rows are
// upserted by id, so a snapshot row whose name or filter is held by another
// id would trip a unique index halfway through the transaction.
func checkConflicts(tx *gorm.DB, d *Data) error {
	checks := []func() error{
		func() error { return checkUnique(tx, "brands", d.Brands, "name", brandKey) },
		func() error { return checkUnique(tx, "vehicle_models", d.Models, "name", modelKey) },
		func() error { return checkUnique(tx, "series", d.Series, "name", seriesKey) },
		func() error { return checkUnique(tx, "years", d.Years, "year", yearKey) },
		func() error { return checkUnique(tx, "packages", d.Packages, "name", packageKey) },
		func() error {
			return checkUnique(tx, "generations", d.Generations, "brand_id, model_id, year_start", generationKey)
		},
		func() error { return checkUnique(tx, "content_groups", d.Groups, "name", groupKey) },
		func() error { return checkUnique(tx, "rules", d.Rules, "filter", ruleKey) },
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// checkUnique compares the unique keys of snapshot rows against the rows of
// the same table. An existing row that the snapshot also rewrites is not a
// conflict.
func checkUnique[T any](tx *gorm.DB, table string, snapshot []T, what string, key func(T) (uint64, string)) error {
	if len(snapshot) == 0 {
		return nil
	}
	var existing []T
	if errFind := tx.Find(&existing).Error; errFind != nil {
		return fmt.Errorf("backup: read %s: %w", table, errFind)
	}
	held := make(map[string]uint64, len(existing))
	for _, row := range existing {
		id, k := key(row)
		held[k] = id
	}
	rewritten := make(map[uint64]struct{}, len(snapshot))
	for _, row := range snapshot {
		id, _ := key(row)
		rewritten[id] = struct{}{}
	}
	for _, row := range snapshot {
		id, k := key(row)
		other, ok := held[k]
		if !ok || other == id {
			continue
		}
		if _, moving := rewritten[other]; moving {
			continue
		}
		return fmt.Errorf("%w: %s row %d has the same %s as existing row %d", ErrRestoreConflict, table, id, what, other)
	}
	return nil
}

func brandKey(b models.Brand) (uint64, string) { return b.ID, b.Name }
func modelKey(m models.VehicleModel) (uint64, string) { return m.ID, m.Name }
func seriesKey(s models.Series) (uint64, string) { return s.ID, s.Name }
func yearKey(y models.Year) (uint64, string) { return y.ID, strconv.Itoa(y.Year) }
func packageKey(p models.Package) (uint64, string) { return p.ID, p.Name }
func groupKey(g models.ContentGroup) (uint64, string) { return g.ID, g.Name }

func generationKey(g models.Generation) (uint64, string) {
	return g.ID, fmt.Sprintf("%d/%d/%d", g.BrandID, g.ModelID, g.YearStart)
}

func ruleKey(r models.Rule) (uint64, string) {
	return r.ID, models.RuleFilterKey(r.BrandID, r.ModelID, r.SeriesID, r.PackageID, r.YearStart, r.YearEnd)
}
