package db

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestResolveTimeZoneUsesConfiguredName(t *testing.T) {
	tz := resolveTimeZone("Europe/Berlin")
	if tz.dbTimeZone != "Europe/Berlin" {
		t.Fatalf("dbTimeZone = %q", tz.dbTimeZone)
	}
	if tz.scanLocation == nil || tz.scanLocation.String() != "Europe/Berlin" {
		t.Fatalf("unexpected scan location %v", tz.scanLocation)
	}
}

func TestResolveTimeZoneFallsBackForUnknownName(t *testing.T) {
	tz := resolveTimeZone("Nowhere/Special")
	if tz.dbTimeZone == "" || tz.scanLocation == nil {
		t.Fatalf("expected a fallback timezone, got %+v", tz)
	}
}

func TestFormatUTCOffset(t *testing.T) {
	if got := formatUTCOffset(2 * 3600); got != "+02:00" {
		t.Fatalf("formatUTCOffset = %q", got)
	}
	if got := formatUTCOffset(-(5*3600 + 30*60)); got != "-05:30" {
		t.Fatalf("formatUTCOffset = %q", got)
	}
}

func TestOpenSQLiteMemory(t *testing.T) {
	conn, errOpen := Open(fmt.Sprintf("file:open_%d?mode=memory&cache=shared", time.Now().UnixNano()))
	if errOpen != nil {
		t.Fatalf("open: %v", errOpen)
	}
	if IsPostgres(conn) || DialectName(conn) != DialectSQLite {
		t.Fatalf("expected sqlite dialect, got %q", DialectName(conn))
	}
	var fk int
	if errPragma := conn.Raw("PRAGMA foreign_keys").Scan(&fk).Error; errPragma != nil {
		t.Fatalf("pragma: %v", errPragma)
	}
	if fk != 1 {
		t.Fatalf("foreign_keys = %d, want 1", fk)
	}
}

func TestOpenSQLiteFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "catalog.db")
	conn, errOpen := Open("sqlite://" + path)
	if errOpen != nil {
		t.Fatalf("open: %v", errOpen)
	}
	sqlDB, _ := conn.DB()
	defer func() { _ = sqlDB.Close() }()
	if _, errStat := os.Stat(filepath.Dir(path)); errStat != nil {
		t.Fatalf("expected directory to exist: %v", errStat)
	}
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	if _, errOpen := Open("mysql://user@localhost/catalog"); errOpen == nil {
		t.Fatalf("expected error for mysql dsn")
	}
}

func TestParseSQLiteDSN(t *testing.T) {
	cases := []struct {
		dsn    string
		want   string
		memory bool
	}{
		{"data/catalog.db", "file:data/catalog.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)", false},
		{"sqlite:///tmp/c.db?_pragma=busy_timeout(100)", "file:/tmp/c.db?_pragma=busy_timeout(100)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)", false},
		{"file:x?mode=memory&cache=shared", "file:x?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)", true},
		{":memory:", "file::memory:?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)", true},
	}
	for _, tc := range cases {
		target := parseSQLiteDSN(tc.dsn)
		if got := target.String(); got != tc.want {
			t.Errorf("parseSQLiteDSN(%q) = %q, want %q", tc.dsn, got, tc.want)
		}
		if target.inMemory() != tc.memory {
			t.Errorf("parseSQLiteDSN(%q).inMemory() = %v", tc.dsn, target.inMemory())
		}
	}
}

func TestContainsFoldEscapesWildcards(t *testing.T) {
	conn, errOpen := Open(fmt.Sprintf("file:like_%d?mode=memory&cache=shared", time.Now().UnixNano()))
	if errOpen != nil {
		t.Fatalf("open: %v", errOpen)
	}
	type row struct {
		ID   uint64
		Name string
	}
	if errMigrate := conn.Table("search_rows").AutoMigrate(&row{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	for _, name := range []string{"M Sport", "100% Electric", "Base_Trim", "BaseXTrim"} {
		if errCreate := conn.Table("search_rows").Create(&row{Name: name}).Error; errCreate != nil {
			t.Fatalf("create: %v", errCreate)
		}
	}
	count := func(term string) int64 {
		var n int64
		if errCount := conn.Table("search_rows").Where(ContainsFold(conn, "name", term)).Count(&n).Error; errCount != nil {
			t.Fatalf("count %q: %v", term, errCount)
		}
		return n
	}
	if n := count("sport"); n != 1 {
		t.Fatalf("sport matched %d rows", n)
	}
	if n := count("%"); n != 1 {
		t.Fatalf("%% matched %d rows", n)
	}
	if n := count("base_"); n != 1 {
		t.Fatalf("base_ matched %d rows", n)
	}
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	if _, errOpen := Open("  "); errOpen == nil {
		t.Fatalf("expected error for empty dsn")
	}
}
