package db

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// DialectName returns the connection's dialect, or "" for a nil handle.
func DialectName(conn *gorm.DB) string {
	if conn == nil || conn.Dialector == nil {
		return ""
	}
	return conn.Dialector.Name()
}

// IsPostgres reports whether conn talks to PostgreSQL.
func IsPostgres(conn *gorm.DB) bool {
	return DialectName(conn) == DialectPostgres
}

// ContainsFold builds a case-insensitive "column contains term" condition.
// Catalog searches over package names and blurb text go through here.
func ContainsFold(conn *gorm.DB, column, term string) clause.Expression {
	pattern := "%" + likeEscaper.Replace(term) + "%"
	if IsPostgres(conn) {
		return clause.Expr{SQL: "? ILIKE ? ESCAPE '\\'", Vars: []any{clause.Column{Name: column}, pattern}}
	}
	return clause.Expr{SQL: "LOWER(?) LIKE ? ESCAPE '\\'", Vars: []any{clause.Column{Name: column}, strings.ToLower(pattern)}}
}
