// AngelaMos | 2026
// dialect.go

package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	mssql "github.com/microsoft/go-mssqldb"
)

const (
	EmailUniqueIndex    = "uq_users_email_active"
	UsernameUniqueIndex = "uq_users_username_active"
)

// Dialect isolates what differs between the supported relational backends.
// Queries are written once with '?' placeholders and rebound by sqlx.
type Dialect interface {
	Name() string
	DriverName() string
	GooseDialect() string
	DSN(url string) (string, error)
	// Paginate returns the clause appended after ORDER BY and its args.
	Paginate(limit, offset int) (string, []any)
	// UniqueViolation reports the unique index named by a constraint error.
	UniqueViolation(err error) (index string, ok bool)
}

func NewDialect(driver string) (Dialect, error) {
	switch driver {
	case "postgres":
		return postgresDialect{}, nil
	case "mysql":
		return mysqlDialect{}, nil
	case "sqlserver":
		return sqlServerDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// TranslateDuplicate maps a unique violation to the matching sentinel.
func TranslateDuplicate(d Dialect, err error) (error, bool) {
	index, ok := d.UniqueViolation(err)
	if !ok {
		return nil, false
	}

	switch {
	case strings.Contains(index, EmailUniqueIndex):
		return ErrDuplicateEmail, true
	case strings.Contains(index, UsernameUniqueIndex):
		return ErrDuplicateUsername, true
	default:
		return ErrDuplicateKey, true
	}
}

type postgresDialect struct{}

func (postgresDialect) Name() string         { return "postgres" }
func (postgresDialect) DriverName() string   { return "pgx" }
func (postgresDialect) GooseDialect() string { return "postgres" }

func (postgresDialect) DSN(url string) (string, error) {
	return url, nil
}

func (postgresDialect) Paginate(limit, offset int) (string, []any) {
	return "LIMIT ? OFFSET ?", []any{limit, offset}
}

func (postgresDialect) UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string         { return "mysql" }
func (mysqlDialect) DriverName() string   { return "mysql" }
func (mysqlDialect) GooseDialect() string { return "mysql" }

func (mysqlDialect) DSN(url string) (string, error) {
	cfg, err := mysql.ParseDSN(url)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	// affected rows must count matched rows, not changed ones
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

func (mysqlDialect) Paginate(limit, offset int) (string, []any) {
	return "LIMIT ? OFFSET ?", []any{limit, offset}
}

// "Duplicate entry 'x' for key 'users.uq_users_email_active'"
func (mysqlDialect) UniqueViolation(err error) (string, bool) {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		msg := myErr.Message
		if i := strings.LastIndex(msg, "for key "); i >= 0 {
			msg = msg[i:]
		}
		return msg, true
	}
	return "", false
}

type sqlServerDialect struct{}

func (sqlServerDialect) Name() string         { return "sqlserver" }
func (sqlServerDialect) DriverName() string   { return "sqlserver" }
func (sqlServerDialect) GooseDialect() string { return "mssql" }

func (sqlServerDialect) DSN(url string) (string, error) {
	return url, nil
}

func (sqlServerDialect) Paginate(limit, offset int) (string, []any) {
	return "OFFSET ? ROWS FETCH NEXT ? ROWS ONLY", []any{offset, limit}
}

// 2601 is a unique index violation, 2627 a unique constraint violation.
func (sqlServerDialect) UniqueViolation(err error) (string, bool) {
	var msErr mssql.Error
	if errors.As(err, &msErr) && (msErr.Number == 2601 || msErr.Number == 2627) {
		msg := msErr.Message
		if i := strings.Index(msg, "The duplicate key value"); i >= 0 {
			msg = msg[:i]
		}
		return msg, true
	}
	return "", false
}
