// AngelaMos | 2026
// dialect_test.go

package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDialect(t *testing.T) {
	tests := []struct {
		driver     string
		wantDriver string
		wantGoose  string
	}{
		{"postgres", "pgx", "postgres"},
		{"mysql", "mysql", "mysql"},
		{"sqlserver", "sqlserver", "mssql"},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := NewDialect(tt.driver)
			require.NoError(t, err)
			assert.Equal(t, tt.driver, d.Name())
			assert.Equal(t, tt.wantDriver, d.DriverName())
			assert.Equal(t, tt.wantGoose, d.GooseDialect())
		})
	}

	_, err := NewDialect("sqlite")
	assert.Error(t, err)
}

func TestPaginate(t *testing.T) {
	pg, _ := NewDialect("postgres")
	clause, args := pg.Paginate(20, 40)
	assert.Equal(t, "LIMIT ? OFFSET ?", clause)
	assert.Equal(t, []any{20, 40}, args)

	ms, _ := NewDialect("sqlserver")
	clause, args = ms.Paginate(20, 40)
	assert.Equal(t, "OFFSET ? ROWS FETCH NEXT ? ROWS ONLY", clause)
	assert.Equal(t, []any{40, 20}, args)
}

func TestMySQLDSN(t *testing.T) {
	d, _ := NewDialect("mysql")

	dsn, err := d.DSN("user:pass@tcp(localhost:3306)/usuarios")
	require.NoError(t, err)
	assert.True(t, strings.Contains(dsn, "parseTime=true"))
	assert.True(t, strings.Contains(dsn, "clientFoundRows=true"))

	_, err = d.DSN("not a dsn")
	assert.Error(t, err)
}

func TestTranslateDuplicate(t *testing.T) {
	pg, _ := NewDialect("postgres")
	my, _ := NewDialect("mysql")
	ms, _ := NewDialect("sqlserver")

	tests := []struct {
		name    string
		dialect Dialect
		err     error
		want    error
	}{
		{
			name:    "postgres email",
			dialect: pg,
			err: fmt.Errorf("insert: %w", &pgconn.PgError{
				Code:           "23505",
				ConstraintName: EmailUniqueIndex,
			}),
			want: ErrDuplicateEmail,
		},
		{
			name:    "postgres username",
			dialect: pg,
			err: &pgconn.PgError{
				Code:           "23505",
				ConstraintName: UsernameUniqueIndex,
			},
			want: ErrDuplicateUsername,
		},
		{
			name:    "mysql email",
			dialect: my,
			err: &mysql.MySQLError{
				Number:  1062,
				Message: "Duplicate entry 'ana@x.com' for key 'users.uq_users_email_active'",
			},
			want: ErrDuplicateEmail,
		},
		{
			name:    "mysql value containing index name",
			dialect: my,
			err: &mysql.MySQLError{
				Number:  1062,
				Message: "Duplicate entry 'uq_users_email_active' for key 'users.uq_users_username_active'",
			},
			want: ErrDuplicateUsername,
		},
		{
			name:    "sqlserver username",
			dialect: ms,
			err: mssql.Error{
				Number:  2601,
				Message: "Cannot insert duplicate key row in object 'dbo.users' with unique index 'uq_users_username_active'. The duplicate key value is (ana1).",
			},
			want: ErrDuplicateUsername,
		},
		{
			name:    "sqlserver other index",
			dialect: ms,
			err: mssql.Error{
				Number:  2627,
				Message: "Violation of PRIMARY KEY constraint 'PK_users'.",
			},
			want: ErrDuplicateKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TranslateDuplicate(tt.dialect, tt.err)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := TranslateDuplicate(pg, errors.New("connection refused"))
	assert.False(t, ok)
	_, ok = TranslateDuplicate(pg, &pgconn.PgError{Code: "23503"})
	assert.False(t, ok)
}
