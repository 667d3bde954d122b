package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"forminput/internal/logging"
	"forminput/internal/util"
)

// pgxPoolNewFunc allows overriding pgxpool.New in tests.
var pgxPoolNewFunc = pgxpool.New

// querier is the subset of *pgxpool.Pool used by PostgresLookup.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresLookup answers unique/exists rules from a PostgreSQL database.
type PostgresLookup struct {
	db querier
}

// NewPostgresLookup opens a connection pool. $VAR, ${VAR} and %VAR% in dsn
// are expanded first; the password is masked in any error.
func NewPostgresLookup(ctx context.Context, dsn string) (*PostgresLookup, error) {
	expanded := util.ExpandEnvUniversal(dsn)
	masked := util.MaskCredentials(expanded)

	pool, err := pgxPoolNewFunc(ctx, expanded)
	if err != nil {
		logging.Logf(logging.Error, "PostgresLookup failed to create connection pool: %s", masked)
		return nil, fmt.Errorf("PostgresLookup failed to create connection pool (using %s): %w", masked, err)
	}
	logging.Logf(logging.Debug, "PostgresLookup connected using %s", masked)
	return &PostgresLookup{db: pool}, nil
}

// Count returns the number of rows in table whose column equals value,
// leaving out rows whose exceptColumn equals except when exceptColumn is set.
func (l *PostgresLookup) Count(ctx context.Context, table, column string, value any, exceptColumn, except string) (int64, error) {
	query := countQuery(table, column, exceptColumn)
	args := []any{value}
	if exceptColumn != "" {
		args = append(args, except)
	}
	logging.Logf(logging.Debug, "PostgresLookup: %s", query)

	var n int64
	if err := l.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return 0, fmt.Errorf("PostgresLookup query timed out: %w", err)
		}
		return 0, fmt.Errorf("PostgresLookup query '%s' failed: %w", query, err)
	}
	return n, nil
}

// Close releases the pool.
func (l *PostgresLookup) Close() {
	if l.db != nil {
		l.db.Close()
	}
}

// countQuery builds the count statement with quoted identifiers. A dotted
// table name is taken as schema.table. The except comparison is done on text
// so that string ids work against numeric key columns, and rows whose except
// column is NULL still count.
func countQuery(table, column, exceptColumn string) string {
	var b strings.Builder
	b.WriteString("SELECT count(*) FROM ")
	b.WriteString(pgx.Identifier(strings.Split(table, ".")).Sanitize())
	b.WriteString(" WHERE ")
	b.WriteString(pgx.Identifier{column}.Sanitize())
	b.WriteString(" = $1")
	if exceptColumn != "" {
		b.WriteString(" AND ")
		b.WriteString(pgx.Identifier{exceptColumn}.Sanitize())
		b.WriteString("::text IS DISTINCT FROM $2")
	}
	return b.String()
}
