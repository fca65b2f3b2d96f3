package build

import (
	"context"
	"database/sql"
	"fmt"

	// Imported for its side effect of registering the "postgres" sql.DB
	// driver, and for its array scan types (pq.StringArray, pq.Int64Array).
	"github.com/lib/pq"
)

// PostgresSource streams rows from a Postgres table ordered by id, grounded
// on Adithya-Monish-Kumar-K-Distributed-Search-Analytics-Platform's
// pkg/postgres/client.go connection-and-query shape. The builder still
// performs its own stable sort (step 1 of the build algorithm); the ORDER BY
// here is an optimization, not a correctness requirement.
type PostgresSource struct {
	db   *sql.DB
	rows *sql.Rows
	ctx  context.Context
}

// OpenPostgresSource connects to dsn and begins streaming table, which must
// expose columns (id, title, aliases, authors, cover, tags, flags) with
// aliases/authors/tags as Postgres arrays.
func OpenPostgresSource(ctx context.Context, dsn, table string) (*PostgresSource, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("build: opening postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("build: pinging postgres: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT id, title, aliases, authors, cover, tags, flags FROM %s ORDER BY id ASC", table)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("build: querying %s: %w", table, err)
	}
	return &PostgresSource{db: db, rows: rows, ctx: ctx}, nil
}

// Next implements RowSource.
func (s *PostgresSource) Next() (Row, bool, error) {
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return Row{}, false, fmt.Errorf("build: reading postgres row: %w", err)
		}
		return Row{}, false, nil
	}

	var (
		row     Row
		aliases pq.StringArray
		authors pq.StringArray
		tags    pq.Int64Array
	)
	if err := s.rows.Scan(&row.ID, &row.Title, &aliases, &authors, &row.Cover, &tags, &row.Flags); err != nil {
		return Row{}, false, fmt.Errorf("build: scanning postgres row: %w", err)
	}
	row.Aliases = []string(aliases)
	row.Authors = []string(authors)
	row.Tags = make([]int32, len(tags))
	for i, t := range tags {
		row.Tags[i] = int32(t)
	}
	return row, true, nil
}

// Close implements RowSource.
func (s *PostgresSource) Close() error {
	s.rows.Close()
	return s.db.Close()
}
