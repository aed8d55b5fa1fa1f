package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ipeadata-tools/inflation-indices/internal/indices"
	"github.com/ipeadata-tools/inflation-indices/pkg/constants"
	"github.com/ipeadata-tools/inflation-indices/pkg/datetime"
)

type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) UpsertPoints(ctx context.Context, code string, points []indices.Point) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations (series_code, date, value, ingested_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(series_code, date)
		DO UPDATE SET
			value = excluded.value,
			ingested_at = excluded.ingested_at
	`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, code, datetime.Format(p.Date), p.Value, now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("sqlite: upsert %s %s: %w", code, datetime.Format(p.Date), err)
		}
	}

	return tx.Commit()
}

func (s *Store) ListPoints(ctx context.Context, code string) ([]indices.Point, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, value FROM observations WHERE series_code = ? ORDER BY date`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []indices.Point
	for rows.Next() {
		var (
			date  string
			value float64
		)
		if err := rows.Scan(&date, &value); err != nil {
			return nil, err
		}
		t, err := time.Parse(constants.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("sqlite: bad stored date %q: %w", date, err)
		}
		points = append(points, indices.Point{Date: t, Value: value})
	}
	return points, rows.Err()
}

func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS observations (
			series_code TEXT NOT NULL,
			date TEXT NOT NULL,
			value REAL NOT NULL,
			ingested_at TEXT NOT NULL,
			PRIMARY KEY (series_code, date)
		);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}

	return nil
}
