package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store keeps the dataset in SQLite so the dashboard can group and aggregate it.
// The default DSN is in-memory and is rebuilt from the CSV on every load.
type Store struct {
	db *sql.DB
}

type GroupMean struct {
	Key   string  `json:"key"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

type GroupValues struct {
	Key    string
	Values []float64
}

var (
	dimensionColumns = map[string]bool{"sex": true, "smoker": true, "region": true, "children": true}
	measureColumns   = map[string]bool{"age": true, "bmi": true, "children": true, "charges": true}
)

func OpenStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open dataset store: %w", err)
	}
	// An in-memory database lives only as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	_, err = db.Exec(`
    CREATE TABLE IF NOT EXISTS insurance (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        age INTEGER NOT NULL,
        sex TEXT NOT NULL,
        bmi REAL NOT NULL,
        children INTEGER NOT NULL,
        smoker TEXT NOT NULL,
        region TEXT NOT NULL,
        charges REAL NOT NULL
    );
    `)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create dataset table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Replace swaps the stored rows for rows in one transaction.
func (s *Store) Replace(ctx context.Context, rows []Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM insurance`); err != nil {
		tx.Rollback()
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO insurance (age, sex, bmi, children, smoker, region, charges)
        VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.Age, r.Sex, r.BMI, r.Children, r.Smoker, r.Region, r.Charges); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// LoadFile parses path and replaces the stored rows. It returns the number of
// rows loaded and skipped.
func (s *Store) LoadFile(ctx context.Context, path string) (loaded, skipped int, err error) {
	rows, skipped, err := LoadFile(path)
	if err != nil {
		return 0, 0, err
	}
	if err := s.Replace(ctx, rows); err != nil {
		return 0, skipped, err
	}
	return len(rows), skipped, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM insurance`).Scan(&n)
	return n, err
}

// Rows returns rows in file order. limit <= 0 returns all of them.
func (s *Store) Rows(ctx context.Context, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT age, sex, bmi, children, smoker, region, charges
        FROM insurance
        ORDER BY id
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]Row, 0)
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Age, &r.Sex, &r.BMI, &r.Children, &r.Smoker, &r.Region, &r.Charges); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// MeanCharges returns the mean of charges per value of dimension, lowest first.
func (s *Store) MeanCharges(ctx context.Context, dimension string) ([]GroupMean, error) {
	if !dimensionColumns[dimension] {
		return nil, fmt.Errorf("unknown dimension %q", dimension)
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
        SELECT CAST(%[1]s AS TEXT), AVG(charges), COUNT(*)
        FROM insurance
        GROUP BY %[1]s
        ORDER BY AVG(charges) ASC`, dimension))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]GroupMean, 0)
	for rows.Next() {
		var g GroupMean
		if err := rows.Scan(&g.Key, &g.Mean, &g.Count); err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

// Column returns every value of a numeric column in file order.
func (s *Store) Column(ctx context.Context, measure string) ([]float64, error) {
	if !measureColumns[measure] {
		return nil, fmt.Errorf("unknown measure %q", measure)
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM insurance ORDER BY id`, measure))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([]float64, 0)
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// ValuesBy groups a numeric column by dimension, keys in ascending order.
func (s *Store) ValuesBy(ctx context.Context, dimension, measure string) ([]GroupValues, error) {
	if !dimensionColumns[dimension] {
		return nil, fmt.Errorf("unknown dimension %q", dimension)
	}
	if !measureColumns[measure] {
		return nil, fmt.Errorf("unknown measure %q", measure)
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
        SELECT CAST(%s AS TEXT), %s
        FROM insurance
        ORDER BY 1, id`, dimension, measure))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]GroupValues, 0)
	for rows.Next() {
		var key string
		var v float64
		if err := rows.Scan(&key, &v); err != nil {
			return nil, err
		}
		if n := len(result); n == 0 || result[n-1].Key != key {
			result = append(result, GroupValues{Key: key})
		}
		last := &result[len(result)-1]
		last.Values = append(last.Values, v)
	}
	return result, rows.Err()
}

// IsUnavailable reports whether err means the CSV could not be read at all.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrDatasetUnavailable)
}
