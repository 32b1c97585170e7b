package sheets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// postgresClient хранит листы в одной таблице sheet_rows:
// (sheet_name, row_index, cells text[]). Строка 1 — заголовок.
type postgresClient struct {
	db *sql.DB
}

const createSheetRowsTable = `
	CREATE TABLE IF NOT EXISTS sheet_rows (
		sheet_name TEXT NOT NULL,
		row_index  INT  NOT NULL,
		cells      TEXT[] NOT NULL,
		PRIMARY KEY (sheet_name, row_index)
	)`

// Connect открывает пул соединений и создаёт таблицу хранилища.
func Connect(dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database within %v: %w (close: %v)", timeout, err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database within %v: %w", timeout, translatePQError(err))
	}

	if _, err = db.ExecContext(ctx, createSheetRowsTable); err != nil {
		return nil, fmt.Errorf("failed to create sheet_rows table: %w", translatePQError(err))
	}

	return db, nil
}

func NewPostgresClient(db *sql.DB) TabularStoreClient {
	return &postgresClient{db: db}
}

func (c *postgresClient) ReadRange(ctx context.Context, sheet string, rng RowRange) ([]Row, error) {
	query := `
		SELECT cells
		FROM sheet_rows
		WHERE sheet_name = $1 AND row_index >= $2`
	args := []interface{}{sheet, normalizeStart(rng)}
	if rng.End > 0 {
		query += ` AND row_index <= $3`
		args = append(args, rng.End)
	}
	query += ` ORDER BY row_index ASC`

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sheet %q: %w", sheet, translatePQError(err))
	}
	defer rows.Close()

	result := make([]Row, 0)
	for rows.Next() {
		var cells pq.StringArray
		if scanErr := rows.Scan(&cells); scanErr != nil {
			return nil, fmt.Errorf("failed to scan sheet %q row: %w", sheet, scanErr)
		}
		result = append(result, Row(cells))
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during sheet %q rows iteration: %w", sheet, translatePQError(err))
	}
	return result, nil
}

func (c *postgresClient) WriteRange(ctx context.Context, sheet string, rng RowRange, data []Row) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin write to sheet %q: %w", sheet, translatePQError(err))
	}
	defer tx.Rollback()

	start := normalizeStart(rng)
	const upsert = `
		INSERT INTO sheet_rows (sheet_name, row_index, cells)
		VALUES ($1, $2, $3)
		ON CONFLICT (sheet_name, row_index) DO UPDATE SET cells = EXCLUDED.cells`
	for i, row := range data {
		if _, err = tx.ExecContext(ctx, upsert, sheet, start+i, pq.Array([]string(row))); err != nil {
			return fmt.Errorf("failed to write sheet %q row %d: %w", sheet, start+i, translatePQError(err))
		}
	}

	// Открытый диапазон означает полную перезапись: хвост за пределами
	// новых данных устарел и удаляется.
	if rng.End == 0 {
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM sheet_rows WHERE sheet_name = $1 AND row_index >= $2`,
			sheet, start+len(data),
		); err != nil {
			return fmt.Errorf("failed to trim sheet %q tail: %w", sheet, translatePQError(err))
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit write to sheet %q: %w", sheet, translatePQError(err))
	}
	return nil
}

func (c *postgresClient) AppendRows(ctx context.Context, sheet string, data []Row) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin append to sheet %q: %w", sheet, translatePQError(err))
	}
	defer tx.Rollback()

	var next int
	if err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(row_index), 0) + 1 FROM sheet_rows WHERE sheet_name = $1`,
		sheet,
	).Scan(&next); err != nil {
		return fmt.Errorf("failed to find last row of sheet %q: %w", sheet, translatePQError(err))
	}

	for i, row := range data {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO sheet_rows (sheet_name, row_index, cells) VALUES ($1, $2, $3)`,
			sheet, next+i, pq.Array([]string(row)),
		); err != nil {
			return fmt.Errorf("failed to append to sheet %q: %w", sheet, translatePQError(err))
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit append to sheet %q: %w", sheet, translatePQError(err))
	}
	return nil
}

func (c *postgresClient) ClearRange(ctx context.Context, sheet string, rng RowRange) error {
	query := `DELETE FROM sheet_rows WHERE sheet_name = $1 AND row_index >= $2`
	args := []interface{}{sheet, normalizeStart(rng)}
	if rng.End > 0 {
		query += ` AND row_index <= $3`
		args = append(args, rng.End)
	}
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear sheet %q: %w", sheet, translatePQError(err))
	}
	return nil
}

func (c *postgresClient) DeleteRowRange(ctx context.Context, sheet string, start, end int) error {
	if start < 2 || end < start {
		return fmt.Errorf("invalid row range %d..%d for sheet %q", start, end, sheet)
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete on sheet %q: %w", sheet, translatePQError(err))
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM sheet_rows WHERE sheet_name = $1 AND row_index BETWEEN $2 AND $3`,
		sheet, start, end,
	)
	if err != nil {
		return fmt.Errorf("failed to delete rows %d..%d of sheet %q: %w", start, end, sheet, translatePQError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("sheet %q rows %d..%d: %w", sheet, start, end, ErrRowNotFound)
	}

	// Сдвигаем последующие строки, чтобы нумерация осталась сплошной.
	if _, err = tx.ExecContext(ctx,
		`UPDATE sheet_rows SET row_index = row_index - $3
		 WHERE sheet_name = $1 AND row_index > $2`,
		sheet, end, end-start+1,
	); err != nil {
		return fmt.Errorf("failed to renumber sheet %q after delete: %w", sheet, translatePQError(err))
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete on sheet %q: %w", sheet, translatePQError(err))
	}
	return nil
}

func (c *postgresClient) EnsureSheetExists(ctx context.Context, sheet string, headers []string) error {
	res, err := c.db.ExecContext(ctx,
		`INSERT INTO sheet_rows (sheet_name, row_index, cells)
		 VALUES ($1, 1, $2)
		 ON CONFLICT (sheet_name, row_index) DO NOTHING`,
		sheet, pq.Array(headers),
	)
	if err != nil {
		return fmt.Errorf("failed to ensure sheet %q: %w", sheet, translatePQError(err))
	}
	if _, err = res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	return nil
}

func normalizeStart(rng RowRange) int {
	if rng.Start < 1 {
		return 1
	}
	return rng.Start
}

// translatePQError маппит коды драйвера на таксономию хранилища.
func translatePQError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "28P01", "28000": // invalid_password, invalid_authorization_specification
		return fmt.Errorf("%w: %v", ErrAuth, err)
	case "42501": // insufficient_privilege
		return fmt.Errorf("%w: %v", ErrPermission, err)
	case "53300", "57014": // too_many_connections, query_canceled
		return fmt.Errorf("%w: %v", ErrRateLimit, err)
	case "42P01": // undefined_table
		return fmt.Errorf("%w: %v", ErrSheetNotFound, err)
	}
	return err
}
