package backtest

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/quantbt/internal/contracts"
)

// ResultStore persists aggregated result tables and serves them back.
type ResultStore interface {
	Save(ctx context.Context, res *Result, tableName string, opts SaveOptions) error
	Load(ctx context.Context, tableName string) (*Result, error)
	ListRuns(ctx context.Context) ([]RunInfo, error)
}

var _ ResultStore = (*ResultRepository)(nil)

// ResultRepository persists aggregated results to PostgreSQL
// ⭐ SSOT: 백테스트 결과 저장/조회는 여기서만
//
// Each run lands in its own table under the backtest schema (rows keyed by a
// generated idx) and is registered in backtest.runs together with its note
// and cost parameters. PostgreSQL float8 accepts NaN, so missing cells are
// stored as-is and round-trip unchanged.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new result repository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// SaveOptions carries run metadata alongside the flattened rows.
type SaveOptions struct {
	Note       string
	Tax        float64
	Commission float64
}

// RunInfo describes one persisted run.
type RunInfo struct {
	TableName  string
	Note       string
	Horizon    int
	RowCount   int
	Tax        float64
	Commission float64
	CreatedAt  time.Time
}

// Table names become SQL identifiers, so they are restricted rather than
// escaped.
var tableNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

func validateTableName(name string) error {
	if !tableNameRe.MatchString(name) {
		return fmt.Errorf("%w: table name %q must match %s",
			contracts.ErrInvalidArgument, name, tableNameRe.String())
	}
	return nil
}

// Save writes the flattened result rows under tableName and registers the
// run. Statistic rows keep their code in the code column and a NULL date.
func (r *ResultRepository) Save(ctx context.Context, res *Result, tableName string, opts SaveOptions) error {
	if err := validateTableName(tableName); err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS backtest.%s (
			idx        INTEGER GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			grp        VARCHAR(10) NOT NULL,
			code       VARCHAR(20) NOT NULL,
			trade_date DATE,
			prev_price FLOAT8,
			price      FLOAT8,
			captured   FLOAT8,
			days       FLOAT8[] NOT NULL
		)
	`, tableName)
	if _, err := tx.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create result table %s: %w", tableName, err)
	}

	insert := fmt.Sprintf(`
		INSERT INTO backtest.%s (grp, code, trade_date, prev_price, price, captured, days)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, tableName)

	for _, row := range res.Rows {
		var date *time.Time
		if !row.Date.IsZero() {
			d := row.Date
			date = &d
		}
		if _, err := tx.Exec(ctx, insert,
			row.Group, row.Code, date,
			row.PrevPrice, row.Price, row.Captured, row.Days,
		); err != nil {
			return fmt.Errorf("failed to insert row %s/%s: %w", row.Group, row.Code, err)
		}
	}

	registry := `
		INSERT INTO backtest.runs (table_name, note, horizon_days, row_count, tax, commission)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (table_name) DO UPDATE SET
			note = EXCLUDED.note,
			horizon_days = EXCLUDED.horizon_days,
			row_count = EXCLUDED.row_count,
			tax = EXCLUDED.tax,
			commission = EXCLUDED.commission,
			created_at = NOW()
	`
	if _, err := tx.Exec(ctx, registry,
		tableName, opts.Note, res.Horizon, len(res.Rows), opts.Tax, opts.Commission,
	); err != nil {
		return fmt.Errorf("failed to register run %s: %w", tableName, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Load reads a saved run back, rebuilding the rows in insertion order and
// the group list from the persisted grp column, duplicates removed.
func (r *ResultRepository) Load(ctx context.Context, tableName string) (*Result, error) {
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT grp, code, trade_date, prev_price, price, captured, days
		FROM backtest.%s
		ORDER BY idx
	`, tableName)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query result table %s: %w", tableName, err)
	}
	defer rows.Close()

	res := &Result{}
	seen := make(map[string]bool)

	for rows.Next() {
		var row Row
		var date *time.Time
		if err := rows.Scan(&row.Group, &row.Code, &date,
			&row.PrevPrice, &row.Price, &row.Captured, &row.Days); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if date != nil {
			row.Date = *date
		}
		if !seen[row.Group] {
			seen[row.Group] = true
			res.Groups = append(res.Groups, row.Group)
		}
		if res.Horizon == 0 {
			res.Horizon = len(row.Days)
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return res, nil
}

// ListRuns returns the registered runs, newest first.
func (r *ResultRepository) ListRuns(ctx context.Context) ([]RunInfo, error) {
	query := `
		SELECT table_name, note, horizon_days, row_count, tax, commission, created_at
		FROM backtest.runs
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var info RunInfo
		if err := rows.Scan(&info.TableName, &info.Note, &info.Horizon,
			&info.RowCount, &info.Tax, &info.Commission, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// EnsureSchema creates the backtest schema and the run registry.
func (r *ResultRepository) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS backtest`,
		`CREATE TABLE IF NOT EXISTS backtest.runs (
			id           INTEGER GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			table_name   TEXT NOT NULL UNIQUE,
			note         TEXT NOT NULL DEFAULT '',
			horizon_days INTEGER NOT NULL,
			row_count    INTEGER NOT NULL,
			tax          FLOAT8 NOT NULL DEFAULT 0,
			commission   FLOAT8 NOT NULL DEFAULT 0,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure backtest schema: %w", err)
		}
	}
	return nil
}
