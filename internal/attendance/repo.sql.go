package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements RepositoryPort using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const recordColumns = `id, employee_id, clock_in, clock_out, COALESCE(note, ''), created_at, updated_at`

// OpenRecord finds the employee's open shift. A partial unique index on
// (employee_id) WHERE clock_out IS NULL guarantees at most one row.
func (r *Repository) OpenRecord(ctx context.Context, employeeID int64) (Record, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+recordColumns+" FROM attendance_records WHERE employee_id = $1 AND clock_out IS NULL",
		employeeID)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// Insert opens a new shift.
func (r *Repository) Insert(ctx context.Context, employeeID int64, clockIn time.Time, note string) (Record, error) {
	const q = `
INSERT INTO attendance_records (employee_id, clock_in, note, created_at, updated_at)
VALUES ($1, $2, NULLIF($3, ''), NOW(), NOW())
RETURNING ` + recordColumns
	row := r.pool.QueryRow(ctx, q, employeeID, clockIn.UTC(), note)
	rec, err := scanRecord(row)
	if err != nil {
		if strings.Contains(err.Error(), "uq_attendance_open") {
			return Record{}, ErrAlreadyClockedIn
		}
		return Record{}, fmt.Errorf("insert attendance: %w", err)
	}
	return rec, nil
}

// Close stamps the clock-out time on an open shift.
func (r *Repository) Close(ctx context.Context, recordID int64, clockOut time.Time) (Record, error) {
	const q = `
UPDATE attendance_records
SET clock_out = $2, updated_at = NOW()
WHERE id = $1 AND clock_out IS NULL
RETURNING ` + recordColumns
	row := r.pool.QueryRow(ctx, q, recordID, clockOut.UTC())
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotClockedIn
		}
		return Record{}, fmt.Errorf("close attendance: %w", err)
	}
	return rec, nil
}

// List returns records matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Record, int, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.EmployeeID > 0 {
		conds = append(conds, "employee_id = "+arg(filter.EmployeeID))
	}
	if !filter.From.IsZero() {
		conds = append(conds, "clock_in >= "+arg(filter.From.UTC()))
	}
	if !filter.To.IsZero() {
		conds = append(conds, "clock_in < "+arg(filter.To.UTC()))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM attendance_records"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	q := "SELECT " + recordColumns + " FROM attendance_records" + where +
		" ORDER BY clock_in DESC" +
		" LIMIT " + arg(perPage) + " OFFSET " + arg((page-1)*perPage)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID,
		&rec.EmployeeID,
		&rec.ClockIn,
		&rec.ClockOut,
		&rec.Note,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	return rec, err
}

var _ RepositoryPort = (*Repository)(nil)
