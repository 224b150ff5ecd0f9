package employees

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgconn"
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

const employeeColumns = `id, email, name, role, password_hash, is_active, created_at, updated_at`

// List returns employees matching the filter with a total count.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Employee, int, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conds = append(conds, fmt.Sprintf("(name ILIKE %s OR email ILIKE %s)", p, p))
	}
	if filter.Role != "" {
		conds = append(conds, "role = "+arg(filter.Role))
	}
	if filter.IsActive != nil {
		conds = append(conds, "is_active = "+arg(*filter.IsActive))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM employees"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	q := "SELECT " + employeeColumns + " FROM employees" + where +
		" ORDER BY name" +
		" LIMIT " + arg(perPage) + " OFFSET " + arg((page-1)*perPage)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, emp)
	}
	return out, total, rows.Err()
}

// Get fetches a single employee.
func (r *Repository) Get(ctx context.Context, id int64) (Employee, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = $1", id)
	emp, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, ErrNotFound
		}
		return Employee{}, err
	}
	return emp, nil
}

// Create inserts a new employee.
func (r *Repository) Create(ctx context.Context, employee Employee) (Employee, error) {
	const q = `
INSERT INTO employees (email, name, role, password_hash, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
RETURNING ` + employeeColumns
	row := r.pool.QueryRow(ctx, q,
		strings.ToLower(employee.Email),
		employee.Name,
		employee.Role,
		employee.PasswordHash,
		employee.IsActive,
	)
	created, err := scanEmployee(row)
	if err != nil {
		if isDuplicateEmail(err) {
			return Employee{}, ErrDuplicateEmail
		}
		return Employee{}, fmt.Errorf("create employee: %w", err)
	}
	return created, nil
}

// Update modifies profile fields. Password and active flag have dedicated
// operations.
func (r *Repository) Update(ctx context.Context, id int64, employee Employee) error {
	const q = `
UPDATE employees
SET email = $2, name = $3, role = $4, updated_at = NOW()
WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, strings.ToLower(employee.Email), employee.Name, employee.Role)
	if err != nil {
		if isDuplicateEmail(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("update employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the stored hash.
func (r *Repository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE employees SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive toggles account status. Deactivation is the delete operation for
// employees; sale records keep their sold_by references.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE employees SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RoleByEmployeeID resolves the role for authorization. Inactive accounts
// resolve to nothing.
func (r *Repository) RoleByEmployeeID(ctx context.Context, id int64) (string, error) {
	var role string
	err := r.pool.QueryRow(ctx, `SELECT role FROM employees WHERE id = $1 AND is_active`, id).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return role, nil
}

func scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	err := row.Scan(
		&emp.ID,
		&emp.Email,
		&emp.Name,
		&emp.Role,
		&emp.PasswordHash,
		&emp.IsActive,
		&emp.CreatedAt,
		&emp.UpdatedAt,
	)
	return emp, err
}

func isDuplicateEmail(err error) bool {
	if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.ConstraintName == "uq_employees_email" {
		return true
	}
	return strings.Contains(err.Error(), "uq_employees_email")
}

var _ RepositoryPort = (*Repository)(nil)
