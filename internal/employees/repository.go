package employees

import "context"

// RepositoryPort abstracts employee persistence for the service. The rbac
// package consumes the role lookup through its RoleSource interface.
type RepositoryPort interface {
	List(ctx context.Context, filter ListFilter) ([]Employee, int, error)
	Get(ctx context.Context, id int64) (Employee, error)
	Create(ctx context.Context, employee Employee) (Employee, error)
	Update(ctx context.Context, id int64, employee Employee) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	SetActive(ctx context.Context, id int64, active bool) error
	RoleByEmployeeID(ctx context.Context, id int64) (string, error)
}
