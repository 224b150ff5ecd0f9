package attendance

import (
	"context"
	"time"
)

// RepositoryPort abstracts attendance persistence for the service.
type RepositoryPort interface {
	// OpenRecord returns the employee's current open shift, or ErrNotFound.
	OpenRecord(ctx context.Context, employeeID int64) (Record, error)
	Insert(ctx context.Context, employeeID int64, clockIn time.Time, note string) (Record, error)
	Close(ctx context.Context, recordID int64, clockOut time.Time) (Record, error)
	List(ctx context.Context, filter ListFilter) ([]Record, int, error)
}
