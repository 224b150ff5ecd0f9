package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opsboard/opsboard/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates attendance tracking.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// ClockIn opens a shift for the employee. An employee can hold at most one
// open shift.
func (s *Service) ClockIn(ctx context.Context, employeeID int64, note string) (Record, error) {
	if _, err := s.repo.OpenRecord(ctx, employeeID); err == nil {
		return Record{}, ErrAlreadyClockedIn
	} else if !errors.Is(err, ErrNotFound) {
		return Record{}, err
	}
	rec, err := s.repo.Insert(ctx, employeeID, s.now().UTC(), note)
	if err != nil {
		return Record{}, err
	}
	s.record(ctx, employeeID, "attendance:clock-in", rec.ID)
	return rec, nil
}

// ClockOut closes the employee's open shift.
func (s *Service) ClockOut(ctx context.Context, employeeID int64) (Record, error) {
	open, err := s.repo.OpenRecord(ctx, employeeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, ErrNotClockedIn
		}
		return Record{}, err
	}
	closed, err := s.repo.Close(ctx, open.ID, s.now().UTC())
	if err != nil {
		return Record{}, err
	}
	s.record(ctx, employeeID, "attendance:clock-out", closed.ID)
	return closed, nil
}

// Status returns the employee's open shift, or ErrNotFound when off duty.
func (s *Service) Status(ctx context.Context, employeeID int64) (Record, error) {
	return s.repo.OpenRecord(ctx, employeeID)
}

// List returns attendance records matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Record, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) record(ctx context.Context, employeeID int64, action string, recordID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  employeeID,
		Action:   action,
		Entity:   "attendance",
		EntityID: fmt.Sprintf("%d", recordID),
	})
}
