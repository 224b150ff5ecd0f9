package employees

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/opsboard/opsboard/internal/rbac"
	"github.com/opsboard/opsboard/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CreateInput carries a new employee request.
type CreateInput struct {
	Email    string
	Name     string
	Role     string
	Password string
	IsActive bool
}

// UpdateInput carries profile changes.
type UpdateInput struct {
	Email string
	Name  string
	Role  string
}

// Service coordinates employee account management.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns employees matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Employee, int, error) {
	return s.repo.List(ctx, filter)
}

// Get retrieves an employee by ID.
func (s *Service) Get(ctx context.Context, id int64) (Employee, error) {
	if id <= 0 {
		return Employee{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Create validates input, hashes the password and inserts the account.
func (s *Service) Create(ctx context.Context, input CreateInput, actorID int64) (Employee, error) {
	if err := validateProfile(input.Email, input.Name, input.Role); err != nil {
		return Employee{}, err
	}
	if len(input.Password) < 8 {
		return Employee{}, errors.New("employees: password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return Employee{}, fmt.Errorf("hash password: %w", err)
	}
	created, err := s.repo.Create(ctx, Employee{
		Email:        input.Email,
		Name:         input.Name,
		Role:         input.Role,
		PasswordHash: string(hash),
		IsActive:     input.IsActive,
	})
	if err != nil {
		return Employee{}, err
	}
	s.record(ctx, actorID, "employees:create", created.ID, map[string]any{"role": created.Role})
	return created, nil
}

// Update modifies profile fields of an existing account.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput, actorID int64) (Employee, error) {
	if id <= 0 {
		return Employee{}, ErrNotFound
	}
	if err := validateProfile(input.Email, input.Name, input.Role); err != nil {
		return Employee{}, err
	}
	if err := s.repo.Update(ctx, id, Employee{Email: input.Email, Name: input.Name, Role: input.Role}); err != nil {
		return Employee{}, err
	}
	s.record(ctx, actorID, "employees:update", id, map[string]any{"role": input.Role})
	return s.repo.Get(ctx, id)
}

// ChangePassword replaces the account password.
func (s *Service) ChangePassword(ctx context.Context, id int64, password string, actorID int64) error {
	if len(password) < 8 {
		return errors.New("employees: password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
		return err
	}
	s.record(ctx, actorID, "employees:change-password", id, nil)
	return nil
}

// SetActive enables or disables an account. Disabled accounts cannot log in
// and lose all permissions immediately.
func (s *Service) SetActive(ctx context.Context, id int64, active bool, actorID int64) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.record(ctx, actorID, "employees:set-active", id, map[string]any{"active": active})
	return nil
}

// RoleByEmployeeID satisfies rbac.RoleSource.
func (s *Service) RoleByEmployeeID(ctx context.Context, id int64) (string, error) {
	return s.repo.RoleByEmployeeID(ctx, id)
}

func validateProfile(email, name, role string) error {
	if strings.TrimSpace(email) == "" || !strings.Contains(email, "@") {
		return errors.New("employees: valid email required")
	}
	if strings.TrimSpace(name) == "" {
		return errors.New("employees: name required")
	}
	if !rbac.ValidRole(role) {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, employeeID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "employee",
		EntityID: fmt.Sprintf("%d", employeeID),
		Meta:     meta,
	})
}
