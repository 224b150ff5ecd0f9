package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates that the requested record does not exist.
var ErrNotFound = errors.New("rbac: not found")

// RoleSource resolves the role assigned to a user.
type RoleSource interface {
	RoleByEmployeeID(ctx context.Context, id int64) (string, error)
}

// Service resolves effective permissions from the static role map.
type Service struct {
	roles RoleSource
}

// NewService constructs a Service backed by the provided role source.
func NewService(roles RoleSource) *Service {
	return &Service{roles: roles}
}

// EffectivePermissions returns the permissions granted to a user through its role.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	role, err := s.roles.RoleByEmployeeID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: resolve role: %w", err)
	}
	role = strings.TrimSpace(strings.ToLower(role))
	if !ValidRole(role) {
		return nil, fmt.Errorf("rbac: unknown role %q", role)
	}
	return PermissionsForRole(role), nil
}

// HasPermission reports whether the user holds a single permission.
func (s *Service) HasPermission(ctx context.Context, userID int64, perm string) (bool, error) {
	granted, err := s.EffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, p := range granted {
		if p == perm {
			return true, nil
		}
	}
	return false, nil
}
