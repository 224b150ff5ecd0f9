package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type staticRoles map[int64]string

func (s staticRoles) RoleByEmployeeID(ctx context.Context, id int64) (string, error) {
	role, ok := s[id]
	if !ok {
		return "", ErrNotFound
	}
	return role, nil
}

func TestEffectivePermissionsPerRole(t *testing.T) {
	svc := NewService(staticRoles{1: RoleAdmin, 2: RoleEmployee, 3: RoleSPC})
	ctx := context.Background()

	admin, err := svc.EffectivePermissions(ctx, 1)
	require.NoError(t, err)
	require.Contains(t, admin, PermEmployeesManage)
	require.Contains(t, admin, PermSalesLinesEdit)

	employee, err := svc.EffectivePermissions(ctx, 2)
	require.NoError(t, err)
	require.Contains(t, employee, PermSalesCreate)
	require.NotContains(t, employee, PermSalesLinesEdit)
	require.NotContains(t, employee, PermEmployeesManage)

	ok, err := svc.HasPermission(ctx, 3, PermSalesLinesEdit)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEffectivePermissionsUnknownUser(t *testing.T) {
	svc := NewService(staticRoles{})
	_, err := svc.EffectivePermissions(context.Background(), 42)
	require.Error(t, err)
}

func TestEffectivePermissionsUnknownRole(t *testing.T) {
	svc := NewService(staticRoles{7: "superuser"})
	_, err := svc.EffectivePermissions(context.Background(), 7)
	require.Error(t, err)
}
