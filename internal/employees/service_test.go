package employees

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memoryRepo struct {
	byID   map[int64]Employee
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: make(map[int64]Employee), nextID: 1}
}

func (m *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Employee, int, error) {
	var out []Employee
	for _, emp := range m.byID {
		if filter.Role != "" && emp.Role != filter.Role {
			continue
		}
		out = append(out, emp)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Employee, error) {
	emp, ok := m.byID[id]
	if !ok {
		return Employee{}, ErrNotFound
	}
	return emp, nil
}

func (m *memoryRepo) Create(ctx context.Context, employee Employee) (Employee, error) {
	for _, existing := range m.byID {
		if strings.EqualFold(existing.Email, employee.Email) {
			return Employee{}, ErrDuplicateEmail
		}
	}
	employee.ID = m.nextID
	m.nextID++
	m.byID[employee.ID] = employee
	return employee, nil
}

func (m *memoryRepo) Update(ctx context.Context, id int64, employee Employee) error {
	existing, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	for otherID, other := range m.byID {
		if otherID != id && strings.EqualFold(other.Email, employee.Email) {
			return ErrDuplicateEmail
		}
	}
	existing.Email = employee.Email
	existing.Name = employee.Name
	existing.Role = employee.Role
	m.byID[id] = existing
	return nil
}

func (m *memoryRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	existing, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	existing.PasswordHash = passwordHash
	m.byID[id] = existing
	return nil
}

func (m *memoryRepo) SetActive(ctx context.Context, id int64, active bool) error {
	existing, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	existing.IsActive = active
	m.byID[id] = existing
	return nil
}

func (m *memoryRepo) RoleByEmployeeID(ctx context.Context, id int64) (string, error) {
	emp, ok := m.byID[id]
	if !ok || !emp.IsActive {
		return "", ErrNotFound
	}
	return emp.Role, nil
}

func TestCreateHashesPassword(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), CreateInput{
		Email:    "kasir@example.com",
		Name:     "Kasir Satu",
		Role:     "employee",
		Password: "supersecret",
		IsActive: true,
	}, 1)
	require.NoError(t, err)
	require.NotEqual(t, "supersecret", created.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("supersecret")))
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Email: "x@example.com", Name: "X", Role: "superuser", Password: "supersecret"}, 1)
	require.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.Create(ctx, CreateInput{Email: "x@example.com", Name: "X", Role: "admin", Password: "short"}, 1)
	require.Error(t, err)

	_, err = svc.Create(ctx, CreateInput{Email: "not-an-email", Name: "X", Role: "admin", Password: "supersecret"}, 1)
	require.Error(t, err)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Email: "dup@example.com", Name: "A", Role: "admin", Password: "supersecret", IsActive: true}, 1)
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Email: "DUP@example.com", Name: "B", Role: "manager", Password: "supersecret", IsActive: true}, 1)
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRoleLookupIgnoresInactive(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Email: "spc@example.com", Name: "SPC", Role: "spc", Password: "supersecret", IsActive: true}, 1)
	require.NoError(t, err)

	role, err := svc.RoleByEmployeeID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "spc", role)

	require.NoError(t, svc.SetActive(ctx, created.ID, false, 1))
	_, err = svc.RoleByEmployeeID(ctx, created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestChangePasswordReplacesHash(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Email: "pw@example.com", Name: "PW", Role: "manager", Password: "firstsecret", IsActive: true}, 1)
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(ctx, created.ID, "secondsecret", 1))
	after, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(after.PasswordHash), []byte("secondsecret")))
	require.Error(t, bcrypt.CompareHashAndPassword([]byte(after.PasswordHash), []byte("firstsecret")))
}
