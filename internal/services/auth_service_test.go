package services

import (
	"errors"
	"testing"

	"accreditation-backend/internal/models"
	"accreditation-backend/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStaffUser(t *testing.T, store *fakeStore, role models.Role, email, password string) *models.User {
	t.Helper()
	hashed, err := utils.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		ID:       uuid.New(),
		RUT:      utils.NormalizeRUT(uuid.NewString()[:8] + "-1"),
		FullName: "Staff User",
		Email:    email,
		Password: hashed,
		Role:     role,
	}
	require.NoError(t, store.Users().CreateUser(user))
	return user
}

func TestAuthenticate(t *testing.T) {
	store := newFakeStore()
	svc := NewAuthService(store, newTestConfig(t))
	seedStaffUser(t, store, models.RoleAdmin, "admin@example.com", "secret123")

	t.Run("valid credentials", func(t *testing.T) {
		result, err := svc.Authenticate("Admin@Example.com", "secret123")
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.Empty(t, result.User.Password, "hash must not leak")
		assert.Equal(t, models.RoleAdmin, result.User.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate("admin@example.com", "wrong")
		require.Error(t, err)
		assert.Equal(t, ErrForbidden, ErrorCodeOf(err))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Authenticate("ghost@example.com", "secret123")
		require.Error(t, err)
		assert.Equal(t, ErrForbidden, ErrorCodeOf(err))
	})
}

func TestResolveRole(t *testing.T) {
	store := newFakeStore()
	church := seedChurch(store, 50)
	svc := NewAuthService(store, newTestConfig(t))

	monitor := seedStaffUser(t, store, models.RoleMonitor, "monitor@example.com", "secret123")
	monitor.ChurchID = &church.ID
	store.mu.Lock()
	store.users[monitor.ID.String()] = *monitor
	store.mu.Unlock()

	t.Run("resolves role and church binding", func(t *testing.T) {
		principal, err := svc.ResolveRole(monitor.ID.String())
		require.NoError(t, err)
		assert.Equal(t, models.RoleMonitor, principal.Role)
		require.NotNil(t, principal.ChurchID)
		assert.Equal(t, church.ID, *principal.ChurchID)
	})

	t.Run("missing principal is a hard failure", func(t *testing.T) {
		_, err := svc.ResolveRole(uuid.NewString())
		require.Error(t, err)
		assert.Equal(t, ErrNotFound, ErrorCodeOf(err))
	})
}

func TestCreateStaffUser(t *testing.T) {
	store := newFakeStore()
	church := seedChurch(store, 50)
	svc := NewAuthService(store, newTestConfig(t))

	t.Run("admin creates kitchen user", func(t *testing.T) {
		user, err := svc.CreateStaffUser(models.RoleAdmin, CreateStaffRequest{
			RUT:      "55.555.555-5",
			FullName: "Kitchen Staff",
			Email:    "kitchen@example.com",
			Password: "secret123",
			Role:     models.RoleCocina,
		})
		require.NoError(t, err)
		assert.Equal(t, models.RoleCocina, user.Role)
		assert.Equal(t, "555555555", user.RUT)
		assert.Empty(t, user.Password)
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		for _, role := range []models.Role{models.RoleMonitor, models.RoleCocina, models.RoleAttendee} {
			_, err := svc.CreateStaffUser(role, CreateStaffRequest{
				RUT:      "66.666.666-6",
				FullName: "Nope",
				Email:    "nope@example.com",
				Password: "secret123",
				Role:     models.RoleCocina,
			})
			require.Error(t, err, "role %s", role)
			assert.Equal(t, ErrForbidden, ErrorCodeOf(err))
		}
	})

	t.Run("monitor requires church", func(t *testing.T) {
		_, err := svc.CreateStaffUser(models.RoleAdmin, CreateStaffRequest{
			RUT:      "77.777.777-7",
			FullName: "Unbound Monitor",
			Email:    "unbound@example.com",
			Password: "secret123",
			Role:     models.RoleMonitor,
		})
		require.Error(t, err)
		assert.Equal(t, ErrInvalidInput, ErrorCodeOf(err))

		_, err = svc.CreateStaffUser(models.RoleAdmin, CreateStaffRequest{
			RUT:      "77.777.777-7",
			FullName: "Bound Monitor",
			Email:    "bound@example.com",
			Password: "secret123",
			Role:     models.RoleMonitor,
			ChurchID: &church.ID,
		})
		assert.NoError(t, err)
	})

	t.Run("attendee role rejected", func(t *testing.T) {
		_, err := svc.CreateStaffUser(models.RoleAdmin, CreateStaffRequest{
			RUT:      "88.888.888-8",
			FullName: "Wrong Door",
			Email:    "wrongdoor@example.com",
			Password: "secret123",
			Role:     models.RoleAttendee,
		})
		require.Error(t, err)
		assert.Equal(t, ErrInvalidInput, ErrorCodeOf(err))
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		_, err := svc.CreateStaffUser(models.RoleAdmin, CreateStaffRequest{
			RUT:      "99.999.999-9",
			FullName: "Duplicate",
			Email:    "kitchen@example.com",
			Password: "secret123",
			Role:     models.RoleCocina,
		})
		require.Error(t, err)
		assert.Equal(t, ErrDuplicateIdentity, ErrorCodeOf(err))
	})
}

func TestCreateStaffUser_LookupFailureSurfaces(t *testing.T) {
	store := newFakeStore()
	svc := NewAuthService(store, newTestConfig(t))

	store.failUserLookup = errors.New("connection reset by peer")

	_, err := svc.CreateStaffUser(models.RoleAdmin, CreateStaffRequest{
		RUT:      "11.111.111-1",
		FullName: "Unlucky Staff",
		Email:    "unlucky.staff@example.com",
		Password: "secret123",
		Role:     models.RoleCocina,
	})
	require.Error(t, err)
	assert.Equal(t, ErrDatabaseError, ErrorCodeOf(err))
	assert.Empty(t, store.users)
}
