package service

import (
	"context"
	"sync"
	"testing"

	"soderia/internal/config"
	"soderia/internal/dto"
	"soderia/internal/model"
	"soderia/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username && u.Active {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUserRepo) List(_ context.Context, includeInactive bool) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, u := range r.users {
		if !u.Active && !includeInactive {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUserRepo) ListByRole(_ context.Context, role string) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, u := range r.users {
		if u.Active && u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Active = active
	return nil
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

func newAuthFixture(t *testing.T) (*stubUserRepo, AuthService) {
	t.Helper()
	repo := newStubUserRepo()
	cfg := &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
	}
	return repo, NewAuthService(repo, cfg)
}

func TestLoginAndRefresh(t *testing.T) {
	_, svc := newAuthFixture(t)

	created, err := svc.CreateUser(context.Background(), dto.CreateUserRequest{
		Username: "raul", FullName: "Raúl Gómez", Password: "soda123", Role: model.RoleDriver,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleDriver, created.Role)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "raul", Password: "soda123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)

	refreshed, err := svc.Refresh(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, refreshed.User.ID)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "raul", Password: "incorrecta"})
	require.Error(t, err)

	// Deactivated users lose both login and refresh.
	require.NoError(t, svc.DeactivateUser(context.Background(), mustParse(t, created.ID)))
	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "raul", Password: "soda123"})
	require.Error(t, err)
	_, err = svc.Refresh(context.Background(), resp.RefreshToken)
	require.Error(t, err)
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	_, svc := newAuthFixture(t)
	_, err := svc.Refresh(context.Background(), "no-es-un-jwt")
	require.Error(t, err)
}

func TestListDrivers(t *testing.T) {
	_, svc := newAuthFixture(t)

	for _, u := range []dto.CreateUserRequest{
		{Username: "raul", FullName: "Raúl", Password: "x1234", Role: model.RoleDriver},
		{Username: "marta", FullName: "Marta", Password: "x1234", Role: model.RoleSecretaria},
		{Username: "jefe", FullName: "Jefe", Password: "x1234", Role: model.RoleAdmin},
	} {
		_, err := svc.CreateUser(context.Background(), u)
		require.NoError(t, err)
	}

	drivers, err := svc.ListDrivers(context.Background())
	require.NoError(t, err)
	require.Len(t, drivers, 1)
	assert.Equal(t, "raul", drivers[0].Username)
}

func TestUpdateUserChangesPassword(t *testing.T) {
	_, svc := newAuthFixture(t)

	created, err := svc.CreateUser(context.Background(), dto.CreateUserRequest{
		Username: "marta", FullName: "Marta", Password: "vieja123", Role: model.RoleSecretaria,
	})
	require.NoError(t, err)

	_, err = svc.UpdateUser(context.Background(), mustParse(t, created.ID), dto.UpdateUserRequest{
		Password: "nueva456",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "marta", Password: "vieja123"})
	require.Error(t, err)
	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "marta", Password: "nueva456"})
	require.NoError(t, err)
	assert.Equal(t, "marta", resp.User.Username)
}
