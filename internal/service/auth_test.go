package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Wasion-it/fork-controle-material/internal/config"
	"github.com/Wasion-it/fork-controle-material/internal/dto"
	"github.com/Wasion-it/fork-controle-material/internal/model"
	"github.com/Wasion-it/fork-controle-material/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── In-memory UserRepository stub ────────────────────────────────────────────

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username && u.Active {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range r.users {
		if u.Active {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (r *stubUserRepo) ListAll(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range r.users {
		result = append(result, *u)
	}
	return result, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Active = false
	return nil
}

func (r *stubUserRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Active = true
	return nil
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

// ── Directory stub ───────────────────────────────────────────────────────────

type stubDirectory struct {
	enabled  bool
	identity *DirectoryIdentity
	err      error
}

func (d *stubDirectory) Enabled() bool { return d.enabled }

func (d *stubDirectory) Authenticate(_ context.Context, _, _ string) (*DirectoryIdentity, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.identity, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func testAuthConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 1,
		JWTRefreshHours:    2,
	}
}

func seedUser(repo *stubUserRepo, username, password, role string) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &model.User{
		ID:           uuid.New(),
		Username:     username,
		Name:         "Test User",
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}
	repo.users[u.ID] = u
	return u
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestLocalLogin(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(repo, "alice", "secret123", model.RoleUser)
	svc := NewAuthService(repo, &stubDirectory{}, testAuthConfig())

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, model.RoleUser, resp.User.Role)
}

func TestLocalLoginWrongPassword(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(repo, "alice", "secret123", model.RoleUser)
	svc := NewAuthService(repo, &stubDirectory{}, testAuthConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginInactiveUser(t *testing.T) {
	repo := newStubUserRepo()
	u := seedUser(repo, "bob", "secret123", model.RoleUser)
	u.Active = false
	svc := NewAuthService(repo, &stubDirectory{}, testAuthConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "bob", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDirectoryLoginPreferred(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(repo, "carol@corp.example", "localpw", model.RoleUser)
	dir := &stubDirectory{
		enabled: true,
		identity: &DirectoryIdentity{
			Username: "carol@corp.example",
			Name:     "Carol",
			Role:     model.RoleAdmin,
		},
	}
	svc := NewAuthService(repo, dir, testAuthConfig())

	// The directory wins over the local row, including the role it resolves.
	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "carol@corp.example", Password: "adpw"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, resp.User.Role)
	assert.Equal(t, "Carol", resp.User.Name)
}

func TestDirectoryUnavailableFallsBackToLocal(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(repo, "dave", "localpw", model.RoleUser)
	dir := &stubDirectory{enabled: true, err: ErrDirectoryUnavailable}
	svc := NewAuthService(repo, dir, testAuthConfig())

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "dave", Password: "localpw"})
	require.NoError(t, err)
	assert.Equal(t, "dave", resp.User.Username)
}

func TestDirectoryRejectionDoesNotFallBack(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(repo, "eve", "localpw", model.RoleUser)
	dir := &stubDirectory{enabled: true, err: errors.New("directory rejected credentials")}
	svc := NewAuthService(repo, dir, testAuthConfig())

	// The directory answered and said no; the matching local password must
	// not resurrect the login.
	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "eve", Password: "localpw"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRoundTrip(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(repo, "alice", "secret123", model.RoleUser)
	svc := NewAuthService(repo, &stubDirectory{}, testAuthConfig())
	ctx := context.Background()

	login, err := svc.Login(ctx, dto.LoginRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, "alice", refreshed.User.Username)
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), &stubDirectory{}, testAuthConfig())

	_, err := svc.Refresh(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRejectsDeactivatedUser(t *testing.T) {
	repo := newStubUserRepo()
	u := seedUser(repo, "alice", "secret123", model.RoleUser)
	svc := NewAuthService(repo, &stubDirectory{}, testAuthConfig())
	ctx := context.Background()

	login, err := svc.Login(ctx, dto.LoginRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	u.Active = false
	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDirectoryRefreshUsesClaims(t *testing.T) {
	dir := &stubDirectory{
		enabled:  true,
		identity: &DirectoryIdentity{Username: "frank@corp.example", Name: "Frank", Role: model.RoleUser},
	}
	svc := NewAuthService(newStubUserRepo(), dir, testAuthConfig())
	ctx := context.Background()

	login, err := svc.Login(ctx, dto.LoginRequest{Username: "frank@corp.example", Password: "adpw"})
	require.NoError(t, err)

	// No local row exists; refresh must work purely from the signed claims.
	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "frank@corp.example", refreshed.User.Username)
	assert.Equal(t, model.RoleUser, refreshed.User.Role)
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo, &stubDirectory{}, testAuthConfig())

	resp, err := svc.CreateUser(context.Background(), dto.CreateUserRequest{
		Username: "support",
		Name:     "Support Account",
		Password: "supersecret",
		Role:     model.RoleUser,
	})
	require.NoError(t, err)

	stored, err := repo.FindByUsername(context.Background(), "support")
	require.NoError(t, err)
	assert.NotEqual(t, "supersecret", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("supersecret")))
	assert.True(t, resp.Active)
}
