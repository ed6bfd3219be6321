package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Wasion-it/fork-controle-material/internal/config"
	"github.com/Wasion-it/fork-controle-material/internal/dto"
	"github.com/Wasion-it/fork-controle-material/internal/model"
	"github.com/Wasion-it/fork-controle-material/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// DirectoryIdentity is what the directory service resolves for a caller.
type DirectoryIdentity struct {
	Username string
	Name     string
	Email    string
	Role     string // "admin" | "user", derived from group membership
}

// DirectoryAuthenticator abstracts the LDAP client. Enabled reports the
// capability flag: when false (configuration) or when the circuit is open
// (degraded), logins fall back to local accounts.
type DirectoryAuthenticator interface {
	Enabled() bool
	Authenticate(ctx context.Context, username, password string) (*DirectoryIdentity, error)
}

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	CreateUser(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error)
	ListUsers(ctx context.Context, includeInactive bool) ([]dto.UserResponse, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	DeactivateUser(ctx context.Context, id uuid.UUID) error
	ReactivateUser(ctx context.Context, id uuid.UUID) error
}

type authService struct {
	repo      repository.UserRepository
	directory DirectoryAuthenticator
	cfg       *config.Config
}

func NewAuthService(repo repository.UserRepository, directory DirectoryAuthenticator, cfg *config.Config) AuthService {
	return &authService{repo: repo, directory: directory, cfg: cfg}
}

// tokenIdentity is the subject both login paths resolve to before signing.
type tokenIdentity struct {
	UserID   string
	Username string
	Name     string
	Role     string
	FromLDAP bool
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	// Directory first; local accounts are the fallback when the directory is
	// disabled or degraded. A directory rejection is final — it means the
	// credentials were checked and refused, not that the service was down.
	if s.directory != nil && s.directory.Enabled() {
		identity, err := s.directory.Authenticate(ctx, req.Username, req.Password)
		if err == nil {
			return s.issueTokens(tokenIdentity{
				Username: identity.Username,
				Name:     identity.Name,
				Role:     identity.Role,
				FromLDAP: true,
			})
		}
		if !errors.Is(err, ErrDirectoryUnavailable) {
			return nil, ErrInvalidCredentials
		}
		log.Warn().Str("username", req.Username).Msg("directory unavailable, trying local account")
	}

	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(tokenIdentity{
		UserID:   user.ID.String(),
		Username: user.Username,
		Name:     user.Name,
		Role:     user.Role,
	})
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidCredentials
	}

	fromLDAP, _ := claims["ldap"].(bool)
	if fromLDAP {
		// Directory identities have no local row; trust the signed claims.
		username, _ := claims["username"].(string)
		name, _ := claims["name"].(string)
		role, _ := claims["role"].(string)
		if username == "" || role == "" {
			return nil, ErrInvalidCredentials
		}
		return s.issueTokens(tokenIdentity{Username: username, Name: name, Role: role, FromLDAP: true})
	}

	userIDStr, _ := claims["user_id"].(string)
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.repo.FindByID(ctx, uid)
	if err != nil || !user.Active {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(tokenIdentity{
		UserID:   user.ID.String(),
		Username: user.Username,
		Name:     user.Name,
		Role:     user.Role,
	})
}

func (s *authService) issueTokens(id tokenIdentity) (*dto.LoginResponse, error) {
	access, err := s.generateToken(id, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refresh, err := s.generateToken(id, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User: dto.UserResponse{
			ID:       id.UserID,
			Username: id.Username,
			Name:     id.Name,
			Role:     id.Role,
			Active:   true,
		},
	}, nil
}

func (s *authService) generateToken(id tokenIdentity, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  id.UserID,
		"username": id.Username,
		"name":     id.Name,
		"role":     id.Role,
		"ldap":     id.FromLDAP,
		"exp":      time.Now().Add(duration).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ─── Local user management ───────────────────────────────────────────────────

func (s *authService) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username:     req.Username,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	resp := userToResponse(user)
	return &resp, nil
}

func (s *authService) ListUsers(ctx context.Context, includeInactive bool) ([]dto.UserResponse, error) {
	var users []model.User
	var err error
	if includeInactive {
		users, err = s.repo.ListAll(ctx)
	} else {
		users, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	resp := make([]dto.UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(&users[i])
	}
	return resp, nil
}

func (s *authService) UpdateUser(ctx context.Context, id uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != nil {
		user.Email = req.Email
	}
	if req.Role != "" {
		user.Role = req.Role
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	resp := userToResponse(user)
	return &resp, nil
}

func (s *authService) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *authService) ReactivateUser(ctx context.Context, id uuid.UUID) error {
	return s.repo.Reactivate(ctx, id)
}

func userToResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		Active:   u.Active,
	}
}
