// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, and access-token revocation.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/scanvault/scanvault/internal/common"
	"github.com/scanvault/scanvault/internal/server/auth"
	"github.com/scanvault/scanvault/internal/server/config"
	"github.com/scanvault/scanvault/internal/server/models"
	"github.com/scanvault/scanvault/internal/server/repositories/repomanager"
)

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint an access token
// - Logout: revoke an access token for the rest of its lifetime
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blacklist   *auth.TokenBlacklist
	jwtSecret   []byte
	tokenTTL    time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, bl *auth.TokenBlacklist, cfg *config.Config) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		blacklist:   bl,
		jwtSecret:   []byte(cfg.SecretKey),
		tokenTTL:    cfg.AccessTokenValidityDuration,
	}
}

// Register creates a new user with a bcrypt-hashed password.
// A taken username yields common.ErrorLoginAlreadyExists.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorInvalidInput)
	}
	pw := []byte(password)
	defer common.WipeByteArray(pw)
	hash, err := bcrypt.GenerateFromPassword(pw, bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}
	user := &models.User{UserName: username, PasswordHash: hash}
	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorLoginAlreadyExists) {
			return nil, common.ErrorLoginAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %v", err)
	}
	return u, nil
}

// Login verifies the password against the stored hash and, on success,
// returns a signed access token. An unknown username and a wrong password
// both yield common.ErrorInvalidLoginPassword.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Burn a comparison anyway so absent users cost the same as
			// present ones.
			_ = bcrypt.CompareHashAndPassword(dummyHash, pw)
			return "", common.ErrorInvalidLoginPassword
		}
		return "", common.ErrorInternal
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, pw) != nil {
		return "", common.ErrorInvalidLoginPassword
	}
	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// Logout revokes the given access token. The blacklist entry outlives the
// token itself, so a revoked token stays dead until it would have expired
// anyway.
func (s *UserService) Logout(ctx context.Context, token string) {
	s.blacklist.Revoke(token)
}

// dummyHash is a valid bcrypt hash of an unguessable value, used to equalize
// login timing for unknown usernames.
var dummyHash, _ = bcrypt.GenerateFromPassword(common.GenerateRandByteArray(32), bcrypt.DefaultCost)
