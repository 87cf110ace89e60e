// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login and session tokens.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/ontop/internal/common"
	"github.com/dmitrijs2005/ontop/internal/logging"
	"github.com/dmitrijs2005/ontop/internal/server/auth"
	"github.com/dmitrijs2005/ontop/internal/server/config"
	"github.com/dmitrijs2005/ontop/internal/server/models"
	"github.com/dmitrijs2005/ontop/internal/server/store"
	"golang.org/x/crypto/bcrypt"
)

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token string
	User  *models.User
}

// UserService provides authentication-related operations:
// - Register: validate and create users
// - Login: verify credentials, record the session and mint a token
// - Authenticate: resolve a bearer token into claims
type UserService struct {
	store     store.Store
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    logging.Logger
	now       func() time.Time
}

func NewUserService(st store.Store, cfg *config.Config, logger logging.Logger) *UserService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = auth.DefaultTokenTTL
	}
	return &UserService{
		store:     st,
		jwtSecret: []byte(cfg.SecretKey),
		tokenTTL:  ttl,
		logger:    logger.With("module", "users"),
		now:       time.Now,
	}
}

var hashPassword = func(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(h), err
}

func (s *UserService) Register(ctx context.Context, email, password, displayName string) (*models.User, error) {
	email = common.NormalizeEmail(email)
	if err := common.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := common.ValidatePassword(password); err != nil {
		return nil, err
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName, _, _ = strings.Cut(email, "@")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %w", common.ErrInternal, err)
	}

	user, err := s.store.RegisterUser(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login never tells unknown emails and wrong passwords apart.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.store.LoginUser(ctx, common.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, common.ErrInvalidCredentials
	}

	if err := s.store.RecordLogin(ctx, user.ID); err != nil {
		s.logger.Warn(ctx, "record login failed", "user_id", user.ID, "error", err)
	} else {
		now := s.now()
		user.LastLoginAt = &now
		user.TotalSessions++
	}

	premium := models.EffectivePremium(user, s.now())
	token, err := auth.GenerateToken(user.ID, user.Email, premium.IsPremium, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInternal, err)
	}

	return &LoginResult{Token: token, User: user}, nil
}

func (s *UserService) Authenticate(token string) (*auth.Claims, error) {
	return auth.ParseToken(token, s.jwtSecret)
}
