// Package session owns the client's authentication state: the bearer token
// and the cached user, both mirrored in the local store so a restart keeps
// the user logged in.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/ontop/internal/client/localstore"
	"github.com/dmitrijs2005/ontop/internal/client/models"
	"github.com/dmitrijs2005/ontop/internal/common"
	"github.com/dmitrijs2005/ontop/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

// API is the part of the REST client the session needs.
type API interface {
	Register(ctx context.Context, email, password, name string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
}

// KV is the part of the local store the session needs.
type KV interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
	DeleteKeys(ctx context.Context, keys ...string) error
}

type Session struct {
	Token string
	User  *models.User
}

type Manager struct {
	api    API
	kv     KV
	logger logging.Logger
	now    func() time.Time

	mu       sync.RWMutex
	token    string
	user     *models.User
	onLogin  []func()
	onLogout []func()
}

func NewManager(api API, kv KV, logger logging.Logger) *Manager {
	return &Manager{api: api, kv: kv, logger: logger.With("module", "session"), now: time.Now}
}

// Restore loads a previously persisted session. A missing or unreadable
// session leaves the manager logged out.
func (m *Manager) Restore(ctx context.Context) error {
	var token string
	var user models.User

	okTok, err := m.kv.GetJSON(ctx, localstore.KeyAuthToken, &token)
	if err != nil {
		return err
	}
	okUser, err := m.kv.GetJSON(ctx, localstore.KeyUser, &user)
	if err != nil {
		return err
	}
	if !okTok || !okUser {
		return nil
	}

	m.mu.Lock()
	m.token, m.user = token, &user
	m.mu.Unlock()

	if !m.IsAuthenticated() {
		m.logger.Info(ctx, "stored session expired")
		return m.Logout(ctx)
	}
	return nil
}

// OnLogin registers fn to run in its own goroutine after every login.
func (m *Manager) OnLogin(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLogin = append(m.onLogin, fn)
}

// OnLogout registers fn to run synchronously after the session is cleared.
func (m *Manager) OnLogout(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLogout = append(m.onLogout, fn)
}

func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	email = common.NormalizeEmail(email)

	token, user, err := m.api.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidCredentials, err)
		}
		return nil, err
	}

	if err := m.kv.SetJSON(ctx, localstore.KeyAuthToken, token); err != nil {
		return nil, err
	}
	if err := m.kv.SetJSON(ctx, localstore.KeyUser, user); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.token, m.user = token, user
	hooks := append([]func(){}, m.onLogin...)
	m.mu.Unlock()

	m.logger.Info(ctx, "logged in", "user_id", user.ID)
	for _, fn := range hooks {
		go fn()
	}

	return &Session{Token: token, User: user}, nil
}

// Register validates the input locally, creates the account and logs in
// with the same credentials.
func (m *Manager) Register(ctx context.Context, email, password, name string) (*Session, error) {
	email = common.NormalizeEmail(email)
	if err := common.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := common.ValidatePassword(password); err != nil {
		return nil, err
	}

	if _, err := m.api.Register(ctx, email, password, name); err != nil {
		return nil, err
	}
	return m.Login(ctx, email, password)
}

// Logout clears the token, the user and every cached Domain Record, then
// runs the logout hooks.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.token, m.user = "", nil
	hooks := append([]func(){}, m.onLogout...)
	m.mu.Unlock()

	keys := append([]string{localstore.KeyAuthToken, localstore.KeyUser}, localstore.DomainKeys...)
	err := m.kv.DeleteKeys(ctx, keys...)

	for _, fn := range hooks {
		fn()
	}

	if err != nil {
		return fmt.Errorf("clear local session: %w", err)
	}
	m.logger.Info(ctx, "logged out")
	return nil
}

// HandleUnauthorized is the forced logout after the server rejected the
// token.
func (m *Manager) HandleUnauthorized(ctx context.Context) error {
	m.logger.Warn(ctx, "server rejected session, logging out")
	return m.Logout(ctx)
}

// IsAuthenticated reports whether a token and user are present and the
// token has not expired. The signature is not checked here; the server
// does that.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	token, user := m.token, m.user
	m.mu.RUnlock()

	if token == "" || user == nil {
		return false
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && claims.ExpiresAt.After(m.now())
}

func (m *Manager) CurrentToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *Manager) CurrentUser() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// CurrentUserID is 0 when nobody is logged in.
func (m *Manager) CurrentUserID() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return 0
	}
	return m.user.ID
}
