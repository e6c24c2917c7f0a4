// Package session keeps the signed-in user of the client across runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gestion-stock/internal/api"
	"gestion-stock/internal/common"
)

const (
	KeyUsername = "username"
	KeyRole     = "role"
	KeyUserID   = "userId"
	KeyToken    = "token"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetAll(ctx context.Context, values map[string][]byte) error
	Clear(ctx context.Context) error
}

type Authenticator interface {
	Login(ctx context.Context, email, password string) (api.AuthResponse, error)
	SetToken(token string)
}

type Session struct {
	UserID   int64
	Username string
	Role     api.Role
	Token    string
}

type Manager struct {
	auth  Authenticator
	store Store
}

func NewManager(auth Authenticator, store Store) *Manager {
	return &Manager{auth: auth, store: store}
}

// Login authenticates against the server. The session keys are written only
// when the server accepts the credentials; a failed login leaves the store
// untouched.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	res, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return Session{}, err
	}

	s := Session{
		UserID:   res.User.ID,
		Username: res.User.Username,
		Role:     res.User.Role,
		Token:    res.Token,
	}
	err = m.store.SetAll(ctx, map[string][]byte{
		KeyUsername: []byte(s.Username),
		KeyRole:     []byte(s.Role),
		KeyUserID:   []byte(strconv.FormatInt(s.UserID, 10)),
		KeyToken:    []byte(s.Token),
	})
	if err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	m.auth.SetToken(s.Token)
	return s, nil
}

// Logout drops every session key in one step.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	m.auth.SetToken("")
	return nil
}

// Current reads the stored session. It fails with common.ErrUnauthorized
// when nobody is signed in.
func (m *Manager) Current(ctx context.Context) (Session, error) {
	token, err := m.get(ctx, KeyToken)
	if err != nil {
		return Session{}, err
	}
	if token == "" {
		return Session{}, common.ErrUnauthorized
	}

	s := Session{Token: token}
	if s.Username, err = m.get(ctx, KeyUsername); err != nil {
		return Session{}, err
	}
	role, err := m.get(ctx, KeyRole)
	if err != nil {
		return Session{}, err
	}
	s.Role = api.Role(role)

	userID, err := m.get(ctx, KeyUserID)
	if err != nil {
		return Session{}, err
	}
	if s.UserID, err = strconv.ParseInt(userID, 10, 64); err != nil {
		return Session{}, fmt.Errorf("read session: bad user id %q", userID)
	}
	return s, nil
}

func (m *Manager) get(ctx context.Context, key string) (string, error) {
	v, err := m.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	return string(v), nil
}

// Restore loads the stored token into the API client. It reports whether a
// session was found.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	s, err := m.Current(ctx)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			return false, nil
		}
		return false, err
	}
	m.auth.SetToken(s.Token)
	return true, nil
}

// RequireRole checks the stored session against role.
func (m *Manager) RequireRole(ctx context.Context, role api.Role) (Session, error) {
	s, err := m.Current(ctx)
	if err != nil {
		return Session{}, err
	}
	if s.Role != role {
		return s, fmt.Errorf("%w: requires %s", common.ErrForbidden, role)
	}
	return s, nil
}
