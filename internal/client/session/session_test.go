package session

import (
	"context"
	"testing"

	"gestion-stock/internal/api"
	"gestion-stock/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	values map[string][]byte
	writes int
}

func (m *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	return m.values[key], nil
}

func (m *memStore) SetAll(ctx context.Context, values map[string][]byte) error {
	for k, v := range values {
		m.values[k] = v
		m.writes++
	}
	return nil
}

func (m *memStore) Clear(ctx context.Context) error {
	clear(m.values)
	return nil
}

type fakeAuth struct {
	token string
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (api.AuthResponse, error) {
	if password != "secret123" {
		return api.AuthResponse{}, common.ErrUnauthorized
	}
	return api.AuthResponse{
		Message: "Connecté en tant que MEDICIN",
		Token:   "tok-1",
		User:    api.User{ID: 7, Username: "bob", Role: api.RolePharmacist},
	}, nil
}

func (f *fakeAuth) SetToken(token string) { f.token = token }

func newManager() (*Manager, *memStore, *fakeAuth) {
	store := &memStore{values: map[string][]byte{}}
	auth := &fakeAuth{}
	return NewManager(auth, store), store, auth
}

func TestLoginWritesSession(t *testing.T) {
	m, store, auth := newManager()
	ctx := context.Background()

	s, err := m.Login(ctx, "bob@pharma.test", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", auth.token)
	assert.Equal(t, "bob", string(store.values[KeyUsername]))
	assert.Equal(t, "MEDICIN", string(store.values[KeyRole]))
	assert.Equal(t, "7", string(store.values[KeyUserID]))

	cur, err := m.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, s, cur)
}

func TestFailedLoginWritesNothing(t *testing.T) {
	m, store, auth := newManager()

	_, err := m.Login(context.Background(), "bob@pharma.test", "nope")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	assert.Zero(t, store.writes)
	assert.Empty(t, auth.token)
}

func TestLogout(t *testing.T) {
	m, store, auth := newManager()
	ctx := context.Background()

	_, err := m.Login(ctx, "bob@pharma.test", "secret123")
	require.NoError(t, err)
	store.values["theme"] = []byte("dark")
	require.NoError(t, m.Logout(ctx))
	assert.Empty(t, store.values)
	assert.Empty(t, auth.token)

	_, err = m.Current(ctx)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestRequireRole(t *testing.T) {
	m, _, _ := newManager()
	ctx := context.Background()

	_, err := m.RequireRole(ctx, api.RoleAdmin)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = m.Login(ctx, "bob@pharma.test", "secret123")
	require.NoError(t, err)

	_, err = m.RequireRole(ctx, api.RoleAdmin)
	assert.ErrorIs(t, err, common.ErrForbidden)

	s, err := m.RequireRole(ctx, api.RolePharmacist)
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.UserID)
}

func TestRestore(t *testing.T) {
	m, store, auth := newManager()
	ctx := context.Background()

	ok, err := m.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	store.values[KeyToken] = []byte("saved")
	store.values[KeyUserID] = []byte("3")
	ok, err = m.Restore(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "saved", auth.token)
}
