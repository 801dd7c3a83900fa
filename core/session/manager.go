package session

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// Manager gives typed access to the session state persisted in a Store.
// Every key is namespaced with prefix so that several clients can share a Store.
type Manager struct {
	store  Store
	prefix string
}

func NewManager(store Store, prefix string) *Manager {
	return &Manager{store: store, prefix: prefix}
}

func (m *Manager) key(k string) string { return m.prefix + k }

func (m *Manager) keys() []string {
	keys := make([]string, 0, len(AllKeys))
	for _, k := range AllKeys {
		keys = append(keys, m.key(k))
	}
	return keys
}

// get returns "" for missing keys.
func (m *Manager) get(ctx context.Context, k string) (string, error) {
	val, err := m.store.Get(ctx, m.key(k))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", errors.Wrapf(err, "reading session key %q", k)
	}
	return val, nil
}

func (m *Manager) set(ctx context.Context, k, val string) error {
	if err := m.store.Set(ctx, m.key(k), val); err != nil {
		return errors.Wrapf(err, "writing session key %q", k)
	}
	return nil
}

func (m *Manager) Token(ctx context.Context) (string, error) { return m.get(ctx, KeyToken) }

func (m *Manager) SetToken(ctx context.Context, token string) error {
	return m.set(ctx, KeyToken, token)
}

// IsAuthenticated reports whether a token is stored. Store failures count as unauthenticated.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	token, err := m.Token(ctx)
	return err == nil && token != ""
}

func (m *Manager) UserID(ctx context.Context) (string, error) { return m.get(ctx, KeyUserID) }

func (m *Manager) SetUserID(ctx context.Context, id string) error {
	return m.set(ctx, KeyUserID, id)
}

func (m *Manager) StudentID(ctx context.Context) (string, error) { return m.get(ctx, KeyStudentID) }

func (m *Manager) SetStudentID(ctx context.Context, id string) error {
	return m.set(ctx, KeyStudentID, id)
}

func (m *Manager) HasStudentProfile(ctx context.Context) bool {
	id, err := m.StudentID(ctx)
	return err == nil && id != ""
}

// CachedRole returns the last persisted role, parsed. A missing role is a standard user.
func (m *Manager) CachedRole(ctx context.Context) (Role, error) {
	val, err := m.get(ctx, KeyRole)
	if err != nil {
		return RoleStandardUser, err
	}
	return ParseRole(val), nil
}

func (m *Manager) SetRole(ctx context.Context, role Role) error {
	return m.set(ctx, KeyRole, role.String())
}

// CachedProfile returns nil when no profile was cached.
func (m *Manager) CachedProfile(ctx context.Context) (*User, error) {
	val, err := m.get(ctx, KeyProfile)
	if err != nil || val == "" {
		return nil, err
	}
	var usr User
	if err := json.Unmarshal([]byte(val), &usr); err != nil {
		return nil, errors.Wrap(err, "decoding cached profile")
	}
	return &usr, nil
}

func (m *Manager) SetProfile(ctx context.Context, usr User) error {
	b, err := json.Marshal(usr)
	if err != nil {
		return errors.Wrap(err, "encoding profile")
	}
	return m.set(ctx, KeyProfile, string(b))
}

// Load returns a snapshot of the whole session.
func (m *Manager) Load(ctx context.Context) (Session, error) {
	var (
		sess Session
		err  error
	)
	if sess.Token, err = m.Token(ctx); err != nil {
		return sess, err
	}
	if sess.UserID, err = m.UserID(ctx); err != nil {
		return sess, err
	}
	if sess.StudentID, err = m.StudentID(ctx); err != nil {
		return sess, err
	}
	if sess.Role, err = m.CachedRole(ctx); err != nil {
		return sess, err
	}
	// a corrupt profile cache is not fatal
	sess.Profile, _ = m.CachedProfile(ctx)
	return sess, nil
}

// Clear removes every session key in a single store operation.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.Delete(ctx, m.keys()...); err != nil {
		return errors.Wrap(err, "clearing session")
	}
	return nil
}
