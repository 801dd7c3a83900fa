package session_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/niva/core/session"
	"github.com/trezcool/niva/storage/sessionstore/inmem"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want session.Role
	}{
		{in: "Admin", want: session.RoleAdmin},
		{in: "admin", want: session.RoleAdmin},
		{in: "ADMIN", want: session.RoleAdmin},
		{in: "AdminUser", want: session.RoleAdmin},
		{in: " adminuser ", want: session.RoleAdmin},
		{in: "user", want: session.RoleStandardUser},
		{in: "StandardUser", want: session.RoleStandardUser},
		{in: "superadmin", want: session.RoleStandardUser},
		{in: "", want: session.RoleStandardUser},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := session.ParseRole(tt.in); got != tt.want {
				t.Errorf("ParseRole(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestUser_UnmarshalRole(t *testing.T) {
	tests := []struct {
		name string
		json string
		want session.Role
	}{
		{name: "admin", json: `{"id": 1, "role": "AdminUser"}`, want: session.RoleAdmin},
		{name: "user", json: `{"id": "1", "role": "user"}`, want: session.RoleStandardUser},
		{name: "missing", json: `{"id": 1}`, want: ""},
		{name: "null", json: `{"id": 1, "role": null}`, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var usr session.User
			if assert.NoError(t, json.Unmarshal([]byte(tt.json), &usr)) {
				assert.Equal(t, tt.want, usr.Role)
				assert.Equal(t, "1", string(usr.ID))
			}
		})
	}
}

func TestManager(t *testing.T) {
	ctx := context.Background()
	store := inmemstore.New()
	mgr := session.NewManager(store, "niva_")

	t.Run("empty session", func(t *testing.T) {
		assert.False(t, mgr.IsAuthenticated(ctx))
		assert.False(t, mgr.HasStudentProfile(ctx))
		role, err := mgr.CachedRole(ctx)
		assert.NoError(t, err)
		assert.Equal(t, session.RoleStandardUser, role)
		usr, err := mgr.CachedProfile(ctx)
		assert.NoError(t, err)
		assert.Nil(t, usr)
	})

	t.Run("populate", func(t *testing.T) {
		assert.NoError(t, mgr.SetToken(ctx, "tok"))
		assert.NoError(t, mgr.SetUserID(ctx, "7"))
		assert.NoError(t, mgr.SetStudentID(ctx, "s1"))
		assert.NoError(t, mgr.SetRole(ctx, session.RoleAdmin))
		assert.NoError(t, mgr.SetProfile(ctx, session.User{ID: "7", Email: "a@niva.ai", Role: session.RoleAdmin}))

		sess, err := mgr.Load(ctx)
		assert.NoError(t, err)
		assert.True(t, sess.IsAuthenticated())
		assert.Equal(t, "tok", sess.Token)
		assert.Equal(t, "7", sess.UserID)
		assert.Equal(t, "s1", sess.StudentID)
		assert.Equal(t, session.RoleAdmin, sess.Role)
		if assert.NotNil(t, sess.Profile) {
			assert.Equal(t, "a@niva.ai", sess.Profile.Email)
		}

		val, err := store.Get(ctx, "niva_"+session.KeyToken)
		assert.NoError(t, err)
		assert.Equal(t, "tok", val)
	})

	t.Run("role cache is last writer wins", func(t *testing.T) {
		assert.NoError(t, mgr.SetRole(ctx, session.RoleStandardUser))
		role, _ := mgr.CachedRole(ctx)
		assert.Equal(t, session.RoleStandardUser, role)
	})

	t.Run("clear", func(t *testing.T) {
		_ = store.Set(ctx, "other_app_key", "keep")
		assert.NoError(t, mgr.Clear(ctx))
		assert.False(t, mgr.IsAuthenticated(ctx))
		assert.Equal(t, 1, store.Len())

		sess, err := mgr.Load(ctx)
		assert.NoError(t, err)
		assert.Equal(t, session.Session{Role: session.RoleStandardUser}, sess)
	})
}
