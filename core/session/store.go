package session

import (
	"context"
	"errors"
)

// Keys, stored under the Manager's namespace prefix.
const (
	KeyToken     = "auth_token"
	KeyUserID    = "user_id"
	KeyStudentID = "student_id"
	KeyRole      = "user_role"
	KeyProfile   = "user_data"
)

var (
	AllKeys = []string{KeyToken, KeyUserID, KeyStudentID, KeyRole, KeyProfile}

	// errors
	ErrNotFound = errors.New("session key not found")
)

// Store is a persistent key/value store.
type Store interface {
	// Get returns ErrNotFound when the key is not set.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes all the given keys in a single operation.
	Delete(ctx context.Context, keys ...string) error
}
