package domain

import "errors"

// Repository-level sentinels. Usecases translate them into apperror values.
var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource already exists")
	// ErrStateChanged means a guarded update matched no row because another request got there first.
	ErrStateChanged = errors.New("resource state changed")
	// ErrEmailTaken means an account insert lost to another registration of the same email.
	ErrEmailTaken = errors.New("email already registered")
)
