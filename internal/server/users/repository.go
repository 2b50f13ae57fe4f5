package users

import (
	"context"
)

// Repository loads the user table. Implementations return a fresh snapshot
// on every call and keep no state between calls.
type Repository interface {
	Load(ctx context.Context) (*Database, error)
}
