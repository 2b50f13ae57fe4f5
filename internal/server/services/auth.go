// Package services holds the business logic behind the HTTP handlers:
// credential checks, quota accounting and file management.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/auth"
	"github.com/dmitrijs2005/filekeeper/internal/server/users"
)

// Status is the non-error outcome of a credential check. A rejected
// credential is an expected result and is never returned as an error.
type Status int

const (
	StatusRejected Status = iota
	StatusAccepted
)

func (s Status) String() string {
	if s == StatusAccepted {
		return "accepted"
	}
	return "rejected"
}

// LoginResult carries the issued token when Status is StatusAccepted.
type LoginResult struct {
	Status Status
	Token  string
}

// Access is the outcome of Authenticate. User is the bound identity and is
// only set when Status is StatusAccepted.
type Access struct {
	Status Status
	User   string
}

// AuthService answers login and cookie checks against the user database.
// The database is loaded on every call and nothing is cached.
type AuthService struct {
	users   users.Repository
	baseDir string
	logger  logging.Logger
}

func NewAuthService(r users.Repository, baseDir string, l logging.Logger) *AuthService {
	return &AuthService{
		users:   r,
		baseDir: baseDir,
		logger:  l.With("module", "auth"),
	}
}

// BaseDir returns the data directory the service was configured with.
func (s *AuthService) BaseDir() string {
	return s.baseDir
}

// Login checks username and password and issues a token signed with the
// matching record's key. Records sharing a name are tried in file order and
// the first one whose password matches wins. An unknown user and a wrong
// password both yield StatusRejected.
func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	db, err := s.users.Load(ctx)
	if err != nil {
		return LoginResult{}, fmt.Errorf("load users: %w", err)
	}

	for i := range db.Users {
		u := &db.Users[i]
		if u.Name != username {
			continue
		}

		ok, err := auth.CheckPassword(u.Salt, password, u.Password)
		if err != nil {
			return LoginResult{}, fmt.Errorf("user %q: %w", u.Name, err)
		}
		if !ok {
			continue
		}

		key, err := u.SigningKey()
		if err != nil {
			return LoginResult{}, err
		}

		token, err := auth.IssueToken(username, key)
		common.WipeByteArray(key)
		if err != nil {
			return LoginResult{}, fmt.Errorf("issue token: %w", err)
		}

		s.logger.Info(ctx, "login accepted", "user", username)
		return LoginResult{Status: StatusAccepted, Token: token}, nil
	}

	s.logger.Debug(ctx, "login rejected", "user", username)
	return LoginResult{Status: StatusRejected}, nil
}

// Authenticate checks a presented token against every record's key.
//
// A key decode failure or a verification error on any record aborts the call.
// A valid signature only grants access when the record that produced it, the
// token's name claim and the presented identity all name the same user, so a
// token issued to one user cannot be replayed under another's name.
func (s *AuthService) Authenticate(ctx context.Context, identity, token string) (Access, error) {
	if identity == "" || token == "" {
		return Access{Status: StatusRejected}, nil
	}

	db, err := s.users.Load(ctx)
	if err != nil {
		return Access{}, fmt.Errorf("load users: %w", err)
	}

	for i := range db.Users {
		u := &db.Users[i]

		key, err := u.SigningKey()
		if err != nil {
			return Access{}, err
		}

		v, err := auth.VerifyToken(token, key)
		common.WipeByteArray(key)
		if err != nil {
			return Access{}, err
		}
		if v != auth.Valid {
			continue
		}

		claims, err := auth.ParseClaims(token)
		if err != nil {
			return Access{}, err
		}

		if u.Name == identity && claims.Name == identity {
			return Access{Status: StatusAccepted, User: u.Name}, nil
		}

		s.logger.Warn(ctx, "token identity mismatch",
			"presented", identity, "claim", claims.Name, "record", u.Name)
	}

	return Access{Status: StatusRejected}, nil
}

// QuotaFor returns the quota of the first record named username. A user
// without a record has no limit.
func (s *AuthService) QuotaFor(ctx context.Context, username string) (users.Quota, error) {
	db, err := s.users.Load(ctx)
	if err != nil {
		return users.Quota{}, fmt.Errorf("load users: %w", err)
	}

	u, err := db.Find(users.ByName(username))
	if errors.Is(err, common.ErrorNotFound) {
		return users.Quota{}, nil
	}
	if err != nil {
		return users.Quota{}, err
	}

	return u.QuotaView()
}
