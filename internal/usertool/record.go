// Package usertool builds and checks user database records offline. It never
// writes the database: records are printed for an administrator to add.
package usertool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/filekeeper/internal/codecx"
	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/auth"
	"github.com/dmitrijs2005/filekeeper/internal/server/services"
	"github.com/dmitrijs2005/filekeeper/internal/server/users"
)

var (
	ErrEmptyPassword = errors.New("empty password")
	ErrInvalidName   = errors.New("user name is not a valid cookie name")
	ErrRejected      = errors.New("password rejected")
)

// NewRecord creates a record for name with a fresh salt and signing key read
// from rnd. quota is a number of megabytes; empty means unlimited.
func NewRecord(name string, password []byte, quota string, rnd io.Reader) (users.User, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/*") {
		return users.User{}, fmt.Errorf("%w: user name %q", common.ErrInvalidPath, name)
	}
	// the name travels as the session cookie's name
	if err := (&http.Cookie{Name: name, Value: "x"}).Valid(); err != nil {
		return users.User{}, fmt.Errorf("%w: user name %q: %v", ErrInvalidName, name, err)
	}
	if len(password) == 0 {
		return users.User{}, ErrEmptyPassword
	}

	u := users.User{Name: name, Quota: quota}
	if _, err := u.QuotaView(); err != nil {
		return users.User{}, err
	}

	salt := make([]byte, auth.SaltSize)
	key := make([]byte, auth.KeySize)
	defer common.WipeByteArray(key)

	if _, err := io.ReadFull(rnd, salt); err != nil {
		return users.User{}, fmt.Errorf("generate salt: %w", err)
	}
	if _, err := io.ReadFull(rnd, key); err != nil {
		return users.User{}, fmt.Errorf("generate key: %w", err)
	}

	u.Salt = codecx.HexEncode(salt)
	u.Password = auth.DigestPassword(salt, string(password))
	u.Key = codecx.HexEncode(key)

	return u, nil
}

// Check runs a login against the database at dbPath exactly as the server
// would and reports the outcome.
func Check(ctx context.Context, dbPath, name string, password []byte) (services.Status, error) {
	s := services.NewAuthService(users.NewFileRepository(dbPath), "", logging.Nop())

	res, err := s.Login(ctx, name, string(password))
	if err != nil {
		return services.StatusRejected, err
	}
	return res.Status, nil
}
