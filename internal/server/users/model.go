package users

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dmitrijs2005/filekeeper/internal/codecx"
	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/server/auth"
)

// User is one record of the user database. Salt and Key are lowercase hex,
// Password is the hex digest produced by auth.DigestPassword and Quota is a
// decimal number of megabytes (empty means unlimited).
type User struct {
	Name     string `json:"name"`
	Salt     string `json:"salt"`
	Password string `json:"password"`
	Key      string `json:"key"`
	Quota    string `json:"quota,omitempty"`
}

// Quota is the storage limit derived from a record. Available is false when
// the user has no limit.
type Quota struct {
	Available  bool
	LimitBytes uint64
}

// SigningKey decodes the record's key.
func (u *User) SigningKey() ([]byte, error) {
	k, err := codecx.HexDecodeFixed(u.Key, auth.KeySize)
	if err != nil {
		return nil, fmt.Errorf("%w: user %q: key: %v", common.ErrMalformedRecord, u.Name, err)
	}
	return k, nil
}

// QuotaView parses the quota field. Values whose byte count would reach
// math.MaxUint64 are rejected.
func (u *User) QuotaView() (Quota, error) {
	if u.Quota == "" {
		return Quota{}, nil
	}

	mb, err := strconv.ParseUint(u.Quota, 10, 64)
	if err != nil {
		return Quota{}, fmt.Errorf("%w: user %q: quota %q: %v", common.ErrMalformedRecord, u.Name, u.Quota, err)
	}
	if mb >= math.MaxUint64/common.MiB {
		return Quota{}, fmt.Errorf("%w: user %q: quota %q too large", common.ErrMalformedRecord, u.Name, u.Quota)
	}

	return Quota{Available: true, LimitBytes: mb * common.MiB}, nil
}

// Database is the parsed user table. Users keep the file order.
type Database struct {
	Users []User `json:"users"`
}

// Find returns the first user matching pred, or common.ErrorNotFound.
func (d *Database) Find(pred func(*User) bool) (*User, error) {
	for i := range d.Users {
		if pred(&d.Users[i]) {
			return &d.Users[i], nil
		}
	}
	return nil, common.ErrorNotFound
}

// ByName matches records with the given name.
func ByName(name string) func(*User) bool {
	return func(u *User) bool { return u.Name == name }
}
