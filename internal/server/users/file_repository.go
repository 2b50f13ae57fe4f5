package users

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/filekeeper/internal/common"
)

const emptyDatabase = "{\"users\": []}\n"

// FileRepository reads the user table from a JSON document of the form
// {"users": [{"name", "salt", "password", "key", "quota"?}, ...]}.
//
// The file is read and parsed on every Load, so edits made by an
// administrator are visible on the next request. Nothing is cached and
// nothing is written back, which makes concurrent Loads safe.
type FileRepository struct {
	path string
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (r *FileRepository) Path() string {
	return r.path
}

// Init creates the database with an empty user list when it does not exist.
// It reports whether the file was created. Any other stat failure is returned.
func (r *FileRepository) Init(ctx context.Context) (bool, error) {
	_, err := os.Stat(r.path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", r.path, err)
	}

	f, err := os.OpenFile(r.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return false, fmt.Errorf("create %s: %w", r.path, err)
	}
	if _, err := f.WriteString(emptyDatabase); err != nil {
		f.Close()
		return false, fmt.Errorf("write %s: %w", r.path, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("close %s: %w", r.path, err)
	}

	return true, nil
}

func (r *FileRepository) Load(ctx context.Context) (*Database, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read user database: %w", err)
	}

	db, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.path, err)
	}

	return db, nil
}

type rawDatabase struct {
	Users json.RawMessage `json:"users"`
}

type rawUser struct {
	Name     *string         `json:"name"`
	Salt     *string         `json:"salt"`
	Password *string         `json:"password"`
	Key      *string         `json:"key"`
	Quota    json.RawMessage `json:"quota"`
}

// Parse decodes a user database document. The users field must be present
// and be an array; every record must carry string name, salt, password and
// key fields, and quota, if present, must be a string or null.
func Parse(data []byte) (*Database, error) {
	var raw rawDatabase
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedDatabase, err)
	}
	if isNull(raw.Users) {
		return nil, fmt.Errorf("%w: could not find users", common.ErrMalformedDatabase)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw.Users, &items); err != nil {
		return nil, fmt.Errorf("%w: expected JSON array for users", common.ErrMalformedDatabase)
	}

	db := &Database{Users: make([]User, 0, len(items))}
	for i, item := range items {
		u, err := parseUser(item)
		if err != nil {
			return nil, fmt.Errorf("users[%d]: %w", i, err)
		}
		db.Users = append(db.Users, u)
	}

	return db, nil
}

func parseUser(item json.RawMessage) (User, error) {
	var raw rawUser
	if err := json.Unmarshal(item, &raw); err != nil {
		return User{}, fmt.Errorf("%w: %v", common.ErrMalformedRecord, err)
	}

	required := []struct {
		field string
		value *string
	}{
		{"name", raw.Name},
		{"salt", raw.Salt},
		{"password", raw.Password},
		{"key", raw.Key},
	}
	for _, r := range required {
		if r.value == nil {
			return User{}, fmt.Errorf("%w: missing %s", common.ErrMalformedRecord, r.field)
		}
	}

	u := User{
		Name:     *raw.Name,
		Salt:     *raw.Salt,
		Password: *raw.Password,
		Key:      *raw.Key,
	}

	if !isNull(raw.Quota) {
		if err := json.Unmarshal(raw.Quota, &u.Quota); err != nil {
			return User{}, fmt.Errorf("%w: user %q: quota must be a string", common.ErrMalformedRecord, u.Name)
		}
	}

	return u, nil
}

func isNull(m json.RawMessage) bool {
	t := bytes.TrimSpace(m)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}
