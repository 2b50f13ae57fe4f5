package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/codecx"
	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/filex"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/google/uuid"
)

// shareIDSize is the number of random bytes behind a public link.
const shareIDSize = 16

// Entry is one item of a directory listing.
type Entry struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	IsDir   bool      `json:"is_dir"`
	ModTime time.Time `json:"mod_time"`
}

// FileService manages the files stored under <data>/user/<name>/ and the
// public links under <data>/public/. Paths given to it are relative to the
// user's home, with or without a leading slash.
type FileService struct {
	baseDir string
	tmpDir  string
	logger  logging.Logger
}

func NewFileService(baseDir, tmpDir string, l logging.Logger) *FileService {
	return &FileService{
		baseDir: baseDir,
		tmpDir:  tmpDir,
		logger:  l.With("module", "files"),
	}
}

// IsRelPath reports whether p tries to climb out of its root: it is "." or
// "..", contains "/../" or ends in "/..".
func IsRelPath(p string) bool {
	if p == "." || p == ".." || strings.Contains(p, "/../") {
		return true
	}
	return strings.HasSuffix(p, "/..")
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, "/*")
}

func (s *FileService) home(username string) (string, error) {
	if !validName(username) {
		return "", fmt.Errorf("%w: user name %q", common.ErrInvalidPath, username)
	}
	return filepath.Join(s.baseDir, common.UserDirName, username), nil
}

// resolve maps a user-relative path onto the filesystem.
func (s *FileService) resolve(username, p string) (string, error) {
	h, err := s.home(username)
	if err != nil {
		return "", err
	}

	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if IsRelPath(p) {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidPath, p)
	}

	return filepath.Join(h, filepath.FromSlash(p)), nil
}

// EnsureHome creates the user's home directory if it is missing.
func (s *FileService) EnsureHome(ctx context.Context, username string) error {
	h, err := s.home(username)
	if err != nil {
		return err
	}

	created, err := filex.EnsureDir(h)
	if err != nil {
		return err
	}
	if created {
		s.logger.Info(ctx, "created home directory", "user", username)
	}

	return nil
}

// Stat describes the item at p without following a final symlink.
func (s *FileService) Stat(_ context.Context, username, p string) (fs.FileInfo, error) {
	full, err := s.resolve(username, p)
	if err != nil {
		return nil, err
	}

	fi, err := os.Lstat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.ErrorNotFound
	}

	return fi, err
}

// List returns the entries of dir sorted by name.
func (s *FileService) List(_ context.Context, username, dir string) ([]Entry, error) {
	full, err := s.resolve(username, dir)
	if err != nil {
		return nil, err
	}

	des, err := os.ReadDir(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("read dir: %w", err)
	}

	entries := make([]Entry, 0, len(des))
	for _, de := range des {
		fi, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:    de.Name(),
			Size:    fi.Size(),
			IsDir:   de.IsDir(),
			ModTime: fi.ModTime().UTC(),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	return entries, nil
}

// Open opens a regular file for reading.
func (s *FileService) Open(_ context.Context, username, p string) (*os.File, fs.FileInfo, error) {
	full, err := s.resolve(username, p)
	if err != nil {
		return nil, nil, err
	}
	return openRegular(full)
}

func openRegular(full string) (*os.File, fs.FileInfo, error) {
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, common.ErrorNotFound
		}
		return nil, nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if !fi.Mode().IsRegular() {
		f.Close()
		return nil, nil, fmt.Errorf("%w: not a regular file", common.ErrInvalidPath)
	}

	return f, fi, nil
}

// Upload stores r as dir/name. The data is first written to a temporary
// file and then moved into place, replacing any existing file.
func (s *FileService) Upload(ctx context.Context, username, dir, name string, r io.Reader) (int64, error) {
	if !validName(name) {
		return 0, fmt.Errorf("%w: file name %q", common.ErrInvalidPath, name)
	}

	dirFull, err := s.resolve(username, dir)
	if err != nil {
		return 0, err
	}
	full := filepath.Join(dirFull, name)

	tmp, err := os.CreateTemp(s.tmpDir, "upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("write temp file: %w", err)
	}

	if err := renameOrMove(tmpName, full); err != nil {
		os.Remove(tmpName)
		return 0, err
	}

	s.logger.Info(ctx, "file uploaded", "user", username, "path", path.Join(dir, name), "size", n)

	return n, nil
}

// renameOrMove renames oldpath to newpath, falling back to copy and remove
// when the two live on different filesystems.
func renameOrMove(oldpath, newpath string) error {
	err := os.Rename(oldpath, newpath)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("rename: %w", err)
	}

	src, err := os.Open(oldpath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(newpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("copy: %w", err)
	}
	if err := dst.Close(); err != nil {
		return err
	}

	return os.Remove(oldpath)
}

// Mkdir creates dir/name with mode 0700 and returns its user-relative path.
func (s *FileService) Mkdir(ctx context.Context, username, dir, name string) (string, error) {
	if !validName(name) {
		return "", fmt.Errorf("%w: directory name %q", common.ErrInvalidPath, name)
	}

	dirFull, err := s.resolve(username, dir)
	if err != nil {
		return "", err
	}
	full := filepath.Join(dirFull, name)
	rel := path.Join("/", dir, name)

	if err := os.Mkdir(full, 0o700); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", common.ErrAlreadyExists
		}
		if errors.Is(err, fs.ErrNotExist) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("mkdir: %w", err)
	}

	s.logger.Info(ctx, "directory created", "user", username, "path", rel)

	return rel + "/", nil
}

// Share publishes a regular file under a random link and returns the link's
// URL path, /public/<id>.
func (s *FileService) Share(ctx context.Context, username, p string) (string, error) {
	full, err := s.resolve(username, p)
	if err != nil {
		return "", err
	}

	fi, err := os.Lstat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", common.ErrorNotFound
		}
		return "", err
	}
	if !fi.Mode().IsRegular() {
		return "", fmt.Errorf("%w: only regular files can be shared", common.ErrInvalidPath)
	}

	target, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}

	raw := uuid.New()
	id := codecx.HexEncode(raw[:])

	link := filepath.Join(s.baseDir, common.PublicDirName, id)
	if err := os.Symlink(target, link); err != nil {
		return "", fmt.Errorf("symlink: %w", err)
	}

	s.logger.Info(ctx, "file shared", "user", username, "path", p, "id", id)

	return "/" + common.PublicDirName + "/" + id, nil
}

// OpenPublic opens the file behind a public link.
func (s *FileService) OpenPublic(_ context.Context, id string) (*os.File, fs.FileInfo, error) {
	if _, err := codecx.HexDecodeFixed(id, shareIDSize); err != nil {
		return nil, nil, common.ErrorNotFound
	}

	return openRegular(filepath.Join(s.baseDir, common.PublicDirName, id))
}
