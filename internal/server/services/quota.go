package services

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/filex"
	"github.com/dmitrijs2005/filekeeper/internal/server/users"
)

// QuotaSource resolves a user's storage limit.
type QuotaSource interface {
	QuotaFor(ctx context.Context, username string) (users.Quota, error)
}

// QuotaCheck describes whether an upload of a given length fits.
// Current and Limit are only meaningful when Limited is true.
type QuotaCheck struct {
	Limited  bool
	Current  uint64
	Limit    uint64
	Exceeded bool
}

// Err returns common.ErrQuotaExceeded, wrapped with the figures, when the
// upload does not fit.
func (c QuotaCheck) Err() error {
	if !c.Exceeded {
		return nil
	}
	return fmt.Errorf("%w: %d of %d bytes used", common.ErrQuotaExceeded, c.Current, c.Limit)
}

// Usage is the quota state shown next to a directory listing.
type Usage struct {
	Quota   users.Quota
	Current uint64
}

type QuotaService struct {
	quotas  QuotaSource
	walker  *filex.Walker
	baseDir string
}

func NewQuotaService(q QuotaSource, w *filex.Walker, baseDir string) *QuotaService {
	return &QuotaService{quotas: q, walker: w, baseDir: baseDir}
}

// DiskUsage sums the sizes of the regular files in the user's home.
func (s *QuotaService) DiskUsage(ctx context.Context, username string) (uint64, error) {
	return s.walker.DiskUsage(ctx, filepath.Join(s.baseDir, common.UserDirName, username))
}

// Usage returns the user's quota and, when limited, the current usage.
// Unlimited users are not walked.
func (s *QuotaService) Usage(ctx context.Context, username string) (Usage, error) {
	q, err := s.quotas.QuotaFor(ctx, username)
	if err != nil {
		return Usage{}, err
	}

	u := Usage{Quota: q}
	if !q.Available {
		return u, nil
	}

	if u.Current, err = s.DiskUsage(ctx, username); err != nil {
		return Usage{}, err
	}

	return u, nil
}

// CheckUpload reports whether storing length more bytes would push the user
// over the limit.
func (s *QuotaService) CheckUpload(ctx context.Context, username string, length uint64) (QuotaCheck, error) {
	u, err := s.Usage(ctx, username)
	if err != nil {
		return QuotaCheck{}, err
	}

	if !u.Quota.Available {
		return QuotaCheck{}, nil
	}

	return QuotaCheck{
		Limited:  true,
		Current:  u.Current,
		Limit:    u.Quota.LimitBytes,
		Exceeded: exceeds(u.Current, length, u.Quota.LimitBytes),
	}, nil
}

// exceeds reports cur+n > limit without overflowing.
func exceeds(cur, n, limit uint64) bool {
	if cur > limit {
		return true
	}
	return n > limit-cur
}
