package resource

import (
	"context"
	"errors"
	"time"

	"github.com/goto/vfsearch/core/user"
)

// PermissionChecker decides visibility of indexed documents against the
// content repository.
//
// A document is visible when its resource exists, is not deleted, can be
// read by the user and is available at the user's current instant, which
// is the time warp when one is set. Types the repository does not know
// are always visible.
type PermissionChecker struct {
	repo  Repository
	clock func() time.Time
}

func NewPermissionChecker(repo Repository, clock func() time.Time) *PermissionChecker {
	if clock == nil {
		clock = time.Now
	}
	return &PermissionChecker{repo: repo, clock: clock}
}

func (c *PermissionChecker) HasReadPermission(ctx context.Context, usr user.User, path, resourceType string) (bool, error) {
	known, err := c.repo.HasType(ctx, resourceType)
	if err != nil {
		return false, err
	}
	if !known {
		return true, nil
	}

	res, err := c.repo.GetByPath(ctx, path)
	if err != nil {
		if errors.As(err, &NotFoundError{}) {
			return false, nil
		}
		return false, err
	}

	if res.Deleted || !res.Readable(usr) {
		return false, nil
	}
	return res.Available(usr.Now(c.clock)), nil
}
