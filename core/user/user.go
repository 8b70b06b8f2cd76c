package user

import (
	"strings"
	"time"
)

// User is the effective reader of a search: who is asking, which site
// they are browsing and, optionally, the instant they are previewing.
type User struct {
	ID       string    `json:"id" yaml:"id"`
	Groups   []string  `json:"groups,omitempty" yaml:"groups"`
	SiteRoot string    `json:"site_root" yaml:"site_root"`
	TimeWarp time.Time `json:"time_warp,omitempty" yaml:"time_warp"`
}

// Validate validates a user is valid or not
func (u *User) Validate() error {
	if u == nil {
		return ErrNoUserInformation
	}

	if u.ID == "" {
		return InvalidError{ID: u.ID}
	}

	if u.SiteRoot != "" && !strings.HasPrefix(u.SiteRoot, "/") {
		return InvalidError{ID: u.ID, SiteRoot: u.SiteRoot}
	}

	return nil
}

// InTimeWarp reports whether the user previews content at a simulated
// instant instead of the wall clock.
func (u User) InTimeWarp() bool {
	return !u.TimeWarp.IsZero()
}

// Now returns the time-warp instant when one is set and the wall clock
// in UTC otherwise.
func (u User) Now(clock func() time.Time) time.Time {
	if u.InTimeWarp() {
		return u.TimeWarp.UTC()
	}
	if clock == nil {
		clock = time.Now
	}
	return clock().UTC()
}

// AddSiteRoot turns a site relative path into a root path.
func (u User) AddSiteRoot(path string) string {
	root := strings.TrimSuffix(u.SiteRoot, "/")
	if root == "" || strings.HasPrefix(path, root+"/") || path == root {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return root + path
}

// Member reports whether the user is the principal or belongs to it.
func (u User) Member(principal string) bool {
	if principal == u.ID {
		return true
	}
	for _, g := range u.Groups {
		if g == principal {
			return true
		}
	}
	return false
}
