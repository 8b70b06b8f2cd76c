package user

import (
	"errors"
	"fmt"
)

var (
	ErrNoUserInformation = errors.New("no user information")
)

type InvalidError struct {
	ID       string
	SiteRoot string
}

func (e InvalidError) Error() string {
	if e.SiteRoot != "" {
		return fmt.Sprintf("site root %q of user %q is not absolute", e.SiteRoot, e.ID)
	}
	return fmt.Sprintf("empty field with id \"%s\"", e.ID)
}
