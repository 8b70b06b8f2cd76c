package resource

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPath = errors.New("resource path is empty")
	ErrEmptyType = errors.New("resource type is empty")
)

type NotFoundError struct {
	Path string
}

func (err NotFoundError) Error() string {
	return fmt.Sprintf("no such resource: %q", err.Path)
}

type InvalidError struct {
	Path string
}

func (err InvalidError) Error() string {
	return fmt.Sprintf("invalid resource path %q", err.Path)
}
