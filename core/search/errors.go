package search

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidConfig = errors.New("invalid index configuration")
	ErrEmptyQuery    = errors.New("query cannot be empty")
)

// QueryBuildError is returned when a query cannot be translated for the
// engine, for instance because a sub-query does not parse.
type QueryBuildError struct {
	Field string
	Query string
	Pos   int
	Err   error
}

func (err *QueryBuildError) Error() string {
	var s strings.Builder
	s.WriteString("build query: ")
	if err.Field != "" {
		s.WriteString("field '" + err.Field + "': ")
	}
	if err.Query != "" {
		s.WriteString(fmt.Sprintf("%q at %d: ", err.Query, err.Pos))
	}
	s.WriteString(err.Err.Error())
	return s.String()
}

func (err *QueryBuildError) Unwrap() error {
	return err.Err
}
