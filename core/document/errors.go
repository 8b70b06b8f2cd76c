package document

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyID     = errors.New("document does not have ID")
	ErrNilDocument = errors.New("nil document")
)

type NotFoundError struct {
	ID string
}

func (err NotFoundError) Error() string {
	if err.ID != "" {
		return fmt.Sprintf("no such document: %q", err.ID)
	}
	return "could not find document"
}

// BackendError is a failed exchange with the search engine: a transport
// failure, an error response or an undecodable body.
type BackendError struct {
	Op     string
	ID     string
	Index  string
	ESCode string
	Err    error
}

func (err BackendError) Error() string {
	var s strings.Builder
	s.WriteString("backend error: ")
	if err.Op != "" {
		s.WriteString(err.Op + ": ")
	}
	if err.ID != "" {
		s.WriteString("doc ID '" + err.ID + "': ")
	}
	if err.Index != "" {
		s.WriteString("index '" + err.Index + "': ")
	}
	if err.ESCode != "" {
		s.WriteString("elasticsearch code '" + err.ESCode + "': ")
	}
	if err.Err != nil {
		s.WriteString(err.Err.Error())
	}
	return s.String()
}

func (err BackendError) Unwrap() error {
	return err.Err
}
