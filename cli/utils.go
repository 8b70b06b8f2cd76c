package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-module/carbon/v2"
	"gopkg.in/yaml.v2"

	"github.com/goto/vfsearch/core/search"
)

func parseFile(filePath string, v interface{}) error {
	b, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	switch filepath.Ext(filePath) {
	case ".json":
		if err := json.Unmarshal(b, v); err != nil {
			return fmt.Errorf("invalid json: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, v); err != nil {
			return fmt.Errorf("invalid yaml: %w", err)
		}
	default:
		return errors.New("unsupported file type")
	}

	return nil
}

func prettyPrint(i interface{}) string {
	s, _ := json.MarshalIndent(i, "", "\t")
	return string(s)
}

// parseFieldQuery reads "field:query" or "field:occur:query".
func parseFieldQuery(s string) (search.FieldQuery, error) {
	parts := strings.SplitN(s, ":", 3)
	switch len(parts) {
	case 2:
		return search.FieldQuery{Field: parts[0], Occur: search.ShouldOccur, Query: parts[1]}, nil
	case 3:
		occur, err := search.ParseOccur(parts[1])
		if err != nil {
			// the second colon belongs to the query
			return search.FieldQuery{Field: parts[0], Occur: search.ShouldOccur, Query: parts[1] + ":" + parts[2]}, nil
		}
		return search.FieldQuery{Field: parts[0], Occur: occur, Query: parts[2]}, nil
	}
	return search.FieldQuery{}, fmt.Errorf("invalid field query %q, expected field:[occur:]query", s)
}

// parseFilterClause reads "[+|-]field:value". Without a sign the clause
// is optional.
func parseFilterClause(s string) (search.FilterClause, error) {
	occur := search.ShouldOccur
	switch {
	case strings.HasPrefix(s, "+"):
		occur, s = search.MustOccur, s[1:]
	case strings.HasPrefix(s, "-"):
		occur, s = search.MustNotOccur, s[1:]
	}
	field, value, ok := strings.Cut(s, ":")
	if !ok || field == "" || value == "" {
		return search.FilterClause{}, fmt.Errorf("invalid filter %q, expected [+|-]field:value", s)
	}
	return search.NewFilterClause(field, value, occur), nil
}

// parseSortField reads "field" or "-field" for descending order.
func parseSortField(s string) search.SortField {
	if strings.HasPrefix(s, "-") {
		return search.SortField{Field: s[1:], Descending: true}
	}
	return search.SortField{Field: s}
}

// parseDateRange reads "from..to" where either bound may be empty. Bounds
// are dates or date times, in UTC unless they carry an offset.
func parseDateRange(s string) (search.DateRange, error) {
	var r search.DateRange
	if s == "" {
		return r, nil
	}
	from, to, ok := strings.Cut(s, "..")
	if !ok {
		return r, fmt.Errorf("invalid date range %q, expected from..to", s)
	}
	var err error
	if from != "" {
		if r.From, err = parseInstant(from); err != nil {
			return r, fmt.Errorf("invalid date range start: %w", err)
		}
	}
	if to != "" {
		if r.To, err = parseInstant(to); err != nil {
			return r, fmt.Errorf("invalid date range end: %w", err)
		}
	}
	return r, nil
}

func parseInstant(s string) (time.Time, error) {
	c := carbon.Parse(s, carbon.UTC)
	if c.Error != nil {
		return time.Time{}, c.Error
	}
	return c.Carbon2Time().UTC(), nil
}
