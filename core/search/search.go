package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goto/vfsearch/core/document"
	"github.com/goto/vfsearch/core/user"
)

// Occur is the boolean inclusion of a clause.
type Occur int

const (
	ShouldOccur Occur = iota
	MustOccur
	MustNotOccur
)

func (o Occur) String() string {
	switch o {
	case MustOccur:
		return "MUST"
	case MustNotOccur:
		return "MUST_NOT"
	default:
		return "SHOULD"
	}
}

// ParseOccur accepts the names returned by Occur.String, case
// insensitively, plus the +/- shorthands.
func ParseOccur(s string) (Occur, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MUST", "+":
		return MustOccur, nil
	case "MUST_NOT", "MUSTNOT", "-":
		return MustNotOccur, nil
	case "SHOULD", "":
		return ShouldOccur, nil
	}
	return ShouldOccur, fmt.Errorf("unknown occur %q", s)
}

// FieldQuery is a query restricted to a single field.
type FieldQuery struct {
	Field string
	Occur Occur
	Query string
}

type SortField struct {
	Field      string
	Descending bool
}

// Request holds the structural parameters of one search.
// A non-positive Page or PageSize returns every hit.
type Request struct {
	// Query is the free text. It is ignored when FieldQueries is set.
	Query string

	// FieldQueries are per field sub-queries with their own occurrence.
	FieldQueries []FieldQuery

	// Fields limits Query to the listed fields.
	Fields []string

	// Roots are site relative folders to search below. The reader's site
	// root is used when empty.
	Roots []string

	Categories    []string
	ResourceTypes []string

	Created      DateRange
	LastModified DateRange

	Page     int
	PageSize int

	Sort []SortField

	// Filters are additional filter clauses passed through to the engine.
	Filters []FilterClause

	// HandlerType selects how the engine interprets Query, for example
	// "best_fields" or "cross_fields".
	HandlerType string

	// FacetFields request value counts for each listed field.
	FacetFields []string
}

// Paginated reports whether the request asks for a single page.
func (r Request) Paginated() bool {
	return r.Page > 0 && r.PageSize > 0
}

// Entry is a single visible hit.
type Entry struct {
	ID           string            `json:"id"`
	Score        int               `json:"score"`
	Path         string            `json:"path"`
	Type         string            `json:"type"`
	Created      time.Time         `json:"created"`
	LastModified time.Time         `json:"lastmodified"`
	Fields       map[string]string `json:"fields"`
	Excerpt      string            `json:"excerpt"`
}

type FacetValue struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

type Facet struct {
	Field  string       `json:"field"`
	Values []FacetValue `json:"values"`
}

// Page is the result of a search. Total is the number of hits reported by
// the engine minus those excluded for lack of read permission.
type Page struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Facets  []Facet `json:"facets,omitempty"`
}

// EngineQuery is a fully translated query ready for the engine.
type EngineQuery struct {
	Text           string
	WeightedFields []string
	Filters        []string
	Sort           []SortField
	From           int
	Size           int
	HandlerType    string
	Highlight      bool
	FacetFields    []string
}

// EngineResponse is the ranked hit list returned by the engine. Every
// document carries its relevance in document.FieldScore.
type EngineResponse struct {
	Documents    []document.Document
	TotalHits    int
	MaxScore     *float64
	Highlighting map[string]map[string][]string
	Facets       []Facet
}

type Engine interface {
	Execute(ctx context.Context, q EngineQuery) (EngineResponse, error)
	FetchDocument(ctx context.Context, id string) (document.Document, error)
}

// PermissionResolver decides whether a reader may see an indexed
// repository resource.
type PermissionResolver interface {
	HasReadPermission(ctx context.Context, usr user.User, path, resourceType string) (bool, error)
}
