package search

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/goto/vfsearch/core/document"
	"github.com/goto/vfsearch/core/user"
)

// DateFormat is the UTC layout the engine accepts inside range queries.
const DateFormat = "2006-01-02T15:04:05.000Z"

// BuildFilter renders a single filter fragment. The sign only depends on
// occur, never on the value.
func BuildFilter(field, value string, occur Occur) string {
	switch occur {
	case MustNotOccur:
		return fmt.Sprintf(" -%s:%s", field, value)
	case MustOccur:
		return fmt.Sprintf(" +%s:%s", field, value)
	default:
		return fmt.Sprintf(" %s:%s", field, value)
	}
}

// FilterClause is an extra filter passed through to the engine.
type FilterClause struct {
	field string
	value string
	occur Occur
}

// NewFilterClause builds a clause. Values made of several words or holding
// query syntax are quoted, except ranges and values quoted by the caller.
func NewFilterClause(field, value string, occur Occur) FilterClause {
	if needsQuoting(value) && !isQuoted(value) && !isRange(value) {
		value = quote(value)
	}
	return FilterClause{field: field, value: value, occur: occur}
}

func (c FilterClause) Field() string { return c.field }
func (c FilterClause) Value() string { return c.value }
func (c FilterClause) Occur() Occur  { return c.occur }

func (c FilterClause) String() string {
	return BuildFilter(c.field, c.value, c.occur)
}

// PathFilter scopes a search to the given site relative roots, or to the
// reader's site root when there are none. All roots go into one filter so
// that they widen the result instead of narrowing it.
func PathFilter(usr user.User, roots []string) string {
	if len(roots) == 0 {
		roots = []string{usr.SiteRoot}
	} else {
		resolved := make([]string, 0, len(roots))
		for _, r := range roots {
			resolved = append(resolved, usr.AddSiteRoot(r))
		}
		roots = resolved
	}

	var sb strings.Builder
	for _, root := range roots {
		if !strings.HasSuffix(root, "/") {
			root += "/"
		}
		sb.WriteString(BuildFilter(document.FieldParentFolders, quote(root), ShouldOccur))
	}
	return sb.String()
}

func CategoryFilters(categories []string) []string {
	return mustFilters(document.FieldCategory, categories)
}

func ResourceTypeFilters(types []string) []string {
	return mustFilters(document.FieldType, types)
}

func mustFilters(field string, values []string) []string {
	var filters []string
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		filters = append(filters, NewFilterClause(field, v, MustOccur).String())
	}
	return filters
}

// DateRange is a range over a date field. A zero bound is unbounded.
type DateRange struct {
	From time.Time
	To   time.Time
}

// RangeFromMillis converts epoch millisecond bounds. math.MinInt64 and
// math.MaxInt64 mean unbounded.
func RangeFromMillis(min, max int64) DateRange {
	var r DateRange
	if min != math.MinInt64 {
		r.From = time.UnixMilli(min).UTC()
	}
	if max != math.MaxInt64 {
		r.To = time.UnixMilli(max).UTC()
	}
	return r
}

func (r DateRange) Unbounded() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Bounds returns the range in epoch milliseconds, using math.MinInt64 and
// math.MaxInt64 for open ends.
func (r DateRange) Bounds() (int64, int64) {
	min, max := int64(math.MinInt64), int64(math.MaxInt64)
	if !r.From.IsZero() {
		min = r.From.UnixMilli()
	}
	if !r.To.IsZero() {
		max = r.To.UnixMilli()
	}
	return min, max
}

// Contains reports whether t lies in [From, To).
func (r DateRange) Contains(t time.Time) bool {
	min, max := r.Bounds()
	ms := t.UnixMilli()
	return ms >= min && ms < max
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s TO %s]", formatBound(r.From), formatBound(r.To))
}

// DateRangeFilter returns the MUST filter for the range, or false when the
// range is unbounded on both ends.
func DateRangeFilter(field string, r DateRange) (string, bool) {
	if r.Unbounded() {
		return "", false
	}
	return BuildFilter(field, r.String(), MustOccur), true
}

// ReleaseFilter keeps documents released at or before now.
func ReleaseFilter(now time.Time) string {
	return BuildFilter(document.FieldRelease, DateRange{To: now}.String(), MustOccur)
}

// ExpiredFilter keeps documents expiring at or after now.
func ExpiredFilter(now time.Time) string {
	return BuildFilter(document.FieldExpired, DateRange{From: now}.String(), MustOccur)
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "*"
	}
	return t.UTC().Format(DateFormat)
}

// queryChars are the query_string operators. Wildcards stay usable.
const queryChars = `+-=&|><!(){}[]^"~:\/`

func needsQuoting(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0 || strings.ContainsAny(s, queryChars)
}

func isQuoted(s string) bool {
	return len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`)
}

func isRange(s string) bool {
	return len(s) >= 2 && (s[0] == '[' || s[0] == '{') && (s[len(s)-1] == ']' || s[len(s)-1] == '}')
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
