package search

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/goto/salt/log"

	"github.com/goto/vfsearch/core/document"
	"github.com/goto/vfsearch/core/user"
)

// Reconciler turns an engine response into the page a reader may see.
//
// Documents the reader may not see are dropped and lower the total. They
// never advance the position used to cut the requested window.
type Reconciler struct {
	Mode             PagingMode
	CheckPermissions bool
	Permissions      PermissionResolver
	Logger           log.Logger
}

// Reconcile walks the ranked documents. In client paging mode only the
// visible documents whose position falls in win are materialized. In
// engine paging mode every delivered visible document is.
func (r Reconciler) Reconcile(ctx context.Context, usr user.User, resp EngineResponse, win Window) Page {
	page := Page{
		Entries: []Entry{},
		Total:   resp.TotalHits,
		Facets:  resp.Facets,
	}

	cnt := 0
	for i := 0; i < len(resp.Documents); i++ {
		if r.Mode == ClientPaging && cnt >= win.End {
			break
		}
		doc := resp.Documents[i]

		if !r.visible(ctx, usr, doc) {
			page.Total--
			continue
		}

		if r.Mode == EnginePaging || cnt >= win.Start {
			entry, err := r.toEntry(doc, resp)
			if err != nil {
				r.logger().Warn("skipping document", "id", doc.ID(), "position", i, "err", err)
				continue
			}
			page.Entries = append(page.Entries, entry)
		}
		cnt++
	}

	if page.Total < 0 {
		page.Total = 0
	}
	return page
}

func (r Reconciler) visible(ctx context.Context, usr user.User, doc document.Document) bool {
	if !r.CheckPermissions || r.Permissions == nil {
		return true
	}
	path, typ := doc.String(document.FieldPath), doc.String(document.FieldType)
	if path == "" || typ == "" {
		return true
	}
	ok, err := r.Permissions.HasReadPermission(ctx, usr, path, typ)
	if err != nil {
		r.logger().Warn("permission check failed", "path", path, "type", typ, "err", err)
		return false
	}
	return ok
}

func (r Reconciler) toEntry(doc document.Document, resp EngineResponse) (entry Entry, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("convert document: %v", rec)
		}
	}()

	if doc == nil {
		return Entry{}, document.ErrNilDocument
	}
	id := doc.ID()
	if id == "" {
		return Entry{}, document.ErrEmptyID
	}

	entry = Entry{
		ID:      id,
		Score:   ScorePercent(scoreOf(doc), resp.MaxScore),
		Path:    doc.String(document.FieldPath),
		Type:    doc.String(document.FieldType),
		Fields:  map[string]string{},
		Excerpt: Highlight(id, resp.Highlighting),
	}
	entry.Created, _ = doc.Time(document.FieldCreated)
	entry.LastModified, _ = doc.Time(document.FieldLastModified)

	for k := range doc {
		switch k {
		case document.FieldID, document.FieldType, document.FieldPath, document.FieldCreated, document.FieldLastModified, document.FieldScore:
			continue
		}
		if v := doc.String(k); v != "" {
			entry.Fields[k] = v
		}
	}
	return entry, nil
}

func scoreOf(doc document.Document) float64 {
	switch v := doc[document.FieldScore].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// ScorePercent normalizes a raw relevance score against the highest score
// of the response. A missing maximum counts as 1, which keeps raw scores
// above 1 above 100 percent.
func ScorePercent(raw float64, max *float64) int {
	m := 1.0
	if max != nil && *max != 0 {
		m = *max
	}
	return int(math.Round(100 * raw / m))
}

// Highlight concatenates the first non-empty fragment list of a document.
// When several fields carry fragments, which one wins is not defined.
func Highlight(id string, hl map[string]map[string][]string) string {
	fields, ok := hl[id]
	if !ok {
		return ""
	}
	for _, fragments := range fields {
		if len(fragments) > 0 {
			return strings.Join(fragments, "")
		}
	}
	return ""
}

func (r Reconciler) logger() log.Logger {
	if r.Logger == nil {
		return log.NewNoop()
	}
	return r.Logger
}
