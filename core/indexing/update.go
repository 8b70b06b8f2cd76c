package indexing

import (
	"time"

	"github.com/peterbourgon/mergemap"

	"github.com/goto/vfsearch/core/document"
	"github.com/goto/vfsearch/core/search"
)

// PendingUpdate replaces the listed fields of an indexed document.
type PendingUpdate struct {
	ID     string                 `json:"id" yaml:"id"`
	Fields map[string]interface{} `json:"fields" yaml:"fields"`
}

type MergeOptions struct {
	// DerivedFields are dropped from the current document on top of the
	// score and the ngram copy-field.
	DerivedFields []string
}

func (o MergeOptions) derived() map[string]struct{} {
	set := map[string]struct{}{
		document.FieldScore:        {},
		document.FieldNGramContent: {},
	}
	for _, f := range o.DerivedFields {
		set[f] = struct{}{}
	}
	return set
}

// Merge builds the document to resubmit for an update. Fields computed by
// the engine are dropped and the update is overlaid on the current values.
// Updated fields replace the current ones, except object fields, which are
// merged key by key.
func Merge(upd PendingUpdate, current document.Document, opts MergeOptions) document.Document {
	derived := opts.derived()

	merged := make(map[string]interface{}, len(current)+len(upd.Fields))
	for k, v := range current {
		if _, ok := derived[k]; ok {
			continue
		}
		merged[k] = copyValue(v)
	}

	overlay := make(map[string]interface{}, len(upd.Fields))
	for k, v := range upd.Fields {
		if _, ok := derived[k]; ok {
			continue
		}
		overlay[k] = v
	}
	return document.Document(mergemap.Merge(merged, overlay))
}

// copyValue copies nested objects so that merging never writes into the
// current document.
func copyValue(v interface{}) interface{} {
	m, ok := v.(map[string]interface{})
	if !ok {
		return v
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

// WithAvailability stamps the release and expiration dates on a document
// that has none. A zero release means the epoch and a zero expiration
// means five hundred years after now.
func WithAvailability(doc document.Document, release, expire, now time.Time) document.Document {
	out := doc.Clone()
	if out == nil {
		out = document.Document{}
	}
	if release.IsZero() {
		release = time.Unix(0, 0)
	}
	if expire.IsZero() {
		expire = now.AddDate(500, 0, 0)
	}
	if !out.Has(document.FieldRelease) {
		out[document.FieldRelease] = release.UTC().Format(search.DateFormat)
	}
	if !out.Has(document.FieldExpired) {
		out[document.FieldExpired] = expire.UTC().Format(search.DateFormat)
	}
	return out
}
