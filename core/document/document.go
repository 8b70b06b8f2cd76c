package document

import (
	"fmt"
	"time"
)

// Field names shared by the indexer, the search pipeline and the
// engine mapping.
const (
	FieldID            = "id"
	FieldScore         = "score"
	FieldPath          = "path"
	FieldType          = "type"
	FieldCategory      = "category"
	FieldParentFolders = "parent-folders"
	FieldContent       = "content"
	FieldTitle         = "title"
	FieldCreated       = "created"
	FieldLastModified  = "lastmodified"
	FieldRelease       = "release"
	FieldExpired       = "expired"

	// FieldNGramContent is populated by the engine from FieldContent
	// through a copy_to mapping. Resubmitting it fails the mapping.
	FieldNGramContent = "ngramcontent"
)

// Document is a single engine document. Values are whatever the engine
// returned for the field: strings, numbers, bools or slices of those.
type Document map[string]interface{}

// ID returns the unique key of the document or an empty string.
func (d Document) ID() string {
	return d.String(FieldID)
}

// String returns the field value as a string. Slices yield their first
// element. Missing fields yield an empty string.
func (d Document) String(field string) string {
	v, ok := d[field]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case []interface{}:
		if len(val) == 0 {
			return ""
		}
		return fmt.Sprint(val[0])
	case []string:
		if len(val) == 0 {
			return ""
		}
		return val[0]
	default:
		return fmt.Sprint(val)
	}
}

// Has reports whether the field is present with a non-nil value.
func (d Document) Has(field string) bool {
	v, ok := d[field]
	return ok && v != nil
}

// Time parses a date field. Engine dates come back either as RFC 3339
// strings or as epoch milliseconds.
func (d Document) Time(field string) (time.Time, bool) {
	v, ok := d[field]
	if !ok || v == nil {
		return time.Time{}, false
	}
	switch val := v.(type) {
	case time.Time:
		return val.UTC(), true
	case string:
		t, err := time.Parse(time.RFC3339Nano, val)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	case float64:
		return time.UnixMilli(int64(val)).UTC(), true
	case int64:
		return time.UnixMilli(val).UTC(), true
	case int:
		return time.UnixMilli(int64(val)).UTC(), true
	}
	return time.Time{}, false
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
