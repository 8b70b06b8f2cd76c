package resource

import (
	"context"
	"time"

	"github.com/goto/vfsearch/core/document"
	"github.com/goto/vfsearch/core/search"
	"github.com/goto/vfsearch/core/user"
)

// Resource is an entry of the content repository that gets indexed.
type Resource struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Categories []string  `json:"categories"`
	Readers    []string  `json:"readers"`
	Deleted    bool      `json:"deleted"`
	Release    time.Time `json:"release"`
	Expire     time.Time `json:"expire"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Readable reports whether usr may read the resource. A resource without
// readers is public.
func (r Resource) Readable(usr user.User) bool {
	if len(r.Readers) == 0 {
		return true
	}
	for _, p := range r.Readers {
		if usr.Member(p) {
			return true
		}
	}
	return false
}

// Available reports whether the resource is released and not expired at
// the given instant.
func (r Resource) Available(at time.Time) bool {
	if !r.Release.IsZero() && r.Release.After(at) {
		return false
	}
	if !r.Expire.IsZero() && !r.Expire.After(at) {
		return false
	}
	return true
}

// Document returns the engine document indexing the resource.
func (r Resource) Document() document.Document {
	doc := document.Document{
		document.FieldID:            r.Path,
		document.FieldPath:          r.Path,
		document.FieldType:          r.Type,
		document.FieldParentFolders: ParentFolders(r.Path),
	}
	if r.Title != "" {
		doc[document.FieldTitle] = r.Title
	}
	if r.Content != "" {
		doc[document.FieldContent] = r.Content
	}
	if len(r.Categories) > 0 {
		doc[document.FieldCategory] = append([]string(nil), r.Categories...)
	}
	setTime(doc, document.FieldCreated, r.CreatedAt)
	setTime(doc, document.FieldLastModified, r.UpdatedAt)
	setTime(doc, document.FieldRelease, r.Release)
	setTime(doc, document.FieldExpired, r.Expire)
	return doc
}

func setTime(doc document.Document, field string, t time.Time) {
	if !t.IsZero() {
		doc[field] = t.UTC().Format(search.DateFormat)
	}
}

// ParentFolders lists every folder above path, each with a trailing slash.
func ParentFolders(path string) []string {
	folders := []string{"/"}
	for i := 1; i < len(path); i++ {
		if path[i] == '/' {
			folders = append(folders, path[:i+1])
		}
	}
	return folders
}

type Repository interface {
	GetByPath(ctx context.Context, path string) (Resource, error)
	GetAll(ctx context.Context, flt Filter) ([]Resource, error)
	Upsert(ctx context.Context, r Resource) (string, error)
	DeleteByPath(ctx context.Context, path string) error
	HasType(ctx context.Context, name string) (bool, error)
	RegisterType(ctx context.Context, name string) error
}

// Filter narrows GetAll.
type Filter struct {
	Types          []string
	PathPrefix     string
	IncludeDeleted bool
	Size           int
	Offset         int
}
