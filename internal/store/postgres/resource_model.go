package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/goto/vfsearch/core/resource"
)

type ResourceModel struct {
	ID         string         `db:"id"`
	Path       string         `db:"path"`
	Type       string         `db:"type"`
	Title      string         `db:"title"`
	Content    string         `db:"content"`
	Categories pq.StringArray `db:"categories"`
	Readers    pq.StringArray `db:"readers"`
	Deleted    bool           `db:"deleted"`
	Release    sql.NullTime   `db:"release"`
	Expire     sql.NullTime   `db:"expire"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func (m ResourceModel) toResource() resource.Resource {
	r := resource.Resource{
		ID:         m.ID,
		Path:       m.Path,
		Type:       m.Type,
		Title:      m.Title,
		Content:    m.Content,
		Categories: []string(m.Categories),
		Readers:    []string(m.Readers),
		Deleted:    m.Deleted,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.Release.Valid {
		r.Release = m.Release.Time
	}
	if m.Expire.Valid {
		r.Expire = m.Expire.Time
	}
	return r
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func stringArray(s []string) pq.StringArray {
	if s == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(s)
}
