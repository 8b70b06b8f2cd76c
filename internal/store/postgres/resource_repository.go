package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/goto/vfsearch/core/resource"
)

const (
	resourcesTable     = "resources"
	resourceTypesTable = "resource_types"
)

var resourceColumns = []string{
	"id", "path", "type", "title", "content", "categories", "readers",
	"deleted", "release", "expire", columnNameCreatedAt, columnNameUpdatedAt,
}

// ResourceRepository stores the resources of the content repository.
type ResourceRepository struct {
	client *Client
}

func NewResourceRepository(c *Client) (*ResourceRepository, error) {
	if c == nil {
		return nil, errNilPostgresClient
	}
	return &ResourceRepository{client: c}, nil
}

func (r *ResourceRepository) GetByPath(ctx context.Context, path string) (resource.Resource, error) {
	if path == "" {
		return resource.Resource{}, resource.ErrEmptyPath
	}

	query, args, err := sq.Select(resourceColumns...).From(resourcesTable).
		Where(sq.Eq{"path": path}).
		PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return resource.Resource{}, fmt.Errorf("build get resource query: %w", err)
	}

	var m ResourceModel
	if err := r.client.GetContext(ctx, &m, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return resource.Resource{}, resource.NotFoundError{Path: path}
		}
		return resource.Resource{}, fmt.Errorf("get resource %q: %w", path, err)
	}
	return m.toResource(), nil
}

// GetAll lists resources ordered by path.
func (r *ResourceRepository) GetAll(ctx context.Context, flt resource.Filter) ([]resource.Resource, error) {
	builder := sq.Select(resourceColumns...).From(resourcesTable).OrderBy("path")
	if len(flt.Types) > 0 {
		builder = builder.Where(sq.Eq{"type": flt.Types})
	}
	if flt.PathPrefix != "" {
		builder = builder.Where(sq.Like{"path": escapeLike(flt.PathPrefix) + "%"})
	}
	if !flt.IncludeDeleted {
		builder = builder.Where(sq.Eq{"deleted": false})
	}
	size := flt.Size
	if size <= 0 {
		size = DefaultMaxResultSize
	}
	builder = builder.Limit(uint64(size))
	if flt.Offset > 0 {
		builder = builder.Offset(uint64(flt.Offset))
	}

	query, args, err := builder.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list resources query: %w", err)
	}

	var ms []ResourceModel
	if err := r.client.SelectContext(ctx, &ms, query, args...); err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	resources := make([]resource.Resource, 0, len(ms))
	for _, m := range ms {
		resources = append(resources, m.toResource())
	}
	return resources, nil
}

// Upsert inserts the resource or replaces the row with the same path, and
// returns the row id. A replaced row keeps its id. An upserted resource is
// never deleted.
func (r *ResourceRepository) Upsert(ctx context.Context, res resource.Resource) (string, error) {
	if res.Path == "" {
		return "", resource.ErrEmptyPath
	}
	if !strings.HasPrefix(res.Path, "/") {
		return "", resource.InvalidError{Path: res.Path}
	}
	if res.Type == "" {
		return "", resource.ErrEmptyType
	}

	query, args, err := sq.Insert(resourcesTable).
		Columns("id", "path", "type", "title", "content", "categories", "readers", "deleted", "release", "expire").
		Values(uuid.NewString(), res.Path, res.Type, res.Title, res.Content, stringArray(res.Categories), stringArray(res.Readers),
			false, nullTime(res.Release), nullTime(res.Expire)).
		Suffix(`ON CONFLICT (path) DO UPDATE SET
			type = EXCLUDED.type,
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			categories = EXCLUDED.categories,
			readers = EXCLUDED.readers,
			deleted = false,
			release = EXCLUDED.release,
			expire = EXCLUDED.expire,
			updated_at = NOW()
		RETURNING id`).
		PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return "", fmt.Errorf("build upsert resource query: %w", err)
	}

	var id string
	if err := r.client.GetContext(ctx, &id, query, args...); err != nil {
		err = checkPostgresError(err)
		if errors.Is(err, errForeignKeyViolation) {
			return "", fmt.Errorf("unknown resource type %q: %w", res.Type, err)
		}
		if errors.Is(err, errCheckViolation) {
			return "", resource.InvalidError{Path: res.Path}
		}
		return "", fmt.Errorf("upsert resource %q: %w", res.Path, err)
	}
	return id, nil
}

// DeleteByPath marks the resource deleted. The row is kept so that the
// index can still be told about the deletion.
func (r *ResourceRepository) DeleteByPath(ctx context.Context, path string) error {
	if path == "" {
		return resource.ErrEmptyPath
	}

	query, args, err := sq.Update(resourcesTable).
		Set("deleted", true).
		Set(columnNameUpdatedAt, sq.Expr("NOW()")).
		Where(sq.Eq{"path": path}).
		PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("build delete resource query: %w", err)
	}

	res, err := r.client.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete resource %q: %w", path, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete resource %q: %w", path, err)
	}
	if affected == 0 {
		return resource.NotFoundError{Path: path}
	}
	return nil
}

func (r *ResourceRepository) HasType(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, resource.ErrEmptyType
	}

	query, args, err := sq.Select("1").From(resourceTypesTable).
		Where(sq.Eq{"name": name}).
		Prefix("SELECT EXISTS (").Suffix(")").
		PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return false, fmt.Errorf("build resource type query: %w", err)
	}

	var exists bool
	if err := r.client.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("check resource type %q: %w", name, err)
	}
	return exists, nil
}

func (r *ResourceRepository) RegisterType(ctx context.Context, name string) error {
	if name == "" {
		return resource.ErrEmptyType
	}

	query, args, err := sq.Insert(resourceTypesTable).Columns("name").Values(name).
		Suffix("ON CONFLICT (name) DO NOTHING").
		PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("build register resource type query: %w", err)
	}

	if _, err := r.client.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("register resource type %q: %w", name, err)
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
