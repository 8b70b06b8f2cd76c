package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/goto/salt/log"
	"github.com/stretchr/testify/suite"

	"github.com/goto/vfsearch/core/resource"
	"github.com/goto/vfsearch/internal/store/postgres"
	"github.com/goto/vfsearch/internal/testutils"
)

type ResourceRepositoryTestSuite struct {
	suite.Suite
	ctx        context.Context
	client     *postgres.Client
	repository *postgres.ResourceRepository
}

func (r *ResourceRepositoryTestSuite) SetupSuite() {
	var err error
	r.client, err = newTestClient(r.T(), log.NewNoop())
	if err != nil {
		r.T().Fatal(err)
	}

	r.ctx = context.TODO()
	r.repository, err = postgres.NewResourceRepository(r.client)
	if err != nil {
		r.T().Fatal(err)
	}
}

func (r *ResourceRepositoryTestSuite) SetupTest() {
	err := r.client.ExecQueries(r.ctx, []string{
		"TRUNCATE TABLE resources, resource_types CASCADE",
	})
	r.Require().NoError(err)
	r.Require().NoError(r.repository.RegisterType(r.ctx, "article"))
}

func (r *ResourceRepositoryTestSuite) TestNewResourceRepository() {
	_, err := postgres.NewResourceRepository(nil)
	r.Error(err)
}

func (r *ResourceRepositoryTestSuite) TestRegisterType() {
	r.Run("should be idempotent", func() {
		r.NoError(r.repository.RegisterType(r.ctx, "article"))
		ok, err := r.repository.HasType(r.ctx, "article")
		r.NoError(err)
		r.True(ok)
	})

	r.Run("should report unknown type", func() {
		ok, err := r.repository.HasType(r.ctx, "folder")
		r.NoError(err)
		r.False(ok)
	})

	r.Run("should reject empty name", func() {
		r.ErrorIs(r.repository.RegisterType(r.ctx, ""), resource.ErrEmptyType)
		_, err := r.repository.HasType(r.ctx, "")
		r.ErrorIs(err, resource.ErrEmptyType)
	})
}

func (r *ResourceRepositoryTestSuite) TestUpsert() {
	release := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	r.Run("should insert and read back a resource", func() {
		id, err := r.repository.Upsert(r.ctx, resource.Resource{
			Path:       "/sites/a/news.html",
			Type:       "article",
			Title:      "News",
			Content:    "hello world",
			Categories: []string{"/news/"},
			Readers:    []string{"staff"},
			Release:    release,
		})
		r.Require().NoError(err)
		r.NotEmpty(id)

		got, err := r.repository.GetByPath(r.ctx, "/sites/a/news.html")
		r.Require().NoError(err)
		r.Equal(id, got.ID)
		r.Equal("News", got.Title)
		r.Equal([]string{"/news/"}, got.Categories)
		r.Equal([]string{"staff"}, got.Readers)
		r.True(release.Equal(got.Release))
		r.True(got.Expire.IsZero())
		r.False(got.Deleted)
	})

	r.Run("should update the row with the same path", func() {
		first, err := r.repository.Upsert(r.ctx, resource.Resource{Path: "/x.html", Type: "article", Title: "one"})
		r.Require().NoError(err)
		r.Require().NoError(r.repository.DeleteByPath(r.ctx, "/x.html"))

		second, err := r.repository.Upsert(r.ctx, resource.Resource{Path: "/x.html", Type: "article", Title: "two"})
		r.Require().NoError(err)
		r.Equal(first, second)

		got, err := r.repository.GetByPath(r.ctx, "/x.html")
		r.Require().NoError(err)
		r.Equal("two", got.Title)
		r.False(got.Deleted)
	})

	r.Run("should reject an unregistered type", func() {
		_, err := r.repository.Upsert(r.ctx, resource.Resource{Path: "/y.html", Type: "folder"})
		r.Error(err)
	})

	r.Run("should validate path and type", func() {
		_, err := r.repository.Upsert(r.ctx, resource.Resource{Type: "article"})
		r.ErrorIs(err, resource.ErrEmptyPath)
		_, err = r.repository.Upsert(r.ctx, resource.Resource{Path: "relative.html", Type: "article"})
		r.ErrorAs(err, &resource.InvalidError{})
		_, err = r.repository.Upsert(r.ctx, resource.Resource{Path: "/z.html"})
		r.ErrorIs(err, resource.ErrEmptyType)
	})
}

func (r *ResourceRepositoryTestSuite) TestGetByPath() {
	_, err := r.repository.GetByPath(r.ctx, "/missing.html")
	r.ErrorAs(err, &resource.NotFoundError{})

	_, err = r.repository.GetByPath(r.ctx, "")
	r.ErrorIs(err, resource.ErrEmptyPath)
}

func (r *ResourceRepositoryTestSuite) TestDeleteByPath() {
	r.Run("should soft delete", func() {
		_, err := r.repository.Upsert(r.ctx, resource.Resource{Path: "/gone.html", Type: "article"})
		r.Require().NoError(err)
		r.Require().NoError(r.repository.DeleteByPath(r.ctx, "/gone.html"))

		got, err := r.repository.GetByPath(r.ctx, "/gone.html")
		r.Require().NoError(err)
		r.True(got.Deleted)
	})

	r.Run("should return not found", func() {
		err := r.repository.DeleteByPath(r.ctx, "/never.html")
		r.ErrorAs(err, &resource.NotFoundError{})
	})
}

func (r *ResourceRepositoryTestSuite) TestGetAll() {
	r.Require().NoError(r.repository.RegisterType(r.ctx, "image"))
	for _, res := range []resource.Resource{
		{Path: "/sites/a/1.html", Type: "article"},
		{Path: "/sites/a/2.png", Type: "image"},
		{Path: "/sites/b/3.html", Type: "article"},
		{Path: "/sites/a_b/4.html", Type: "article"},
	} {
		_, err := r.repository.Upsert(r.ctx, res)
		r.Require().NoError(err)
	}
	r.Require().NoError(r.repository.DeleteByPath(r.ctx, "/sites/b/3.html"))

	paths := func(rs []resource.Resource) []string {
		var out []string
		for _, res := range rs {
			out = append(out, res.Path)
		}
		return out
	}

	r.Run("should skip deleted resources by default", func() {
		got, err := r.repository.GetAll(r.ctx, resource.Filter{})
		r.NoError(err)
		r.Equal([]string{"/sites/a/1.html", "/sites/a/2.png", "/sites/a_b/4.html"}, paths(got))
	})

	r.Run("should include deleted resources on request", func() {
		got, err := r.repository.GetAll(r.ctx, resource.Filter{IncludeDeleted: true})
		r.NoError(err)
		r.Len(got, 4)
	})

	r.Run("should filter by type and literal prefix", func() {
		got, err := r.repository.GetAll(r.ctx, resource.Filter{Types: []string{"article"}, PathPrefix: "/sites/a_"})
		r.NoError(err)
		r.Equal([]string{"/sites/a_b/4.html"}, paths(got))
	})

	r.Run("should page", func() {
		got, err := r.repository.GetAll(r.ctx, resource.Filter{Size: 1, Offset: 1})
		r.NoError(err)
		r.Equal([]string{"/sites/a/2.png"}, paths(got))
	})
}

func TestResourceRepository(t *testing.T) {
	testutils.SkipUnlessIntegration(t)
	suite.Run(t, &ResourceRepositoryTestSuite{})
}
