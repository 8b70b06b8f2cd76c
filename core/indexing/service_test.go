package indexing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goto/salt/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/goto/vfsearch/core/document"
	"github.com/goto/vfsearch/core/indexing"
	"github.com/goto/vfsearch/core/indexing/mocks"
	"github.com/goto/vfsearch/core/search"
)

var now = time.Date(2022, 2, 2, 0, 0, 0, 0, time.UTC)

func newService(t *testing.T, backend indexing.Backend) *indexing.Service {
	t.Helper()
	svc, err := indexing.NewService(search.DefaultIndexConfig("idx"), backend, log.NewNoop(), indexing.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return svc
}

func TestNewService(t *testing.T) {
	_, err := indexing.NewService(search.DefaultIndexConfig("idx"), nil, nil)
	assert.ErrorIs(t, err, search.ErrInvalidConfig)

	cfg := search.DefaultIndexConfig("idx")
	cfg.BatchSize = 0
	_, err = indexing.NewService(cfg, new(mocks.Backend), nil)
	assert.ErrorIs(t, err, search.ErrInvalidConfig)
}

func TestApplyUpdate(t *testing.T) {
	ctx := context.Background()
	current := document.Document{"id": "/a.html", "title": "old", "content": "body", "score": 3.0}

	t.Run("should submit the merged document", func(t *testing.T) {
		backend := new(mocks.Backend)
		backend.On("FetchDocument", ctx, "/a.html").Return(current, nil)
		backend.On("Submit", ctx, []document.Document{{"id": "/a.html", "title": "new", "content": "body"}}).Return(nil)
		backend.On("Commit", ctx).Return(nil)

		err := newService(t, backend).ApplyUpdate(ctx, indexing.PendingUpdate{ID: "/a.html", Fields: map[string]interface{}{"title": "new"}})
		require.NoError(t, err)
		backend.AssertExpectations(t)
	})

	t.Run("should not resubmit an unchanged document", func(t *testing.T) {
		backend := new(mocks.Backend)
		backend.On("FetchDocument", ctx, "/a.html").Return(current, nil)

		err := newService(t, backend).ApplyUpdate(ctx, indexing.PendingUpdate{ID: "/a.html", Fields: map[string]interface{}{"title": "old"}})
		require.NoError(t, err)
		backend.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("should report a missing document", func(t *testing.T) {
		backend := new(mocks.Backend)
		backend.On("FetchDocument", ctx, "/missing.html").Return(nil, document.NotFoundError{ID: "/missing.html"})

		err := newService(t, backend).ApplyUpdate(ctx, indexing.PendingUpdate{ID: "/missing.html"})
		assert.ErrorAs(t, err, &document.NotFoundError{})
	})
}

func TestApplyUpdates(t *testing.T) {
	ctx := context.Background()

	t.Run("should skip missing documents and commit once", func(t *testing.T) {
		backend := new(mocks.Backend)
		backend.On("FetchDocument", ctx, "/a.html").Return(document.Document{"id": "/a.html", "title": "a"}, nil)
		backend.On("FetchDocument", ctx, "/b.html").Return(nil, document.NotFoundError{ID: "/b.html"})
		backend.On("FetchDocument", ctx, "/c.html").Return(document.Document{"id": "/c.html", "title": "c"}, nil)
		backend.On("Submit", ctx, []document.Document{{"id": "/a.html", "title": "x"}}).Return(nil).Once()
		backend.On("Commit", ctx).Return(nil).Once()

		report, err := newService(t, backend).ApplyUpdates(ctx, []indexing.PendingUpdate{
			{ID: "/a.html", Fields: map[string]interface{}{"title": "x"}},
			{ID: "/b.html", Fields: map[string]interface{}{"title": "x"}},
			{ID: "/c.html", Fields: map[string]interface{}{"title": "c"}},
		})
		require.NoError(t, err)
		assert.Equal(t, indexing.UpdateReport{
			Applied:   []string{"/a.html"},
			Unchanged: []string{"/c.html"},
			Skipped:   []string{"/b.html"},
		}, report)
		backend.AssertExpectations(t)
	})

	t.Run("should fail the batch on backend errors", func(t *testing.T) {
		backend := new(mocks.Backend)
		backend.On("FetchDocument", ctx, "/a.html").Return(nil, document.BackendError{Op: "Get", Err: errors.New("down")})

		_, err := newService(t, backend).ApplyUpdates(ctx, []indexing.PendingUpdate{{ID: "/a.html"}})
		assert.ErrorAs(t, err, &document.BackendError{})
		backend.AssertNotCalled(t, "Commit", mock.Anything)
	})
}

func TestAddAndDelete(t *testing.T) {
	ctx := context.Background()
	backend := new(mocks.Backend)
	backend.On("Submit", ctx, []document.Document{{
		"id":      "/a.html",
		"release": "1970-01-01T00:00:00.000Z",
		"expired": "2522-02-02T00:00:00.000Z",
	}}).Return(nil).Once()
	backend.On("DeleteByID", ctx, "/a.html").Return(nil).Once()
	backend.On("Commit", ctx).Return(nil).Twice()

	svc := newService(t, backend)
	require.NoError(t, svc.AddDocument(ctx, document.Document{"id": "/a.html"}))
	require.NoError(t, svc.DeleteDocument(ctx, "/a.html"))
	backend.AssertExpectations(t)
}

func TestRebuild(t *testing.T) {
	ctx := context.Background()
	backend := new(mocks.Backend)

	var calls []string
	record := func(name string) func(mock.Arguments) {
		return func(mock.Arguments) { calls = append(calls, name) }
	}
	backend.On("DeleteAll", ctx).Return(nil).Run(record("delete_all"))
	backend.On("Submit", ctx, mock.Anything).Return(nil).Run(record("submit"))
	backend.On("Optimize", ctx).Return(nil).Run(record("optimize"))
	backend.On("Commit", ctx).Return(nil).Run(record("commit"))

	err := newService(t, backend).Rebuild(ctx, []document.Document{{"id": "/a.html"}, {"id": "/b.html"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"delete_all", "submit", "commit", "optimize", "commit"}, calls)
}
