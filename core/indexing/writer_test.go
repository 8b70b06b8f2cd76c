package indexing_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/goto/salt/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/goto/vfsearch/core/document"
	"github.com/goto/vfsearch/core/indexing"
	"github.com/goto/vfsearch/core/indexing/mocks"
	"github.com/goto/vfsearch/core/search"
)

func newWriter(t *testing.T, backend indexing.Backend, batchSize int) *indexing.Writer {
	t.Helper()
	cfg := search.DefaultIndexConfig("idx")
	cfg.BatchSize = batchSize
	svc, err := indexing.NewService(cfg, backend, log.NewNoop())
	require.NoError(t, err)
	return svc.NewWriter()
}

func doc(i int) document.Document {
	return document.Document{"id": fmt.Sprintf("/doc%d.html", i)}
}

func TestWriterBatches(t *testing.T) {
	ctx := context.Background()
	backend := new(mocks.Backend)
	backend.On("Submit", ctx, mock.MatchedBy(func(docs []document.Document) bool { return len(docs) == 3 })).Return(nil).Once()

	w := newWriter(t, backend, 2)
	assert.False(t, w.Dirty())
	assert.NotEmpty(t, w.ID())

	require.NoError(t, w.AddDocument(ctx, doc(1)))
	require.NoError(t, w.AddDocument(ctx, doc(2)))
	assert.Equal(t, 2, w.Pending())
	backend.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)

	require.NoError(t, w.AddDocument(ctx, doc(3)))
	assert.Equal(t, 0, w.Pending())
	assert.True(t, w.Dirty())
	backend.AssertExpectations(t)
}

func TestWriterCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("should do nothing when idle", func(t *testing.T) {
		backend := new(mocks.Backend)
		w := newWriter(t, backend, 20)
		require.NoError(t, w.Commit(ctx))
		backend.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("should flush and commit", func(t *testing.T) {
		backend := new(mocks.Backend)
		backend.On("Submit", ctx, []document.Document{doc(1)}).Return(nil).Once()
		backend.On("Commit", ctx).Return(nil).Once()

		w := newWriter(t, backend, 20)
		require.NoError(t, w.AddDocument(ctx, doc(1)))
		require.NoError(t, w.Commit(ctx))
		assert.False(t, w.Dirty())
		require.NoError(t, w.Commit(ctx))
		backend.AssertExpectations(t)
	})

	t.Run("should stay dirty when the backend fails", func(t *testing.T) {
		backend := new(mocks.Backend)
		backend.On("Submit", ctx, mock.Anything).Return(document.BackendError{Op: "Bulk", Err: errors.New("timeout")}).Once()

		w := newWriter(t, backend, 20)
		require.NoError(t, w.AddDocument(ctx, doc(1)))
		err := w.Commit(ctx)
		assert.ErrorAs(t, err, &document.BackendError{})
		assert.True(t, w.Dirty())
		assert.Equal(t, 1, w.Pending())

		backend.On("Submit", ctx, mock.Anything).Return(nil).Once()
		backend.On("Commit", ctx).Return(errors.New("refresh failed")).Once()
		assert.Error(t, w.Commit(ctx))
		assert.True(t, w.Dirty())
		assert.Equal(t, 0, w.Pending())
	})
}

func TestWriterDirectOperations(t *testing.T) {
	ctx := context.Background()
	backend := new(mocks.Backend)
	backend.On("DeleteByID", ctx, "/a.html").Return(nil)
	backend.On("DeleteAll", ctx).Return(nil)
	backend.On("Optimize", ctx).Return(nil)
	backend.On("Commit", ctx).Return(nil)

	for name, op := range map[string]func(w *indexing.Writer) error{
		"delete":     func(w *indexing.Writer) error { return w.DeleteDocument(ctx, "/a.html") },
		"delete all": func(w *indexing.Writer) error { return w.DeleteAll(ctx) },
		"optimize":   func(w *indexing.Writer) error { return w.Optimize(ctx) },
	} {
		t.Run(name, func(t *testing.T) {
			w := newWriter(t, backend, 20)
			require.NoError(t, op(w))
			assert.True(t, w.Dirty())
			require.NoError(t, w.Commit(ctx))
			assert.False(t, w.Dirty())
		})
	}
	backend.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestWriterRejectsInvalidDocuments(t *testing.T) {
	w := newWriter(t, new(mocks.Backend), 20)
	assert.ErrorIs(t, w.AddDocument(context.Background(), nil), document.ErrNilDocument)
	assert.ErrorIs(t, w.AddDocument(context.Background(), document.Document{"title": "x"}), document.ErrEmptyID)
	assert.ErrorIs(t, w.DeleteDocument(context.Background(), ""), document.ErrEmptyID)
	assert.False(t, w.Dirty())
}

func TestWriterCloseDoesNotCommit(t *testing.T) {
	backend := new(mocks.Backend)
	w := newWriter(t, backend, 20)
	require.NoError(t, w.AddDocument(context.Background(), doc(1)))
	require.NoError(t, w.Close())
	assert.Equal(t, 0, w.Pending())
	backend.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	backend.AssertNotCalled(t, "Commit", mock.Anything)
}
