package indexing

import (
	"context"

	"github.com/goto/salt/log"
	"github.com/oklog/ulid/v2"

	"github.com/goto/vfsearch/core/document"
)

// Backend is the write side of the engine.
type Backend interface {
	Submit(ctx context.Context, docs []document.Document) error
	DeleteByID(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	Optimize(ctx context.Context) error
	Commit(ctx context.Context) error
	FetchDocument(ctx context.Context, id string) (document.Document, error)
}

// Writer buffers added documents and sends them in batches. Deletes and
// optimizations go straight to the backend.
//
// A Writer is not safe for concurrent use. Each goroutine that writes to
// an index must get its own writer from Service.NewWriter.
type Writer struct {
	id        string
	backend   Backend
	batchSize int
	logger    log.Logger

	buffer []document.Document
	dirty  bool
}

func newWriter(backend Backend, batchSize int, logger log.Logger) *Writer {
	return &Writer{
		id:        ulid.Make().String(),
		backend:   backend,
		batchSize: batchSize,
		logger:    logger,
	}
}

// ID identifies the writer session in logs.
func (w *Writer) ID() string { return w.id }

// Dirty reports whether anything changed since the last commit.
func (w *Writer) Dirty() bool { return w.dirty }

// Pending returns the number of buffered documents.
func (w *Writer) Pending() int { return len(w.buffer) }

// AddDocument buffers doc and flushes the buffer once it grows past the
// batch size.
func (w *Writer) AddDocument(ctx context.Context, doc document.Document) error {
	if doc == nil {
		return document.ErrNilDocument
	}
	if doc.ID() == "" {
		return document.ErrEmptyID
	}

	w.buffer = append(w.buffer, doc)
	w.dirty = true
	if len(w.buffer) > w.batchSize {
		return w.flush(ctx)
	}
	return nil
}

func (w *Writer) DeleteDocument(ctx context.Context, id string) error {
	if id == "" {
		return document.ErrEmptyID
	}
	w.dirty = true
	return w.backend.DeleteByID(ctx, id)
}

func (w *Writer) DeleteAll(ctx context.Context) error {
	w.dirty = true
	return w.backend.DeleteAll(ctx)
}

func (w *Writer) Optimize(ctx context.Context) error {
	w.dirty = true
	return w.backend.Optimize(ctx)
}

// Commit flushes buffered documents and commits. It does nothing when
// the writer is idle. On failure the writer stays dirty and keeps the
// documents that were not sent.
func (w *Writer) Commit(ctx context.Context) error {
	if !w.dirty {
		return nil
	}
	if err := w.flush(ctx); err != nil {
		return err
	}
	if err := w.backend.Commit(ctx); err != nil {
		return err
	}
	w.dirty = false
	w.logger.Debug("writer committed", "writer", w.id)
	return nil
}

// Close releases the writer. It does not commit: buffered documents are
// dropped.
func (w *Writer) Close() error {
	if w.dirty {
		w.logger.Warn("closing uncommitted writer", "writer", w.id, "dropped", len(w.buffer))
	}
	w.buffer = nil
	return nil
}

func (w *Writer) flush(ctx context.Context) error {
	if len(w.buffer) == 0 {
		return nil
	}
	if err := w.backend.Submit(ctx, w.buffer); err != nil {
		return err
	}
	w.logger.Debug("writer flushed", "writer", w.id, "documents", len(w.buffer))
	w.buffer = nil
	return nil
}
