package indexing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goto/salt/log"
	"github.com/r3labs/diff/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/goto/vfsearch/core/document"
	"github.com/goto/vfsearch/core/search"
)

// UpdateReport lists what happened to each update of a batch.
type UpdateReport struct {
	Applied   []string `json:"applied"`
	Unchanged []string `json:"unchanged"`
	Skipped   []string `json:"skipped"`
}

type Service struct {
	cfg     search.IndexConfig
	backend Backend
	logger  log.Logger
	clock   func() time.Time

	indexOpCounter metric.Int64Counter
}

type ServiceOption func(*Service)

func WithClock(clock func() time.Time) ServiceOption {
	return func(s *Service) {
		s.clock = clock
	}
}

func NewService(cfg search.IndexConfig, backend Backend, logger log.Logger, opts ...ServiceOption) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, fmt.Errorf("%w: backend is required", search.ErrInvalidConfig)
	}
	if logger == nil {
		logger = log.NewNoop()
	}

	indexOpCounter, err := otel.Meter("github.com/goto/vfsearch/core/indexing").
		Int64Counter("vfsearch.index.operation")
	if err != nil {
		otel.Handle(err)
	}

	s := &Service{
		cfg:     cfg,
		backend: backend,
		logger:  logger,
		clock:   time.Now,

		indexOpCounter: indexOpCounter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewWriter starts a writer session. The caller owns it and must commit
// before closing it.
func (s *Service) NewWriter() *Writer {
	return newWriter(s.backend, s.cfg.BatchSize, s.logger)
}

// ApplyUpdate merges upd into the indexed document and commits it. A
// missing document is reported as a document.NotFoundError.
func (s *Service) ApplyUpdate(ctx context.Context, upd PendingUpdate) (err error) {
	defer func() { s.instrumentIndexOp(ctx, "apply_update", err) }()

	merged, changed, err := s.merge(ctx, upd)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	w := s.NewWriter()
	defer w.Close()
	if err := w.AddDocument(ctx, merged); err != nil {
		return err
	}
	return w.Commit(ctx)
}

// ApplyUpdates merges a batch of updates and commits once. Updates of
// documents that are not indexed are skipped.
func (s *Service) ApplyUpdates(ctx context.Context, upds []PendingUpdate) (report UpdateReport, err error) {
	defer func() { s.instrumentIndexOp(ctx, "apply_updates", err) }()

	w := s.NewWriter()
	defer w.Close()

	for _, upd := range upds {
		merged, changed, err := s.merge(ctx, upd)
		if err != nil {
			if errors.As(err, &document.NotFoundError{}) {
				s.logger.Warn("skipping update of missing document", "id", upd.ID, "writer", w.ID())
				report.Skipped = append(report.Skipped, upd.ID)
				continue
			}
			return report, err
		}
		if !changed {
			report.Unchanged = append(report.Unchanged, upd.ID)
			continue
		}
		if err := w.AddDocument(ctx, merged); err != nil {
			return report, err
		}
		report.Applied = append(report.Applied, upd.ID)
	}

	if err := w.Commit(ctx); err != nil {
		return report, err
	}
	return report, nil
}

func (s *Service) merge(ctx context.Context, upd PendingUpdate) (document.Document, bool, error) {
	if upd.ID == "" {
		return nil, false, document.ErrEmptyID
	}
	current, err := s.backend.FetchDocument(ctx, upd.ID)
	if err != nil {
		return nil, false, err
	}
	if current == nil {
		return nil, false, document.NotFoundError{ID: upd.ID}
	}

	opts := MergeOptions{DerivedFields: s.cfg.DerivedFields}
	merged := Merge(upd, current, opts)

	changes, err := diff.Diff(map[string]interface{}(Merge(PendingUpdate{}, current, opts)), map[string]interface{}(merged))
	if err != nil {
		// an undiffable value is resubmitted
		s.logger.Debug("diff failed", "id", upd.ID, "err", err)
		return merged, true, nil
	}
	return merged, len(changes) > 0, nil
}

// AddDocument indexes doc and commits.
func (s *Service) AddDocument(ctx context.Context, doc document.Document) error {
	return s.AddDocuments(ctx, []document.Document{doc})
}

// AddDocuments indexes docs and commits once.
func (s *Service) AddDocuments(ctx context.Context, docs []document.Document) (err error) {
	defer func() { s.instrumentIndexOp(ctx, "add_documents", err) }()

	w := s.NewWriter()
	defer w.Close()
	if err := s.add(ctx, w, docs); err != nil {
		return err
	}
	return w.Commit(ctx)
}

// DeleteDocument removes a document and commits.
func (s *Service) DeleteDocument(ctx context.Context, id string) (err error) {
	defer func() { s.instrumentIndexOp(ctx, "delete_document", err) }()

	w := s.NewWriter()
	defer w.Close()
	if err := w.DeleteDocument(ctx, id); err != nil {
		return err
	}
	return w.Commit(ctx)
}

// Rebuild replaces the whole content of the index with docs.
func (s *Service) Rebuild(ctx context.Context, docs []document.Document) (err error) {
	defer func() { s.instrumentIndexOp(ctx, "rebuild", err) }()

	w := s.NewWriter()
	defer w.Close()

	s.logger.Info("rebuilding index", "index", s.cfg.Name, "documents", len(docs), "writer", w.ID())
	if err := w.DeleteAll(ctx); err != nil {
		return err
	}
	if err := s.add(ctx, w, docs); err != nil {
		return err
	}
	if err := w.Commit(ctx); err != nil {
		return err
	}
	if err := w.Optimize(ctx); err != nil {
		return err
	}
	return w.Commit(ctx)
}

func (s *Service) add(ctx context.Context, w *Writer, docs []document.Document) error {
	now := s.clock()
	for _, doc := range docs {
		if err := w.AddDocument(ctx, WithAvailability(doc, time.Time{}, time.Time{}, now)); err != nil {
			return fmt.Errorf("add document %q: %w", doc.ID(), err)
		}
	}
	return nil
}

func (s *Service) instrumentIndexOp(ctx context.Context, op string, err error) {
	if s.indexOpCounter == nil {
		return
	}
	s.indexOpCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("vfsearch.index_operation", op),
		attribute.String("vfsearch.index", s.cfg.Name),
		attribute.Bool("operation.success", err == nil),
	))
}
