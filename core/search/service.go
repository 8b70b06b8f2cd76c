package search

import (
	"context"
	"fmt"
	"time"

	"github.com/goto/salt/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/goto/vfsearch/core/document"
	"github.com/goto/vfsearch/core/user"
)

// Service runs searches against one index: it translates a request, runs
// it on the engine and reconciles the hits with the reader's permissions.
type Service struct {
	cfg         IndexConfig
	strategy    QueryStrategy
	engine      Engine
	permissions PermissionResolver
	logger      log.Logger
	clock       func() time.Time

	searchOpCounter metric.Int64Counter
}

type ServiceOption func(*Service)

// WithClock overrides the wall clock used for availability filters.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithQueryStrategy overrides the strategy selected by the index
// configuration.
func WithQueryStrategy(strategy QueryStrategy) ServiceOption {
	return func(s *Service) {
		s.strategy = strategy
	}
}

func NewService(cfg IndexConfig, engine Engine, permissions PermissionResolver, logger log.Logger, opts ...ServiceOption) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if engine == nil {
		return nil, fmt.Errorf("%w: engine is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = log.NewNoop()
	}

	strategy, err := NewQueryStrategy(cfg)
	if err != nil {
		return nil, err
	}

	searchOpCounter, err := otel.Meter("github.com/goto/vfsearch/core/search").
		Int64Counter("vfsearch.search.operation")
	if err != nil {
		otel.Handle(err)
	}

	s := &Service{
		cfg:         cfg,
		strategy:    strategy,
		engine:      engine,
		permissions: permissions,
		logger:      logger,
		clock:       time.Now,

		searchOpCounter: searchOpCounter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Search runs req on behalf of the reader carried by ctx.
func (s *Service) Search(ctx context.Context, req Request) (page Page, err error) {
	defer func() { s.instrumentSearchOp(ctx, "search", err) }()

	usr := user.FromContext(ctx)
	q, err := s.BuildQuery(usr, req)
	if err != nil {
		return Page{}, err
	}

	resp, err := s.engine.Execute(ctx, q)
	if err != nil {
		return Page{}, fmt.Errorf("search index %q: %w", s.cfg.Name, err)
	}

	win := ComputeWindow(resp.TotalHits, req.Page, req.PageSize)
	rec := Reconciler{
		Mode:             s.cfg.PagingMode(),
		CheckPermissions: s.cfg.CheckPermissions,
		Permissions:      s.permissions,
		Logger:           s.logger,
	}
	page = rec.Reconcile(ctx, usr, resp, win)

	s.logger.Debug("search completed",
		"index", s.cfg.Name,
		"hits", resp.TotalHits,
		"visible", page.Total,
		"returned", len(page.Entries),
	)
	return page, nil
}

// BuildQuery assembles the engine query for a request without running it.
func (s *Service) BuildQuery(usr user.User, req Request) (EngineQuery, error) {
	q, err := s.strategy.Build(req)
	if err != nil {
		return EngineQuery{}, err
	}

	filters := []string{PathFilter(usr, req.Roots)}
	filters = append(filters, CategoryFilters(req.Categories)...)
	filters = append(filters, ResourceTypeFilters(req.ResourceTypes)...)
	if f, ok := DateRangeFilter(document.FieldCreated, req.Created); ok {
		filters = append(filters, f)
	}
	if f, ok := DateRangeFilter(document.FieldLastModified, req.LastModified); ok {
		filters = append(filters, f)
	}
	if s.cfg.AvailabilityInEngine {
		now := usr.Now(s.clock)
		filters = append(filters, ReleaseFilter(now), ExpiredFilter(now))
	}
	for _, fc := range req.Filters {
		filters = append(filters, fc.String())
	}

	from, size := RowRange(s.cfg.PagingMode(), req, s.cfg.RowCap)
	return EngineQuery{
		Text:           q.Text,
		WeightedFields: q.WeightedFields,
		Filters:        filters,
		Sort:           req.Sort,
		From:           from,
		Size:           size,
		HandlerType:    req.HandlerType,
		Highlight:      s.cfg.Highlight,
		FacetFields:    req.FacetFields,
	}, nil
}

// GetDocumentByPath returns the indexed document of a root path.
func (s *Service) GetDocumentByPath(ctx context.Context, path string) (doc document.Document, err error) {
	defer func() { s.instrumentSearchOp(ctx, "get_document", err) }()

	if path == "" {
		return nil, document.ErrEmptyID
	}
	return s.engine.FetchDocument(ctx, path)
}

func (s *Service) instrumentSearchOp(ctx context.Context, op string, err error) {
	if s.searchOpCounter == nil {
		return
	}
	s.searchOpCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("vfsearch.search_operation", op),
		attribute.String("vfsearch.index", s.cfg.Name),
		attribute.Bool("operation.success", err == nil),
	))
}
