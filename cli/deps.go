package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goto/salt/log"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/goto/vfsearch/core/indexing"
	"github.com/goto/vfsearch/core/resource"
	"github.com/goto/vfsearch/core/search"
	esStore "github.com/goto/vfsearch/internal/store/elasticsearch"
	"github.com/goto/vfsearch/internal/store/postgres"
	"github.com/goto/vfsearch/pkg/statsd"
	"github.com/goto/vfsearch/pkg/telemetry"
)

// deps holds the clients a command needs. Close releases all of them.
type deps struct {
	cfg    *Config
	logger log.Logger
	nrApp  *newrelic.Application

	es    *esStore.Client
	index *esStore.IndexRepository
	pg    *postgres.Client

	closers []func()
}

type depsOption struct {
	engine   bool
	database bool
}

func initDeps(ctx context.Context, cfg *Config, opt depsOption) (d *deps, err error) {
	logger := initLogger(cfg.LogLevel)
	d = &deps{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			d.Close()
		}
	}()

	cfg.Telemetry.AppVersion = Version
	nrApp, cleanUp, err := telemetry.Init(ctx, cfg.Telemetry, logger)
	if err != nil {
		return d, err
	}
	d.nrApp = nrApp
	d.closers = append(d.closers, cleanUp)

	if opt.engine {
		reporter, err := statsd.Init(logger, cfg.StatsD)
		if err != nil {
			return d, fmt.Errorf("init statsd: %w", err)
		}
		d.closers = append(d.closers, reporter.Close)

		d.es, err = initElasticsearch(logger, cfg.Elasticsearch, reporter)
		if err != nil {
			return d, err
		}
		d.index = esStore.NewIndexRepository(d.es, cfg.Index.Name)
	}

	if opt.database {
		d.pg, err = initPostgres(logger, cfg)
		if err != nil {
			return d, err
		}
		pg := d.pg
		d.closers = append(d.closers, func() {
			if err := pg.Close(); err != nil {
				logger.Error("close postgres client", "err", err)
			}
		})
	}

	return d, nil
}

// Close runs the cleanups in reverse order of acquisition.
func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}

func (d *deps) resources() (*postgres.ResourceRepository, error) {
	if d.pg == nil {
		return nil, fmt.Errorf("content repository database is not configured")
	}
	return postgres.NewResourceRepository(d.pg)
}

func (d *deps) searchService() (*search.Service, error) {
	var permissions search.PermissionResolver
	if d.cfg.Index.CheckPermissions && d.pg != nil {
		repo, err := d.resources()
		if err != nil {
			return nil, err
		}
		permissions = resource.NewPermissionChecker(repo, time.Now)
	}
	return search.NewService(d.cfg.Index, d.index, permissions, d.logger)
}

func (d *deps) indexingService() (*indexing.Service, error) {
	return indexing.NewService(d.cfg.Index, d.index, d.logger)
}

func initLogger(logLevel string) *log.Logrus {
	logger := log.NewLogrus(
		log.LogrusWithLevel(logLevel),
		log.LogrusWithWriter(os.Stdout),
	)
	return logger
}

func initElasticsearch(logger log.Logger, config esStore.Config, reporter *statsd.Reporter) (*esStore.Client, error) {
	esClient, err := esStore.NewClient(logger, config, esStore.WithStatsDReporter(reporter))
	if err != nil {
		return nil, fmt.Errorf("create new elasticsearch client: %w", err)
	}
	got, err := esClient.Init()
	if err != nil {
		return nil, fmt.Errorf("establish connection to elasticsearch: %w", err)
	}
	logger.Debug("connected to elasticsearch", "info", got)
	return esClient, nil
}

func initPostgres(logger log.Logger, config *Config) (*postgres.Client, error) {
	pgClient, err := postgres.NewClient(config.DB)
	if err != nil {
		return nil, fmt.Errorf("error creating postgres client: %w", err)
	}
	logger.Debug("connected to postgres server", "host", config.DB.Host, "port", config.DB.Port)

	return pgClient, nil
}
