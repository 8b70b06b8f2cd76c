package telemetry

import (
	"context"
	"time"

	"github.com/goto/salt/log"
	"github.com/newrelic/go-agent/v3/newrelic"
)

const gracePeriod = 5 * time.Second

type Config struct {
	AppVersion string `yaml:"-" mapstructure:"-"`

	AppName       string              `yaml:"app_name" mapstructure:"app_name" default:"vfsearch"`
	NewRelic      NewRelicConfig      `yaml:"newrelic" mapstructure:"newrelic"`
	OpenTelemetry OpenTelemetryConfig `yaml:"open_telemetry" mapstructure:"open_telemetry"`
}

// Init sets up the global OpenTelemetry providers and the NewRelic
// application. The returned application is nil when NewRelic is disabled.
func Init(ctx context.Context, cfg Config, logger log.Logger) (nrApp *newrelic.Application, cleanUp func(), err error) {
	shutdown, err := initOTLP(ctx, cfg, logger)
	if err != nil {
		return nil, noOp, err
	}

	nrApp, err = initNewRelicMonitor(cfg.AppName, cfg.NewRelic, logger)
	if err != nil {
		shutdown()
		return nil, noOp, err
	}

	return nrApp, func() {
		if nrApp != nil {
			nrApp.Shutdown(gracePeriod)
		}
		shutdown()
	}, nil
}

// StartTransaction attaches a NewRelic transaction to ctx so that engine
// calls made with it are recorded as datastore segments. It is a no-op
// for a nil application.
func StartTransaction(ctx context.Context, app *newrelic.Application, name string) (context.Context, func()) {
	if app == nil {
		return ctx, noOp
	}
	txn := app.StartTransaction(name)
	return newrelic.NewContext(ctx, txn), txn.End
}
