package statsd_test

import (
	"errors"
	"testing"
	"time"

	"github.com/goto/salt/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goto/vfsearch/pkg/statsd"
)

func TestDisabledReporterDropsMetrics(t *testing.T) {
	reporter, err := statsd.Init(log.NewNoop(), statsd.Config{Enabled: false})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		reporter.Timing("es.operation", time.Second).Tag("op", "Search").Success().Publish()
		reporter.Incr("es.operation").Failure(errors.New("boom")).Publish()
		reporter.Close()
	})
}

func TestNilReporterDropsMetrics(t *testing.T) {
	var reporter *statsd.Reporter
	assert.Nil(t, reporter.Histogram("h", 1))
	assert.NotPanics(t, func() {
		reporter.Gauge("g", 1).Tag("k", "v").Publish()
		reporter.Close()
	})
}

func TestEnabledReporter(t *testing.T) {
	reporter, err := statsd.Init(log.NewNoop(), statsd.Config{Enabled: true, Address: "127.0.0.1:8125", Prefix: "vfsearch", SamplingRate: 1})
	require.NoError(t, err)
	defer reporter.Close()

	m := reporter.Timing("es.operation", time.Millisecond)
	require.NotNil(t, m)
	assert.NotPanics(t, func() { m.Tag("op", "Search").Success().Publish() })
}
