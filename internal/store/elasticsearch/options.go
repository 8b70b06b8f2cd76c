package elasticsearch

import (
	"github.com/elastic/go-elasticsearch/v7"

	"github.com/goto/vfsearch/pkg/statsd"
)

type ClientOption func(*Client)

func WithClient(cli *elasticsearch.Client) ClientOption {
	return func(c *Client) {
		c.client = cli
	}
}

// WithStatsDReporter publishes operation timings to statsd.
func WithStatsDReporter(reporter *statsd.Reporter) ClientOption {
	return func(c *Client) {
		c.statsd = reporter
	}
}
