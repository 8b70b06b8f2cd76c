package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/go-playground/validator/v10"
	"github.com/goto/salt/log"
	"github.com/newrelic/go-agent/v3/integrations/nrelasticsearch-v7"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/goto/vfsearch/core/document"
	"github.com/goto/vfsearch/pkg/statsd"
)

// minServerVersion is the oldest engine the query body and the mapping
// are known to work with.
const minServerVersion = ">= 7.10"

var ErrInvalidBroker = errors.New("invalid elasticsearch broker")

type Config struct {
	Brokers string `yaml:"brokers" mapstructure:"brokers" default:"http://localhost:9200" validate:"required"`
}

var validate = validator.New()

// Addresses returns the validated broker URLs.
func (cfg Config) Addresses() ([]string, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBroker, err)
	}

	var addrs []string
	for _, b := range strings.Split(cfg.Brokers, ",") {
		b = strings.TrimSpace(b)
		if err := validate.Var(b, "required,url"); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidBroker, b)
		}
		u, err := url.Parse(b)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidBroker, b)
		}
		addrs = append(addrs, b)
	}
	return addrs, nil
}

// extract the error type and reason from an elasticsearch response
// returns the raw message as reason in case it fails
func errorCodeAndReason(res *esapi.Response) (code, reason string) {
	var (
		response struct {
			Error json.RawMessage `json:"error"`
		}
		detail struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		}
		copy bytes.Buffer
	)
	reader := io.TeeReader(res.Body, &copy)
	if err := json.NewDecoder(reader).Decode(&response); err != nil || len(response.Error) == 0 {
		return res.Status(), fmt.Sprintf("raw response = %s", copy.String())
	}
	if err := json.Unmarshal(response.Error, &detail); err != nil {
		var msg string
		if json.Unmarshal(response.Error, &msg) == nil {
			return res.Status(), msg
		}
		return res.Status(), string(response.Error)
	}
	return detail.Type, detail.Reason
}

// drainBody discards the remaining body so that the connection can be
// reused.
func drainBody(res *esapi.Response) {
	if res == nil || res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}

// helper for decorating unsuccesful invocations of the es REST API
// (transport errors)
func elasticSearchError(op, index, id string, err error) error {
	return document.BackendError{Op: op, Index: index, ID: id, Err: err}
}

// responseError builds the error of a non successful response.
func responseError(op, index, id string, res *esapi.Response) error {
	code, reason := errorCodeAndReason(res)
	return document.BackendError{Op: op, Index: index, ID: id, ESCode: code, Err: errors.New(reason)}
}

type Client struct {
	client *elasticsearch.Client
	logger log.Logger
	statsd *statsd.Reporter

	opDuration metric.Int64Histogram
}

func NewClient(logger log.Logger, config Config, opts ...ClientOption) (*Client, error) {
	if logger == nil {
		logger = log.NewNoop()
	}

	opDuration, err := otel.Meter("github.com/goto/vfsearch/internal/store/elasticsearch").
		Int64Histogram("vfsearch.es.operation.duration", metric.WithUnit("ms"))
	if err != nil {
		otel.Handle(err)
	}

	c := &Client{
		logger:     logger,
		opDuration: opDuration,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.client != nil {
		return c, nil
	}

	brokers, err := config.Addresses()
	if err != nil {
		return nil, err
	}
	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: brokers,
		Transport: nrelasticsearch.NewRoundTripper(nil),
	})
	if err != nil {
		return nil, err
	}
	c.client = esClient

	return c, nil
}

// Init checks that the cluster answers and runs a supported version.
func (c *Client) Init() (string, error) {
	res, err := c.client.Info()
	if err != nil {
		return "", elasticSearchError("Info", "", "", err)
	}
	defer drainBody(res)
	if res.IsError() {
		return "", responseError("Info", "", "", res)
	}
	var info = struct {
		ClusterName string `json:"cluster_name"`
		Version     struct {
			Number string `json:"number"`
		} `json:"version"`
	}{}

	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decode cluster info: %w", err)
	}

	if err := checkServerVersion(info.Version.Number); err != nil {
		return "", err
	}

	return fmt.Sprintf("%q (server version %s)", info.ClusterName, info.Version.Number), nil
}

func checkServerVersion(number string) error {
	v, err := semver.NewVersion(number)
	if err != nil {
		return fmt.Errorf("parse server version %q: %w", number, err)
	}
	constraint, err := semver.NewConstraint(minServerVersion)
	if err != nil {
		return err
	}
	if !constraint.Check(v) {
		return fmt.Errorf("unsupported elasticsearch version %s, need %s", number, minServerVersion)
	}
	return nil
}

// Migrate creates the index with the document mapping, or updates the
// mapping of an existing index.
func (c *Client) Migrate(ctx context.Context, index string) error {
	// checking for the existence of index before updating the mapping
	idxExists, err := c.indexExists(ctx, index)
	if err != nil {
		return fmt.Errorf("error checking index existence: %w", err)
	}

	if idxExists {
		c.logger.Info("index already exist, updating it instead", "index", index)
		if err = c.updateIdx(ctx, index); err != nil {
			return fmt.Errorf("error updating index: %w", err)
		}
		return nil
	}

	if err = c.createIdx(ctx, index); err != nil {
		return fmt.Errorf("error creating index: %w", err)
	}
	return nil
}

func (c *Client) createIdx(ctx context.Context, index string) (err error) {
	defer func(start time.Time) { c.instrumentOp(ctx, "CreateIndex", index, start, err) }(time.Now())

	res, err := c.client.Indices.Create(
		index,
		c.client.Indices.Create.WithBody(strings.NewReader(buildIndexSettings())),
		c.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return elasticSearchError("CreateIndex", index, "", err)
	}
	defer drainBody(res)
	if res.IsError() {
		return responseError("CreateIndex", index, "", res)
	}
	return nil
}

func (c *Client) updateIdx(ctx context.Context, index string) (err error) {
	defer func(start time.Time) { c.instrumentOp(ctx, "PutMapping", index, start, err) }(time.Now())

	res, err := c.client.Indices.PutMapping(
		strings.NewReader(documentIndexMapping),
		c.client.Indices.PutMapping.WithIndex(index),
		c.client.Indices.PutMapping.WithContext(ctx),
	)
	if err != nil {
		return elasticSearchError("PutMapping", index, "", err)
	}
	defer drainBody(res)
	if res.IsError() {
		return responseError("PutMapping", index, "", res)
	}
	return nil
}

func buildIndexSettings() string {
	return fmt.Sprintf(indexSettingsTemplate, documentIndexMapping)
}

// checks for the existence of an index
func (c *Client) indexExists(ctx context.Context, name string) (bool, error) {
	res, err := c.client.Indices.Exists(
		[]string{name},
		c.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, elasticSearchError("IndexExists", name, "", err)
	}
	defer drainBody(res)
	return res.StatusCode == 200, nil
}

func (c *Client) instrumentOp(ctx context.Context, op, index string, start time.Time, err error) {
	elapsed := time.Since(start)

	if c.opDuration != nil {
		c.opDuration.Record(ctx, elapsed.Milliseconds(), metric.WithAttributes(
			attribute.String("es.operation", op),
			attribute.String("es.index", index),
			attribute.Bool("operation.success", err == nil),
		))
	}

	m := c.statsd.Timing("es.operation", elapsed).Tag("op", op)
	if err != nil {
		m.Failure(err).Publish()
		c.logger.Debug("elasticsearch operation failed", "op", op, "index", index, "err", err)
		return
	}
	m.Success().Publish()
}
