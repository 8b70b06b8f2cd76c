package elasticsearch_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/goto/salt/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goto/vfsearch/core/document"
	store "github.com/goto/vfsearch/internal/store/elasticsearch"
)

func TestConfigAddresses(t *testing.T) {
	type testCase struct {
		Description string
		Brokers     string
		Expected    []string
		ShouldFail  bool
	}
	var testCases = []testCase{
		{Description: "single broker", Brokers: "http://localhost:9200", Expected: []string{"http://localhost:9200"}},
		{Description: "several brokers", Brokers: "http://es-1:9200, https://es-2:9200", Expected: []string{"http://es-1:9200", "https://es-2:9200"}},
		{Description: "empty", Brokers: "", ShouldFail: true},
		{Description: "relative", Brokers: "localhost:9200", ShouldFail: true},
		{Description: "unsupported scheme", Brokers: "ftp://es:21", ShouldFail: true},
		{Description: "one bad broker", Brokers: "http://es-1:9200,", ShouldFail: true},
	}

	for _, tc := range testCases {
		t.Run(tc.Description, func(t *testing.T) {
			got, err := store.Config{Brokers: tc.Brokers}.Addresses()
			if tc.ShouldFail {
				assert.ErrorIs(t, err, store.ErrInvalidBroker)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, got)

			_, err = store.NewClient(log.NewNoop(), store.Config{Brokers: tc.Brokers})
			assert.NoError(t, err)
		})
	}

	_, err := store.NewClient(log.NewNoop(), store.Config{Brokers: "not a url"})
	assert.ErrorIs(t, err, store.ErrInvalidBroker)
}

func TestInit(t *testing.T) {
	t.Run("should report the cluster", func(t *testing.T) {
		_, cli := newFakeES(t)
		info, err := cli.Init()
		require.NoError(t, err)
		assert.Equal(t, `"vfsearch-test" (server version 7.16.0)`, info)
	})

	t.Run("should reject an old cluster", func(t *testing.T) {
		fake, cli := newFakeES(t)
		fake.version = "7.9.3"
		_, err := cli.Init()
		assert.ErrorContains(t, err, "unsupported elasticsearch version 7.9.3")
	})
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()

	t.Run("should create a missing index", func(t *testing.T) {
		fake, cli := newFakeES(t)
		fake.respond("PUT /documents", http.StatusOK, `{"acknowledged":true}`)

		require.NoError(t, cli.Migrate(ctx, "documents"))

		reqs := fake.recorded(http.MethodPut, "/documents")
		require.Len(t, reqs, 1)
		assert.Contains(t, reqs[0].Body, `"copy_to": "ngramcontent"`)
		assert.Contains(t, reqs[0].Body, `"ngram_analyzer"`)
	})

	t.Run("should update the mapping of an existing index", func(t *testing.T) {
		fake, cli := newFakeES(t)
		fake.respond("HEAD /documents", http.StatusOK, ``)
		fake.respond("PUT /documents/_mapping", http.StatusOK, `{"acknowledged":true}`)

		require.NoError(t, cli.Migrate(ctx, "documents"))
		assert.Len(t, fake.recorded(http.MethodPut, "/documents/_mapping"), 1)
		assert.Empty(t, fake.recorded(http.MethodPut, "/documents"))
	})

	t.Run("should return the reason of a failed creation", func(t *testing.T) {
		fake, cli := newFakeES(t)
		fake.respond("PUT /documents", http.StatusBadRequest, `{"error":{"type":"mapper_parsing_exception","reason":"bad mapping"},"status":400}`)

		err := cli.Migrate(ctx, "documents")
		var be document.BackendError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, "mapper_parsing_exception", be.ESCode)
		assert.Equal(t, "CreateIndex", be.Op)
		assert.Contains(t, err.Error(), "bad mapping")
	})
}
