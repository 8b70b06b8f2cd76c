package elasticsearch_test

import (
	"context"
	"testing"

	"github.com/goto/salt/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goto/vfsearch/core/document"
	"github.com/goto/vfsearch/core/search"
	store "github.com/goto/vfsearch/internal/store/elasticsearch"
	"github.com/goto/vfsearch/internal/testutils"
)

func TestIndexRepositoryIntegration(t *testing.T) {
	testutils.SkipUnlessIntegration(t)

	ctx := context.Background()
	esURL, err := testutils.RunTestES(t, log.NewNoop())
	require.NoError(t, err)

	cli, err := store.NewClient(log.NewNoop(), store.Config{Brokers: esURL})
	require.NoError(t, err)
	_, err = cli.Init()
	require.NoError(t, err)
	require.NoError(t, cli.Migrate(ctx, "offline"))
	// a second run updates the mapping in place
	require.NoError(t, cli.Migrate(ctx, "offline"))

	repo := store.NewIndexRepository(cli, "offline")
	require.NoError(t, repo.Submit(ctx, []document.Document{
		{document.FieldID: "/a.html", document.FieldPath: "/a.html", document.FieldType: "article", document.FieldContent: "alpha beta"},
		{document.FieldID: "/b.html", document.FieldPath: "/b.html", document.FieldType: "article", document.FieldContent: "beta gamma"},
	}))
	require.NoError(t, repo.Commit(ctx))

	resp, err := repo.Execute(ctx, search.EngineQuery{Text: "content:beta", Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalHits)

	resp, err = repo.Execute(ctx, search.EngineQuery{Text: "content:gamma", Size: 10})
	require.NoError(t, err)
	require.Len(t, resp.Documents, 1)
	assert.Equal(t, "/b.html", resp.Documents[0].ID())

	doc, err := repo.FetchDocument(ctx, "/a.html")
	require.NoError(t, err)
	assert.Equal(t, "alpha beta", doc.String(document.FieldContent))

	require.NoError(t, repo.DeleteByID(ctx, "/a.html"))
	require.NoError(t, repo.Commit(ctx))
	_, err = repo.FetchDocument(ctx, "/a.html")
	assert.ErrorAs(t, err, &document.NotFoundError{})

	require.NoError(t, repo.DeleteAll(ctx))
	require.NoError(t, repo.Optimize(ctx))
	require.NoError(t, repo.Commit(ctx))
	resp, err = repo.Execute(ctx, search.EngineQuery{Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.TotalHits)
}
