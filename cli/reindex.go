package cli

import (
	"context"
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/goto/salt/printer"
	"github.com/goto/salt/term"
	"github.com/spf13/cobra"

	"github.com/goto/vfsearch/core/document"
	"github.com/goto/vfsearch/core/resource"
	"github.com/goto/vfsearch/internal/store/postgres"
	"github.com/goto/vfsearch/pkg/telemetry"
)

func reindexCommand(cfg *Config) *cobra.Command {
	var (
		types      []string
		pathPrefix string
	)

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the content repository",
		Long: heredoc.Doc(`
			Delete every document of the search index and index every
			resource of the content repository that is not deleted.
		`),
		Example: heredoc.Doc(`
			$ vfsearch reindex
			$ vfsearch reindex --type plain --prefix /sites/default/
		`),
		Args: cobra.NoArgs,
		Annotations: map[string]string{
			"group:core": "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			spinner := printer.Spin("")
			defer spinner.Stop()

			d, err := initDeps(cmd.Context(), cfg, depsOption{engine: true, database: true})
			if err != nil {
				return err
			}
			defer d.Close()

			repo, err := d.resources()
			if err != nil {
				return err
			}
			svc, err := d.indexingService()
			if err != nil {
				return err
			}

			ctx, end := telemetry.StartTransaction(cmd.Context(), d.nrApp, "cli.reindex")
			defer end()

			docs, err := resourceDocuments(ctx, repo, resource.Filter{Types: types, PathPrefix: pathPrefix})
			if err != nil {
				return err
			}
			if err := svc.Rebuild(ctx, docs); err != nil {
				return err
			}
			spinner.Stop()

			fmt.Println(term.Greenf("indexed %d resources into %s", len(docs), cfg.Index.Name))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&types, "type", nil, "only index these resource types")
	cmd.Flags().StringVar(&pathPrefix, "prefix", "", "only index resources below this path")
	return cmd
}

// resourceDocuments pages through the repository and returns the document
// of every resource matching flt.
func resourceDocuments(ctx context.Context, repo resource.Repository, flt resource.Filter) ([]document.Document, error) {
	flt.Size = postgres.DefaultMaxResultSize

	var docs []document.Document
	for {
		page, err := repo.GetAll(ctx, flt)
		if err != nil {
			return nil, fmt.Errorf("list resources: %w", err)
		}
		for _, r := range page {
			docs = append(docs, r.Document())
		}
		if len(page) < flt.Size {
			return docs, nil
		}
		flt.Offset += len(page)
	}
}
