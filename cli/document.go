package cli

import (
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/goto/salt/printer"
	"github.com/goto/salt/term"
	"github.com/spf13/cobra"

	"github.com/goto/vfsearch/core/indexing"
)

func documentCommand(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "document",
		Aliases: []string{"documents", "doc"},
		Short:   "Manage indexed documents",
		Annotations: map[string]string{
			"group": "core",
		},
		Example: heredoc.Doc(`
			$ vfsearch document get /sites/default/index.html
			$ vfsearch document update /sites/default/index.html --set title=Home
			$ vfsearch document update --file updates.yaml
			$ vfsearch document delete /sites/default/old.html
		`),
	}

	cmd.AddCommand(
		getDocumentCommand(cfg),
		updateDocumentCommand(cfg),
		deleteDocumentCommand(cfg),
	)
	return cmd
}

func getDocumentCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "Show the indexed document of a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spinner := printer.Spin("")
			defer spinner.Stop()

			d, err := initDeps(cmd.Context(), cfg, depsOption{engine: true})
			if err != nil {
				return err
			}
			defer d.Close()

			svc, err := d.searchService()
			if err != nil {
				return err
			}
			doc, err := svc.GetDocumentByPath(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			spinner.Stop()

			fmt.Println(term.Bluef(prettyPrint(doc)))
			return nil
		},
	}
}

func updateDocumentCommand(cfg *Config) *cobra.Command {
	var (
		sets     []string
		filePath string
	)

	cmd := &cobra.Command{
		Use:   "update [path]",
		Short: "Replace fields of indexed documents",
		Long: heredoc.Doc(`
			Replace fields of indexed documents. Fields that are not named keep
			their indexed value. Engine computed fields are regenerated.

			A file holds a list of updates, each with an id and its fields.
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			upds, err := pendingUpdates(args, sets, filePath)
			if err != nil {
				return err
			}

			spinner := printer.Spin("")
			defer spinner.Stop()

			d, err := initDeps(cmd.Context(), cfg, depsOption{engine: true})
			if err != nil {
				return err
			}
			defer d.Close()

			svc, err := d.indexingService()
			if err != nil {
				return err
			}
			report, err := svc.ApplyUpdates(cmd.Context(), upds)
			if err != nil {
				return err
			}
			spinner.Stop()

			fmt.Println(term.Greenf("%d applied, %d unchanged, %d skipped",
				len(report.Applied), len(report.Unchanged), len(report.Skipped)))
			for _, id := range report.Skipped {
				fmt.Println(term.Yellow("not indexed: " + id))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "field=value to replace, repeatable")
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "yaml or json file with a list of updates")
	return cmd
}

func pendingUpdates(args, sets []string, filePath string) ([]indexing.PendingUpdate, error) {
	if filePath != "" {
		if len(args) > 0 || len(sets) > 0 {
			return nil, fmt.Errorf("--file cannot be combined with a path or --set")
		}
		var upds []indexing.PendingUpdate
		if err := parseFile(filePath, &upds); err != nil {
			return nil, err
		}
		return upds, nil
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("a path or --file is required")
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("at least one --set is required")
	}
	upd := indexing.PendingUpdate{ID: args[0], Fields: map[string]interface{}{}}
	for _, s := range sets {
		field, value, ok := strings.Cut(s, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid --set %q, expected field=value", s)
		}
		upd.Fields[field] = value
	}
	return []indexing.PendingUpdate{upd}, nil
}

func deleteDocumentCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <path>",
		Short: "Remove a document from the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := initDeps(cmd.Context(), cfg, depsOption{engine: true})
			if err != nil {
				return err
			}
			defer d.Close()

			svc, err := d.indexingService()
			if err != nil {
				return err
			}
			if err := svc.DeleteDocument(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println(term.Greenf("deleted %s", args[0]))
			return nil
		},
	}
}
