package cli

import (
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/goto/salt/printer"
	"github.com/goto/salt/term"
	"github.com/spf13/cobra"

	"github.com/goto/vfsearch/core/resource"
)

func resourceCommand(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resource",
		Aliases: []string{"resources", "res"},
		Short:   "Manage resources of the content repository",
		Annotations: map[string]string{
			"group": "core",
		},
		Example: heredoc.Doc(`
			$ vfsearch resource types plain image
			$ vfsearch resource put --file page.yaml
			$ vfsearch resource delete /sites/default/old.html
		`),
	}

	cmd.AddCommand(
		registerTypesCommand(cfg),
		putResourceCommand(cfg),
		deleteResourceCommand(cfg),
	)
	return cmd
}

func registerTypesCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "types <name>...",
		Short: "Register resource types subject to permission checks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := initDeps(cmd.Context(), cfg, depsOption{database: true})
			if err != nil {
				return err
			}
			defer d.Close()

			repo, err := d.resources()
			if err != nil {
				return err
			}
			for _, name := range args {
				if err := repo.RegisterType(cmd.Context(), name); err != nil {
					return err
				}
				fmt.Println(term.Greenf("registered %s", name))
			}
			return nil
		},
	}
}

func putResourceCommand(cfg *Config) *cobra.Command {
	var filePath string

	cmd := &cobra.Command{
		Use:   "put",
		Short: "Store a resource and index it",
		Long: heredoc.Doc(`
			Store a resource in the content repository and add its document
			to the search index. An existing resource with the same path is
			replaced.
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var res resource.Resource
			if err := parseFile(filePath, &res); err != nil {
				return err
			}

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
			id, err := repo.Upsert(cmd.Context(), res)
			if err != nil {
				return err
			}

			svc, err := d.indexingService()
			if err != nil {
				return err
			}
			if err := svc.AddDocument(cmd.Context(), res.Document()); err != nil {
				return fmt.Errorf("stored %s but failed to index it: %w", res.Path, err)
			}
			spinner.Stop()

			fmt.Println(term.Greenf("stored and indexed %s (%s)", res.Path, id))
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "yaml or json file describing the resource")
	if err := cmd.MarkFlagRequired("file"); err != nil {
		panic(err)
	}
	return cmd
}

func deleteResourceCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <path>",
		Short: "Mark a resource deleted and remove it from the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := initDeps(cmd.Context(), cfg, depsOption{engine: true, database: true})
			if err != nil {
				return err
			}
			defer d.Close()

			repo, err := d.resources()
			if err != nil {
				return err
			}
			if err := repo.DeleteByPath(cmd.Context(), args[0]); err != nil {
				return err
			}

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
