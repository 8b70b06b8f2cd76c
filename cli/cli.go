package cli

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/goto/salt/cmdx"
	"github.com/spf13/cobra"
)

// Version of the current build. overridden by the build system.
var Version string

func New(cfg *Config) *cobra.Command {
	var configFile string

	var rootCmd = &cobra.Command{
		Use:           "vfsearch <command> <subcommand> [flags]",
		Short:         "Search adapter for the content repository",
		Long:          "Query, maintain and rebuild the search index of the content repository.",
		SilenceErrors: true,
		SilenceUsage:  false,
		Example: heredoc.Doc(`
			$ vfsearch search "annual report"
			$ vfsearch document get /sites/default/index.html
			$ vfsearch migrate
			$ vfsearch reindex
		`),
		Annotations: map[string]string{
			"group": "core",
			"help:learn": heredoc.Doc(`
				Use 'vfsearch <command> --help' for info about a command.
			`),
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile == "" {
				return nil
			}
			return LoadConfigFromFlag(configFile, cfg)
		},
	}

	rootCmd.AddCommand(
		configCommand(cfg),
		searchCommand(cfg),
		documentCommand(cfg),
		resourceCommand(cfg),
		migrateCommand(cfg),
		reindexCommand(cfg),
		versionCmd(),
	)

	// Help topics
	rootCmd.AddCommand(cmdx.SetCompletionCmd("vfsearch"))
	rootCmd.AddCommand(cmdx.SetRefCmd(rootCmd))
	rootCmd.AddCommand(cmdx.SetHelpTopicCmd("environment", envHelp))
	cmdx.SetHelp(rootCmd)

	rootCmd.PersistentFlags().StringVarP(&configFile, configFlag, "c", "", "Override config file")

	return rootCmd
}

var envHelp = map[string]string{
	"short": "List of supported environment variables",
	"long": heredoc.Doc(`
		Every configuration key can be set with an environment variable
		prefixed with VFSEARCH_, with dots replaced by underscores.

		VFSEARCH_LOG_LEVEL: debug, info, warn or error.

		VFSEARCH_ELASTICSEARCH_BROKERS: comma separated engine addresses.

		VFSEARCH_INDEX_NAME: name of the search index.

		VFSEARCH_DB_HOST, VFSEARCH_DB_PORT, VFSEARCH_DB_NAME: content
		repository database.
	`),
}
