package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/goto/salt/cmdx"
	"github.com/goto/salt/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/goto/vfsearch/core/search"
	esStore "github.com/goto/vfsearch/internal/store/elasticsearch"
	"github.com/goto/vfsearch/internal/store/postgres"
	"github.com/goto/vfsearch/pkg/statsd"
	"github.com/goto/vfsearch/pkg/telemetry"
)

const configFlag = "config"

func configCommand(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config <command>",
		Short: "Manage configuration",
		Example: heredoc.Doc(`
			$ vfsearch config init
			$ vfsearch config list`),
	}

	cmd.AddCommand(configInitCommand())
	cmd.AddCommand(configListCommand(cfg))

	return cmd
}

func configInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new configuration",
		Example: heredoc.Doc(`
			$ vfsearch config init
		`),
		Annotations: map[string]string{
			"group": "core",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := cmdx.SetConfig("vfsearch")

			if err := cfg.Init(&Config{}); err != nil {
				return err
			}

			fmt.Printf("config created: %v\n", cfg.File())
			return nil
		},
	}
}

func configListCommand(cfg *Config) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "list",
		Short: "List configuration settings",
		Example: heredoc.Doc(`
			$ vfsearch config list
		`),
		Annotations: map[string]string{
			"group": "core",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return yaml.NewEncoder(os.Stdout).Encode(*cfg)
		},
	}
	return cmd
}

type Config struct {
	// Log
	LogLevel string `yaml:"log_level" mapstructure:"log_level" default:"info"`

	// Index
	Index search.IndexConfig `yaml:"index" mapstructure:"index"`

	// StatsD
	StatsD statsd.Config `yaml:"statsd" mapstructure:"statsd"`

	// Telemetry
	Telemetry telemetry.Config `yaml:"telemetry" mapstructure:"telemetry"`

	// Elasticsearch
	Elasticsearch esStore.Config `yaml:"elasticsearch" mapstructure:"elasticsearch"`

	// Database
	DB postgres.Config `yaml:"db" mapstructure:"db"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	err := cmdx.SetConfig("vfsearch").Load(&cfg)
	if err != nil {
		if errors.As(err, &config.ConfigFileNotFoundError{}) {
			return LoadFromCurrentDir()
		}
		return &cfg, err
	}
	return &cfg, nil
}

func LoadFromCurrentDir() (*Config, error) {
	var cfg Config
	var opts []config.LoaderOption

	opts = append(opts,
		config.WithPath("./"),
		config.WithName("vfsearch.yaml"),
		config.WithEnvKeyReplacer(".", "_"),
		config.WithEnvPrefix("VFSEARCH"),
	)

	if err := config.NewLoader(opts...).Load(&cfg); err != nil {
		if errors.As(err, &config.ConfigFileNotFoundError{}) {
			return &cfg, ErrConfigNotFound
		}
		return &cfg, err
	}
	return &cfg, nil
}

func LoadConfigFromFlag(cfgFile string, cfg *Config) error {
	var opts []config.LoaderOption
	opts = append(opts,
		config.WithFile(cfgFile),
		config.WithEnvKeyReplacer(".", "_"),
		config.WithEnvPrefix("VFSEARCH"),
	)

	return config.NewLoader(opts...).Load(cfg)
}
