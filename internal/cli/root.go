package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/tablefold/internal/config"
	"github.com/rshade/tablefold/internal/logging"
)

// annotationTolerateConfig marks commands that still run when the config
// file fails to load.
const annotationTolerateConfig = "tolerate-config-errors"

// isTerminal checks if the given writer is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger = zerolog.Nop() //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the tablefold CLI.
// It wires up config loading, logging and tracing, and the subcommands.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:          "tablefold",
		Short:        "Browse tabular data with expandable rows",
		Long:         "tablefold renders rows from a YAML or JSON file as a terminal table in which at most one row is expanded at a time.",
		Version:      ver,
		Example:      rootCmdExample,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return cleanupLogging(logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "config file (default $XDG_CONFIG_HOME/tablefold/config.yaml)")
	cmd.AddCommand(NewViewCmd(), newConfigCmd())

	return cmd
}

const rootCmdExample = `  # Browse rows from a YAML file
  tablefold view --data rows.yaml

  # Start with row "42" expanded and two rows checked
  tablefold view --data rows.json --select 42 --checked 7,9

  # Print a single frame without the interactive program
  tablefold view --data rows.yaml --static

  # Initialize configuration
  tablefold config init`

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigShowCmd(), NewConfigValidateCmd())
	return cmd
}

// configPath returns the --config flag value or the default config path.
func configPath(cmd *cobra.Command) (string, bool, error) {
	if f := cmd.Flag("config"); f != nil && f.Value.String() != "" {
		return f.Value.String(), true, nil
	}
	path, err := config.DefaultConfigPath()
	return path, false, err
}

// loadConfig loads the config file into the global config. An explicit
// --config file must exist; the default one may be missing.
func loadConfig(cmd *cobra.Command) error {
	path, explicit, err := configPath(cmd)
	if err != nil {
		return err
	}

	var cfg *config.Config
	if explicit {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOrDefault(path)
	}
	if err != nil {
		if cmd.Annotations[annotationTolerateConfig] == "" {
			return fmt.Errorf("loading config: %w", err)
		}
		cmd.PrintErrf("Warning: %v; using defaults\n", err)
		cfg = config.New()
		cfg.ApplyEnv(os.LookupEnv)
	}

	config.SetGlobalConfig(cfg)
	return nil
}
