package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/tablefold/internal/config"
)

// NewConfigInitCmd creates the config init command for initializing configuration.
func NewConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates a new configuration file with default values at
$XDG_CONFIG_HOME/tablefold/config.yaml, or at the path given with --config.`,
		Example: `  # Create configuration
  tablefold config init

  # Create configuration, overwriting existing
  tablefold config init --force`,
		Annotations: map[string]string{annotationTolerateConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _, err := configPath(cmd)
			if err != nil {
				return err
			}

			// Check if config already exists and force isn't set
			if !force {
				_, statErr := os.Stat(path)
				if statErr == nil {
					return errors.New("configuration file already exists, use --force to overwrite")
				}
				if !os.IsNotExist(statErr) {
					return fmt.Errorf("cannot access config path %s: %w", path, statErr)
				}
			}

			if err = config.New().Save(path); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			logger.Info().Ctx(cmd.Context()).Str("config_path", path).Msg("configuration initialized")
			cmd.Printf("Configuration initialized successfully\n")
			cmd.Printf("Configuration file: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")

	return cmd
}
