package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/tablefold/internal/config"
)

// NewConfigValidateCmd creates the config validate command for validating configuration.
func NewConfigValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the configuration file for syntax and semantic correctness.

This includes:
- YAML syntax
- schema_version compatibility
- logging format
- virtualisation heights (positive, sub_row_height >= row_height)`,
		Example: `  # Validate current configuration
  tablefold config validate

  # Validate a specific file
  tablefold config validate --config ./tablefold.yaml`,
		Annotations: map[string]string{annotationTolerateConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _, err := configPath(cmd)
			if err != nil {
				return err
			}
			if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
				return fmt.Errorf("configuration file %s does not exist, run 'tablefold config init'", path)
			}

			if _, err = config.Load(path); err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}

			cmd.Printf("Configuration is valid: %s\n", path)
			return nil
		},
	}

	return cmd
}
