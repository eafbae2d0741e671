package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rshade/tablefold/internal/config"
)

// NewConfigShowCmd creates the config show command, which prints the
// effective configuration after defaults and environment overrides.
func NewConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Example: `  # Show configuration as YAML
  tablefold config show`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := yaml.Marshal(config.GetGlobalConfig())
			if err != nil {
				return fmt.Errorf("marshalling config: %w", err)
			}
			cmd.Print(string(data))
			return nil
		},
	}
}
