package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/modelbridge/internal/infrastructure/config"
	"github.com/jbctechsolutions/modelbridge/internal/presentation/cli/output"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Long: `Write a default configuration file to ~/.modelbridge/config.yaml.

The file holds provider endpoints, the tokenizer artifact directory and
usage ledger settings. API keys may be placed in the file or supplied via
environment variables (OPENAI_API_KEY, COHERE_API_KEY, or per-family
variables like COMMAND_R_API_KEY).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")

	return cmd
}

func runInit(force bool) error {
	formatter := output.NewFormatter()

	loader, err := config.NewLoader("")
	if err != nil {
		return fmt.Errorf("failed to create config loader: %w", err)
	}

	path := globalFlags.ConfigFile
	if path == "" {
		path = loader.DefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
	}

	if err := loader.Save(config.NewDefaultConfig(), path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	formatter.Success("Wrote %s", path)
	formatter.Info("Set OPENAI_API_KEY or COHERE_API_KEY, or edit the file to add keys.")
	return nil
}
