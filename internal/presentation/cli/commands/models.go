// Package commands implements the CLI commands for modelbridge.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
	"github.com/jbctechsolutions/modelbridge/internal/presentation/cli/output"
)

// knownProviders lists the provider bindings in display order.
var knownProviders = []string{"openai", "cohere", "ollama"}

// NewModelsCmd creates the models command.
func NewModelsCmd() *cobra.Command {
	var providerFilter string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models served by the configured providers",
		Long: `Query each configured provider for the models it serves.

Providers without credentials are skipped. Use --provider to query a
single provider.

Examples:
  # List models from every configured provider
  mb models

  # List only Ollama's local models
  mb models --provider ollama`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(providerFilter)
		},
	}

	cmd.Flags().StringVarP(&providerFilter, "provider", "p", "",
		"query a single provider: openai, cohere, ollama")

	return cmd
}

// providerModels holds one provider's model listing result.
type providerModels struct {
	Provider string   `json:"provider"`
	Models   []string `json:"models,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// runModels lists models across providers.
func runModels(providerFilter string) error {
	formatter := GetFormatter()
	ctx := context.Background()

	container := GetContainer()
	if container == nil {
		return fmt.Errorf("application not initialized")
	}
	factory := container.ProviderFactory()
	registry := container.ProviderRegistry()

	providers := knownProviders
	if providerFilter != "" {
		providers = []string{providerFilter}
	}

	results := make([]providerModels, 0, len(providers))
	for _, name := range providers {
		result := providerModels{Provider: name}

		binding, err := factory.ForProvider(name, model.FamilyNone)
		if err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}
		_ = registry.Register(binding)

		models, err := binding.ListModels(ctx)
		if err != nil {
			result.Error = err.Error()
		} else {
			result.Models = models
		}
		results = append(results, result)
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(results)
	}

	rows := make([][]string, 0)
	for _, result := range results {
		if result.Error != "" {
			formatter.Warning("%s: %s", result.Provider, result.Error)
			continue
		}
		for _, m := range result.Models {
			rows = append(rows, []string{result.Provider, m})
		}
	}

	if len(rows) == 0 {
		formatter.Info("No models available")
		return nil
	}

	return formatter.Table(output.TableData{
		Columns: []output.TableColumn{
			{Header: "PROVIDER"},
			{Header: "MODEL"},
		},
		Rows: rows,
	})
}
