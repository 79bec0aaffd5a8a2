// Package commands implements the CLI commands for modelbridge.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
	"github.com/jbctechsolutions/modelbridge/internal/presentation/cli/output"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show provider and tokenizer readiness",
		Long: `Show which providers are configured and which tokenizer families have
usable artifacts. No network requests are made.`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}
}

// providerStatus holds one provider's readiness for JSON output.
type providerStatus struct {
	Provider   string `json:"provider"`
	Enabled    bool   `json:"enabled"`
	Credential bool   `json:"credential"`
	Endpoint   string `json:"endpoint,omitempty"`
}

// familyStatus holds one tokenizer family's readiness for JSON output.
type familyStatus struct {
	Family string `json:"family"`
	Ready  bool   `json:"ready"`
	Error  string `json:"error,omitempty"`
}

// runStatus reports provider configuration and tokenizer artifact state.
func runStatus(cmd *cobra.Command, args []string) error {
	formatter := GetFormatter()

	container := GetContainer()
	if container == nil {
		return fmt.Errorf("application not initialized")
	}
	cfg := container.Config()

	providers := []providerStatus{
		{
			Provider:   "openai",
			Enabled:    cfg.Providers.OpenAI.Enabled,
			Credential: os.Getenv("OPENAI_API_KEY") != "" || cfg.Providers.OpenAI.APIKey != "",
			Endpoint:   cfg.Providers.OpenAI.BaseURL,
		},
		{
			Provider:   "cohere",
			Enabled:    cfg.Providers.Cohere.Enabled,
			Credential: os.Getenv("COHERE_API_KEY") != "" || cfg.Providers.Cohere.APIKey != "",
			Endpoint:   cfg.Providers.Cohere.BaseURL,
		},
		{
			Provider:   "ollama",
			Enabled:    cfg.Providers.Ollama.Enabled,
			Credential: true, // local provider, no credential needed
			Endpoint:   cfg.Providers.Ollama.URL,
		},
	}

	artifactErrors := container.TokenizerRegistry().Validate()
	families := make([]familyStatus, 0, len(model.Families()))
	for _, family := range model.Families() {
		fs := familyStatus{Family: string(family)}
		if err, bad := artifactErrors[family]; bad {
			fs.Error = err.Error()
		} else {
			fs.Ready = true
		}
		families = append(families, fs)
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(map[string]any{
			"providers":  providers,
			"tokenizers": families,
		})
	}

	formatter.Header("Providers")
	for _, p := range providers {
		state := "disabled"
		if p.Enabled && p.Credential {
			state = "ready"
		} else if p.Enabled {
			state = "missing credential"
		}
		detail := state
		if p.Endpoint != "" {
			detail = fmt.Sprintf("%s (%s)", state, p.Endpoint)
		}
		formatter.Item(p.Provider, detail)
	}

	formatter.Println("")
	formatter.Header("Tokenizer families")
	for _, f := range families {
		if f.Ready {
			formatter.Item(f.Family, "ready")
		} else {
			formatter.Item(f.Family, "unavailable")
		}
	}
	formatter.Println("")
	formatter.Item("Artifacts directory", container.TokenizerRegistry().Root())

	return nil
}
