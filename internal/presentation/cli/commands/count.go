// Package commands implements the CLI commands for modelbridge.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/modelbridge/internal/domain/chat"
	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
	"github.com/jbctechsolutions/modelbridge/internal/presentation/cli/output"
)

// countFlags holds the flags for the count command.
type countFlags struct {
	Model      string
	System     string
	Documents  []string
	ShowPrompt bool
}

var countOpts countFlags

// NewCountCmd creates the count command for pre-flight token counting.
func NewCountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count <text>",
		Short: "Count prompt tokens without invoking a model",
		Long: `Count the exact tokens a model would receive for the given input,
using the family's local tokenizer. No network request is made.

Counting requires the tokenizer artifacts for the model's family under the
configured tokenizers directory. Unlike post-invocation accounting, a count
that cannot be computed exactly fails rather than estimating.

Examples:
  # Count tokens for the default model
  mb count "How many tokens is this?"

  # Count for a specific model family
  mb count "Hola" --model command-r

  # Include a system prompt and documents in the count
  mb count "Summarize" --system "Be terse" --document report.txt

  # Show the rendered prompt template alongside the count
  mb count "Hello" --show-prompt`,
		Args: cobra.ExactArgs(1),
		RunE: runCount,
	}

	cmd.Flags().StringVarP(&countOpts.Model, "model", "m", "gpt-4o-mini",
		"model whose family's tokenizer to use")
	cmd.Flags().StringVar(&countOpts.System, "system", "", "system prompt to include")
	cmd.Flags().StringArrayVarP(&countOpts.Documents, "document", "d", nil,
		"file to attach as a retrievable document (repeatable)")
	cmd.Flags().BoolVar(&countOpts.ShowPrompt, "show-prompt", false,
		"print the rendered prompt template")

	return cmd
}

// runCount counts the tokens for the given input.
func runCount(cmd *cobra.Command, args []string) error {
	formatter := GetFormatter()

	container := GetContainer()
	if container == nil {
		return fmt.Errorf("application not initialized")
	}
	service := container.InvokeService()

	family, err := model.InferFamily(countOpts.Model)
	if err != nil {
		return err
	}

	messages := make([]chat.Message, 0, 2)
	if countOpts.System != "" {
		messages = append(messages, chat.System(countOpts.System))
	}
	messages = append(messages, chat.User(args[0]))

	documents, err := loadDocuments(countOpts.Documents)
	if err != nil {
		return err
	}

	countArgs := model.Arguments{
		Model:     countOpts.Model,
		Messages:  messages,
		Documents: documents,
	}

	count, err := service.CountTokens(countArgs)
	if err != nil {
		return fmt.Errorf("token counting failed: %w", err)
	}

	var rendered string
	if countOpts.ShowPrompt {
		rendered, err = service.RenderPrompt(countArgs)
		if err != nil {
			return fmt.Errorf("prompt rendering failed: %w", err)
		}
	}

	if formatter.Format() == output.FormatJSON {
		result := map[string]any{
			"model":         countOpts.Model,
			"family":        string(family),
			"prompt_tokens": count,
		}
		if countOpts.ShowPrompt {
			result["prompt"] = rendered
		}
		return formatter.JSON(result)
	}

	formatter.Item("Model", countOpts.Model)
	formatter.Item("Family", string(family))
	formatter.Item("Prompt tokens", fmt.Sprintf("%d", count))
	if countOpts.ShowPrompt {
		formatter.Println("")
		formatter.Header("Rendered prompt")
		formatter.Println("%s", rendered)
	}

	return nil
}
