// Package commands implements the CLI commands for modelbridge.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/modelbridge/internal/domain/chat"
	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
	"github.com/jbctechsolutions/modelbridge/internal/presentation/cli/output"
)

// askFlags holds the flags for the ask command.
type askFlags struct {
	Model       string
	System      string
	Stream      bool
	MaxTokens   int
	Temperature float32
	Documents   []string
	SchemaFile  string
}

var askOpts askFlags

// NewAskCmd creates the ask command for one-shot invocations.
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "One-shot model invocation",
		Long: `Invoke a model once with a single question and print the answer.

The model name selects both the provider binding and the tokenizer family:
gpt-* models route to the OpenAI-compatible binding, command-* models to
Cohere, and unknown names fall back to the OpenAI-compatible binding.

Examples:
  # Ask the default model
  mb ask "What is a goroutine?"

  # Ask a specific model with streaming output
  mb ask "Explain BPE tokenization" --model command-r --stream

  # Ground the answer in retrieved documents
  mb ask "Summarize the findings" --document report.txt --document notes.txt

  # Constrain the output to a JSON schema
  mb ask "Extract the invoice fields" --schema invoice.schema.json`,
		Args: cobra.ExactArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().StringVarP(&askOpts.Model, "model", "m", "gpt-4o-mini",
		"model to invoke (e.g., gpt-4o, command-r, llama3)")
	cmd.Flags().StringVar(&askOpts.System, "system", "", "system prompt")
	cmd.Flags().BoolVarP(&askOpts.Stream, "stream", "s", false, "enable streaming output")
	cmd.Flags().IntVar(&askOpts.MaxTokens, "max-tokens", 2048, "maximum completion tokens")
	cmd.Flags().Float32VarP(&askOpts.Temperature, "temperature", "t", 0.7, "sampling temperature")
	cmd.Flags().StringArrayVarP(&askOpts.Documents, "document", "d", nil,
		"file to attach as a retrievable document (repeatable)")
	cmd.Flags().StringVar(&askOpts.SchemaFile, "schema", "",
		"JSON schema file constraining the output")

	return cmd
}

// runAsk executes the one-shot invocation.
func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]
	formatter := GetFormatter()
	ctx := context.Background()

	container := GetContainer()
	if container == nil {
		return fmt.Errorf("application not initialized")
	}

	invokeArgs, err := buildArguments(askOpts, question)
	if err != nil {
		return err
	}

	service := container.InvokeService()

	var completion *chat.Completion
	if askOpts.Stream {
		printer := output.NewDeltaPrinter()
		completion, err = service.Stream(ctx, invokeArgs, printer.Delta)
		if err == nil {
			_ = printer.Finish()
		}
	} else {
		spinner := output.NewSpinner("Waiting for " + askOpts.Model)
		if formatter.Format() == output.FormatText {
			spinner.Start()
		}
		completion, err = service.Complete(ctx, invokeArgs)
		spinner.Stop()
	}

	if err != nil {
		return fmt.Errorf("invocation failed: %w", err)
	}

	if formatter.Format() == output.FormatJSON {
		result := map[string]any{
			"question":      question,
			"answer":        completion.Text(),
			"model":         askOpts.Model,
			"finish_reason": finishReasonOf(completion),
			"usage":         completion.Usage,
		}
		return formatter.JSON(result)
	}

	// Streaming already printed the answer.
	if !askOpts.Stream {
		formatter.Println("%s", completion.Text())
	}
	printToolCalls(formatter, completion)
	formatter.Println("")
	formatter.Item("Tokens", fmt.Sprintf("prompt=%d completion=%d total=%d (%s)",
		completion.Usage.PromptTokens, completion.Usage.CompletionTokens,
		completion.Usage.TotalTokens, completion.Usage.Source))

	return nil
}

// buildArguments constructs invocation arguments from ask flags and the question.
func buildArguments(opts askFlags, question string) (model.Arguments, error) {
	messages := make([]chat.Message, 0, 2)
	if opts.System != "" {
		messages = append(messages, chat.System(opts.System))
	}
	messages = append(messages, chat.User(question))

	documents, err := loadDocuments(opts.Documents)
	if err != nil {
		return model.Arguments{}, err
	}

	var schema json.RawMessage
	if opts.SchemaFile != "" {
		data, err := os.ReadFile(opts.SchemaFile)
		if err != nil {
			return model.Arguments{}, fmt.Errorf("failed to read schema file: %w", err)
		}
		if !json.Valid(data) {
			return model.Arguments{}, fmt.Errorf("schema file %s is not valid JSON", opts.SchemaFile)
		}
		schema = data
	}

	return model.Arguments{
		Model:          opts.Model,
		Messages:       messages,
		Documents:      documents,
		ResponseSchema: schema,
		Stream:         opts.Stream,
		MaxTokens:      opts.MaxTokens,
		Temperature:    opts.Temperature,
	}, nil
}

// loadDocuments reads document files into domain documents.
func loadDocuments(paths []string) ([]chat.Document, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	documents := make([]chat.Document, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read document %s: %w", path, err)
		}
		documents = append(documents, chat.Document{
			ID:      filepath.Base(path),
			Content: string(data),
		})
	}
	return documents, nil
}

// printToolCalls prints tool calls from the first choice, if any.
func printToolCalls(formatter *output.Formatter, completion *chat.Completion) {
	if len(completion.Choices) == 0 {
		return
	}
	for _, call := range completion.Choices[0].ToolCalls {
		formatter.Item("Tool call", fmt.Sprintf("%s(%s)", call.Name, string(call.Arguments)))
	}
}

func finishReasonOf(completion *chat.Completion) string {
	if len(completion.Choices) == 0 {
		return string(chat.FinishReasonNone)
	}
	return string(completion.Choices[0].FinishReason)
}
