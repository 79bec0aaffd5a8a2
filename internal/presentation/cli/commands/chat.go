// Package commands implements the CLI commands for modelbridge.
package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/modelbridge/internal/domain/chat"
	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
	"github.com/jbctechsolutions/modelbridge/internal/presentation/cli/output"
)

// chatFlags holds the flags for the chat command.
type chatFlags struct {
	Model        string
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
	NoStream     bool
}

var chatOpts chatFlags

// NewChatCmd creates the chat command for interactive REPL mode.
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat REPL",
		Long: `Start an interactive chat session with a model.

The chat command provides a REPL (Read-Eval-Print Loop) interface for
continuous conversation. The full conversation is replayed on every turn
so the model keeps context across exchanges. Responses stream by default.

Special commands:
  /exit, /quit    - Exit the chat session
  /clear          - Clear conversation history
  /help           - Show help message
  /model <name>   - Switch to a different model
  /tokens         - Count the tokens the next turn would send

Examples:
  # Start a chat session with the default model
  mb chat

  # Start with a specific model
  mb chat --model command-r

  # Start with a custom system prompt
  mb chat --system "You are a terse code reviewer"`,
		Args: cobra.NoArgs,
		RunE: runChat,
	}

	cmd.Flags().StringVarP(&chatOpts.Model, "model", "m", "gpt-4o-mini",
		"model to chat with (e.g., gpt-4o, command-r, llama3)")
	cmd.Flags().StringVar(&chatOpts.SystemPrompt, "system", "", "custom system prompt")
	cmd.Flags().IntVar(&chatOpts.MaxTokens, "max-tokens", 2048, "maximum completion tokens per turn")
	cmd.Flags().Float32VarP(&chatOpts.Temperature, "temperature", "t", 0.7, "sampling temperature")
	cmd.Flags().BoolVar(&chatOpts.NoStream, "no-stream", false, "disable streaming output")

	return cmd
}

// runChat executes the interactive chat REPL.
func runChat(cmd *cobra.Command, args []string) error {
	formatter := GetFormatter()
	ctx := context.Background()

	container := GetContainer()
	if container == nil {
		return fmt.Errorf("application not initialized")
	}
	service := container.InvokeService()

	var history []chat.Message
	if chatOpts.SystemPrompt != "" {
		history = append(history, chat.System(chatOpts.SystemPrompt))
	}

	formatter.Header("Chat")
	formatter.Item("Model", chatOpts.Model)
	formatter.Println("")
	formatter.Info("Type your message and press Enter. Type /help for commands.")
	formatter.Println("")

	rl, err := readline.New("> ")
	if err != nil {
		return fmt.Errorf("could not create readline: %w", err)
	}
	defer rl.Close()

	currentModel := chatOpts.Model

	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			break
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			shouldExit := handleChatCommand(line, service, &history, &currentModel, formatter)
			if shouldExit {
				break
			}
			continue
		}

		history = append(history, chat.User(line))

		invokeArgs := model.Arguments{
			Model:       currentModel,
			Messages:    history,
			MaxTokens:   chatOpts.MaxTokens,
			Temperature: chatOpts.Temperature,
		}

		formatter.Println("")
		var completion *chat.Completion
		if chatOpts.NoStream {
			completion, err = service.Complete(ctx, invokeArgs)
			if err == nil {
				formatter.Println("%s", completion.Text())
			}
		} else {
			printer := output.NewDeltaPrinter()
			completion, err = service.Stream(ctx, invokeArgs, printer.Delta)
			if err == nil {
				_ = printer.Finish()
			}
		}
		if err != nil {
			// Drop the failed turn so a transient provider error does not
			// poison the replayed conversation.
			history = history[:len(history)-1]
			formatter.Error("Error: %s", err.Error())
			continue
		}

		history = append(history, chat.Assistant(completion.Text()))
		formatter.Println("")
	}

	formatter.Info("Chat session ended. Goodbye!")
	return nil
}

// handleChatCommand handles special chat commands. Returns true to exit.
func handleChatCommand(cmd string, service tokenCountingService, history *[]chat.Message, currentModel *string, formatter *output.Formatter) bool {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return false
	}

	switch strings.ToLower(parts[0]) {
	case "/exit", "/quit":
		return true

	case "/clear":
		var kept []chat.Message
		if chatOpts.SystemPrompt != "" {
			kept = append(kept, chat.System(chatOpts.SystemPrompt))
		}
		*history = kept
		formatter.Success("Conversation history cleared")

	case "/help":
		formatter.Header("Chat Commands")
		formatter.Item("/exit, /quit", "Exit the chat session")
		formatter.Item("/clear", "Clear conversation history")
		formatter.Item("/help", "Show this help message")
		formatter.Item("/model <name>", "Switch to a different model")
		formatter.Item("/tokens", "Count the tokens the next turn would send")
		formatter.Println("")

	case "/model":
		if len(parts) < 2 {
			formatter.Error("usage: /model <model-name>")
			return false
		}
		*currentModel = parts[1]
		formatter.Success("Switched to model: %s", *currentModel)

	case "/tokens":
		count, err := service.CountTokens(model.Arguments{
			Model:    *currentModel,
			Messages: *history,
		})
		if err != nil {
			formatter.Error("Could not count tokens: %s", err.Error())
			return false
		}
		formatter.Item("Prompt tokens", fmt.Sprintf("%d (%d messages)", count, len(*history)))

	default:
		formatter.Error("unknown command: %s (type /help for help)", parts[0])
	}

	return false
}

// tokenCountingService is the slice of the invoke service the chat commands need.
type tokenCountingService interface {
	CountTokens(args model.Arguments) (int, error)
}
