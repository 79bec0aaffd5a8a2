// Package commands implements the CLI commands for modelbridge.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/modelbridge/internal/domain/accounting"
	"github.com/jbctechsolutions/modelbridge/internal/presentation/cli/output"
)

// usageFlags holds the flags for the usage command.
type usageFlags struct {
	Provider string
	Model    string
	Since    string
	Limit    int
	History  bool
}

var usageOpts usageFlags

// NewUsageCmd creates the usage command for ledger reporting.
func NewUsageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Report recorded token usage",
		Long: `Report token usage from the invocation ledger.

By default, aggregate totals are shown. Use --history to list individual
invocations, newest first.

Examples:
  # Show total usage
  mb usage

  # Show usage for one provider over the last day
  mb usage --provider openai --since 24h

  # List the last 20 invocations
  mb usage --history --limit 20`,
		Args: cobra.NoArgs,
		RunE: runUsage,
	}

	cmd.Flags().StringVarP(&usageOpts.Provider, "provider", "p", "", "filter by provider")
	cmd.Flags().StringVarP(&usageOpts.Model, "model", "m", "", "filter by model")
	cmd.Flags().StringVar(&usageOpts.Since, "since", "", "only include invocations newer than this duration (e.g., 24h, 7h30m)")
	cmd.Flags().IntVarP(&usageOpts.Limit, "limit", "l", 0, "maximum rows to list with --history")
	cmd.Flags().BoolVar(&usageOpts.History, "history", false, "list individual invocations")

	return cmd
}

// runUsage reports ledger totals or history.
func runUsage(cmd *cobra.Command, args []string) error {
	formatter := GetFormatter()
	ctx := context.Background()

	container := GetContainer()
	if container == nil {
		return fmt.Errorf("application not initialized")
	}
	if container.UsageRepository() == nil {
		return fmt.Errorf("usage ledger is disabled - enable it in ~/.modelbridge/config.yaml")
	}
	service := container.InvokeService()

	filter, err := buildUsageFilter(usageOpts)
	if err != nil {
		return err
	}

	if usageOpts.History {
		return printHistory(ctx, service, filter, formatter)
	}
	return printTotals(ctx, service, filter, formatter)
}

// buildUsageFilter translates usage flags into a ledger filter.
func buildUsageFilter(opts usageFlags) (accounting.Filter, error) {
	filter := accounting.Filter{
		Provider: opts.Provider,
		Model:    opts.Model,
		Limit:    opts.Limit,
	}

	if opts.Since != "" {
		window, err := time.ParseDuration(opts.Since)
		if err != nil {
			return accounting.Filter{}, fmt.Errorf("invalid --since duration: %w", err)
		}
		filter.Since = time.Now().Add(-window)
	}

	return filter, nil
}

// usageService is the slice of the invoke service the usage command needs.
type usageService interface {
	Usage(ctx context.Context, filter accounting.Filter) (*accounting.Totals, error)
	History(ctx context.Context, filter accounting.Filter) ([]accounting.InvocationRecord, error)
}

// printTotals prints aggregate ledger totals.
func printTotals(ctx context.Context, service usageService, filter accounting.Filter, formatter *output.Formatter) error {
	totals, err := service.Usage(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to query usage: %w", err)
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(totals)
	}

	formatter.Header("Usage")
	formatter.Item("Invocations", fmt.Sprintf("%d", totals.Invocations))
	formatter.Item("Prompt tokens", fmt.Sprintf("%d", totals.PromptTokens))
	formatter.Item("Completion tokens", fmt.Sprintf("%d", totals.CompletionTokens))
	formatter.Item("Total tokens", fmt.Sprintf("%d", totals.TotalTokens))
	return nil
}

// printHistory lists individual ledger rows, newest first.
func printHistory(ctx context.Context, service usageService, filter accounting.Filter, formatter *output.Formatter) error {
	records, err := service.History(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to query usage history: %w", err)
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(records)
	}

	if len(records) == 0 {
		formatter.Info("No recorded invocations")
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		mode := "complete"
		if r.Stream {
			mode = "stream"
		}
		rows = append(rows, []string{
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Provider,
			r.Model,
			mode,
			fmt.Sprintf("%d", r.TotalTokens),
			string(r.UsageSource),
			r.Duration.Round(time.Millisecond).String(),
		})
	}

	return formatter.Table(output.TableData{
		Columns: []output.TableColumn{
			{Header: "WHEN"},
			{Header: "PROVIDER"},
			{Header: "MODEL"},
			{Header: "MODE"},
			{Header: "TOKENS", Align: output.AlignRight},
			{Header: "SOURCE"},
			{Header: "DURATION", Align: output.AlignRight},
		},
		Rows: rows,
	})
}
