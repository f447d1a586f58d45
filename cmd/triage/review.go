package main

import (
	"errors"
	"fmt"

	"github.com/Veraticus/inbox-triage/internal/cli"
	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/engine"
	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/spf13/cobra"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Classify records, then correct them interactively",
		Long: `Classify the records from the configured source and open an interactive
review. Type "<n> <category>" to move record n to Urgent, ReadLater or Ignore.
Your corrections are final for the session: nothing automatic replaces them.

When you are done the corrections are listed and the results can be exported.`,
		RunE: runReview,
	}

	addSourceFlags(cmd)
	addExportFlags(cmd)
	cmd.Flags().String("filter", "all", "records to list: all, urgent, readlater, ignore or failed")

	return cmd
}

func runReview(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	filterFlag, _ := cmd.Flags().GetString("filter")
	filter, err := cli.ParseFilter(filterFlag)
	if err != nil {
		return common.NewUserError("invalid --filter", err)
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx, stop := interrupts.HandleInterrupts(cmd.Context())
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	src, err := a.recordSource(ctx, cmd)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, cli.FormatInfo("Classifying emails..."))
	results, _, err := a.engine.ClassifySource(ctx, src, engine.BatchOptions{})
	if err != nil {
		if errors.Is(err, common.ErrNoRecords) {
			_, _ = fmt.Fprintln(out, cli.FormatInfo("No records to review"))
			return nil
		}
		return err
	}

	records := make([]model.Record, len(results))
	for i, res := range results {
		records[i] = res.Record
	}
	ids := engine.Identities(records)

	_, _ = fmt.Fprintln(out, cli.FormatTitle("Review"))
	changes, err := cli.NewPrompter(cmd.InOrStdin(), out, filter).Review(ctx, a.engine, ids)
	if err != nil {
		if interrupts.WasInterrupted() {
			return nil
		}
		return err
	}

	if text := cli.RenderChanges(changes); text != "" {
		_, _ = fmt.Fprintln(out, text)
	}

	summary, err := a.engine.Summarize(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, cli.RenderSummary(summary))

	return exportResults(ctx, cmd, a, out, ids)
}
