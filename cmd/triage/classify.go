package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Veraticus/inbox-triage/internal/cli"
	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/config"
	"github.com/Veraticus/inbox-triage/internal/engine"
	"github.com/Veraticus/inbox-triage/internal/export"
	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/Veraticus/inbox-triage/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify records and show the result",
		Long: `Fetch records from the configured source, classify every one of them and
print the result grouped by the chosen filter.

Records matched by a keyword rule never reach the fallback classifier. Records
the fallback cannot classify are shown as failed; use "triage review" to set
them by hand.`,
		RunE: runClassify,
	}

	addSourceFlags(cmd)
	addExportFlags(cmd)
	cmd.Flags().String("filter", "all", "records to show: all, urgent, readlater, ignore or failed")
	cmd.Flags().Int("workers", 0, "parallel classifications (default from config)")
	cmd.Flags().Bool("no-progress", false, "hide the progress bar")
	cmd.Flags().Bool("json", false, "print the run summary as JSON")

	return cmd
}

func runClassify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	filterFlag, _ := cmd.Flags().GetString("filter")
	filter, err := cli.ParseFilter(filterFlag)
	if err != nil {
		return common.NewUserError("invalid --filter", err)
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.fetch(ctx, cmd)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		_, _ = fmt.Fprintln(out, cli.FormatInfo("No records to classify"))
		return nil
	}

	summary, err := classifyWithProgress(ctx, cmd, a, records)
	if err != nil {
		return err
	}

	ids := engine.Identities(records)
	list, err := a.engine.ClassificationsOf(ctx, ids)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, cli.FormatTitle("Triaged Inbox"))
	if err := cli.RenderList(out, cli.Select(list, filter), filter); err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		_, _ = fmt.Fprintln(out, summary.GetDisplay())
	} else {
		_, _ = fmt.Fprintln(out, cli.RenderSummary(summary.Summary))
	}

	return exportResults(ctx, cmd, a, out, ids)
}

// classifyWithProgress runs the batch, ticking a progress bar per record.
func classifyWithProgress(ctx context.Context, cmd *cobra.Command, a *app, records []model.Record) (*engine.BatchSummary, error) {
	opts := engine.BatchOptions{}
	opts.Workers, _ = cmd.Flags().GetInt("workers")

	if hide, _ := cmd.Flags().GetBool("no-progress"); !hide {
		bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(records), "Classifying emails...")
		opts.OnResult = func(res engine.BatchResult) {
			_ = bar.Add(1)
			if res.Err != nil {
				a.logger.Debug("record failed", "subject", res.Record.Subject, "error", res.Err)
			}
		}
	}

	_, summary, err := a.engine.ClassifyBatch(ctx, records, opts)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// addExportFlags registers the export destination flags.
func addExportFlags(cmd *cobra.Command) {
	cmd.Flags().String("export", "", "write the results to this CSV file")
	cmd.Flags().Bool("sheets", false, "write the results to Google Sheets")
}

// exportResults writes the classifications of ids, in that order, to the
// destinations selected by flags.
func exportResults(ctx context.Context, cmd *cobra.Command, a *app, out io.Writer, ids []string) error {
	csvPath, _ := cmd.Flags().GetString("export")
	toSheets, _ := cmd.Flags().GetBool("sheets")
	if csvPath == "" && !toSheets {
		return nil
	}

	rows, err := a.engine.ExportRows(ctx, ids)
	if err != nil {
		return err
	}
	summary, err := a.engine.Summarize(ctx)
	if err != nil {
		return err
	}

	var writers []export.Writer
	if csvPath != "" {
		writers = append(writers, export.NewCSVFileWriter(config.ExpandPath(csvPath)))
	}
	if toSheets {
		sheetsCfg, err := config.LoadSheetsConfig(viper.GetViper())
		if err != nil {
			return common.NewUserError("Google Sheets is not configured", err)
		}
		w, err := sheets.NewWriter(ctx, sheetsCfg, a.logger.With("component", "sheets"))
		if err != nil {
			return err
		}
		writers = append(writers, w)
	}

	var errs []error
	for _, w := range writers {
		location, err := w.Write(ctx, rows, summary)
		if err != nil {
			errs = append(errs, err)
			_, _ = fmt.Fprintln(out, cli.FormatError(err.Error()))
			continue
		}
		_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%s Exported %d rows to %s", cli.ExportIcon, len(rows), location)))
	}
	return errors.Join(errs...)
}
