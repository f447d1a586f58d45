package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/inbox-triage/internal/cli"
	"github.com/Veraticus/inbox-triage/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the keyword rules in evaluation order",
		Long: `Show the keyword rule table. Rules are checked top to bottom and the first
match wins, so a promotional email mentioning an interview is still ignored.

Matching is case-insensitive substring containment. Override any list in the
config file under rules.*.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, cli.FormatTitle("Keyword Rules"))

			for i, rule := range cfg.RuleTable().Rules() {
				_, _ = fmt.Fprintf(out, "%d. %s %s\n", i+1,
					cli.BoldStyle.Render(rule.Name),
					cli.DisplayFor(string(rule.Category)).Badge())
				_, _ = fmt.Fprintf(out, "   %s %s\n", cli.SubtleStyle.Render("keywords:"), strings.Join(rule.Keywords, ", "))
				if len(rule.SenderDomains) > 0 {
					_, _ = fmt.Fprintf(out, "   %s %s\n", cli.SubtleStyle.Render("sender domains:"), strings.Join(rule.SenderDomains, ", "))
				}
			}
			return nil
		},
	}
	return cmd
}
