package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dlovans/formcraft/pkg/lint"
)

var errLintFailed = errors.New("lint found errors")

func (c *cli) lintCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "lint [-f form.json]",
		Short: "Statically check a form or draft",
		Long: `Check a form or draft for duplicate ids, calculation types that do not
match isDerived, and derived fields whose source labels resolve to nothing.
Exits with status 1 when any error-severity issue is found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			result, err := lint.Run(string(data))
			if err != nil {
				return fmt.Errorf("lint: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(result.Issues) == 0 {
				fmt.Fprintln(out, "✓ No issues found")
				return nil
			}
			for _, issue := range result.Issues {
				fmt.Fprintln(out, formatIssue(issue))
			}
			if !result.Valid {
				return errLintFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Form JSON file (or use stdin)")
	return cmd
}

func formatIssue(issue lint.Issue) string {
	icon := "⚠"
	if issue.Severity == lint.SeverityError {
		icon = "✗"
	}
	location := ""
	if issue.Field != "" {
		location = fmt.Sprintf(" [field: %s]", issue.Field)
	}
	if issue.Rule != "" {
		location += fmt.Sprintf(" [rule: %s]", issue.Rule)
	}
	return fmt.Sprintf("%s %s%s: %s", icon, issue.Severity, location, issue.Message)
}
