package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dlovans/formcraft/pkg/builder"
	"github.com/dlovans/formcraft/pkg/form"
	"github.com/dlovans/formcraft/pkg/lint"
)

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved forms in save order",
		Args:  cobra.NoArgs,
		RunE:  c.runList,
	}
}

func (c *cli) runList(cmd *cobra.Command, args []string) error {
	forms, err := c.openCollection()
	if err != nil {
		return err
	}
	defer forms.Close()

	out := cmd.OutOrStdout()
	saved := forms.LoadAll(commandContext(cmd))
	if len(saved) == 0 {
		fmt.Fprintln(out, "No forms saved yet. Go create one!")
		return nil
	}
	for _, f := range saved {
		fmt.Fprintf(out, "%s\t%s\tCreated on: %s\n", f.ID, f.Name, f.CreatedAt.Local().Format("2006-01-02"))
	}
	return nil
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one saved form as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runShow,
	}
}

func (c *cli) runShow(cmd *cobra.Command, args []string) error {
	forms, err := c.openCollection()
	if err != nil {
		return err
	}
	defer forms.Close()

	f, err := forms.Find(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), f)
}

func (c *cli) saveCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "save -f draft.json",
		Short: "Persist a draft as a new form",
		Long: `Persist a draft {name, fields} as a new form.

When the draft has no usable name you are asked for one on stdin. An empty
answer accepts the suggestion; end of input cancels the save.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSave(cmd, file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Draft JSON file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (c *cli) runSave(cmd *cobra.Command, file string) error {
	data, err := readInput(cmd, file)
	if err != nil {
		return err
	}
	var draft form.Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return fmt.Errorf("parse draft: %w", err)
	}

	forms, err := c.openCollection()
	if err != nil {
		return err
	}
	defer forms.Close()

	b := builder.New(forms, builder.WithLogger(c.logger))
	b.Load(draft)
	for _, issue := range lint.Check(b.Draft().Fields).Issues {
		fmt.Fprintln(cmd.ErrOrStderr(), formatIssue(issue))
	}

	f, err := b.Save(commandContext(cmd), stdinPrompt(cmd.InOrStdin(), cmd.ErrOrStderr()))
	if errors.Is(err, builder.ErrSaveAborted) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Save cancelled: the form needs a name.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %q as %s\n", f.Name, f.ID)
	return nil
}

// stdinPrompt asks for a form name on in. A blank line accepts the suggested
// name; end of input cancels.
func stdinPrompt(in io.Reader, out io.Writer) builder.PromptFunc {
	return func(suggested string) (string, bool) {
		fmt.Fprintf(out, "Please enter a name for your form: [%s] ", suggested)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return "", false
		}
		if strings.TrimSpace(line) == "" {
			return suggested, true
		}
		return line, true
	}
}

func (c *cli) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a saved form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			forms, err := c.openCollection()
			if err != nil {
				return err
			}
			defer forms.Close()

			if err := forms.Remove(commandContext(cmd), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
