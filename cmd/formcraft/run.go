package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dlovans/formcraft/pkg/form"
	"github.com/dlovans/formcraft/pkg/session"
)

var errSubmitBlocked = errors.New("submission blocked by validation failures")

type runOptions struct {
	file     string
	formID   string
	values   string
	date     string
	converge bool
	passes   int
}

// runResult is what run prints.
type runResult struct {
	State     session.State       `json:"state"`
	Values    form.Snapshot       `json:"values"`
	Failures  map[string][]string `json:"failures"`
	Passes    int                 `json:"passes,omitempty"`
	Converged *bool               `json:"converged,omitempty"`
}

func (c *cli) runCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run (-f form.json | --id ID) --values values.json",
		Short: "Fill in a form and submit it",
		Long: `Open a rendering session, apply each value in field order, then submit.

Each value triggers one derivation pass, exactly as typing into the
rendered form does. With --converge the passes repeat until derived fields
stop changing (capped by derivation.max_passes) and the result is validated
without a session.`,
		Example: `  formcraft run -f order.json --values values.json --date 2024-06-14
  formcraft run --id 3f1c... --values values.json --converge`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRun(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Form JSON file")
	cmd.Flags().StringVar(&opts.formID, "id", "", "Id of a saved form")
	cmd.Flags().StringVar(&opts.values, "values", "", "Values JSON file {fieldId: value}")
	cmd.Flags().StringVar(&opts.date, "date", "", "Effective date (YYYY-MM-DD or RFC3339, defaults to now)")
	cmd.Flags().BoolVar(&opts.converge, "converge", false, "Repeat derivation until it settles")
	cmd.Flags().IntVar(&opts.passes, "max-passes", 0, "Derivation pass cap for --converge (overrides derivation.max_passes)")
	cmd.MarkFlagsMutuallyExclusive("file", "id")
	cmd.MarkFlagsOneRequired("file", "id")
	return cmd
}

func (c *cli) runRun(cmd *cobra.Command, opts runOptions) error {
	today := time.Now()
	if opts.date != "" {
		var err error
		if today, err = form.ParseDate(opts.date); err != nil {
			return err
		}
	}

	f, err := c.resolveForm(cmd, opts)
	if err != nil {
		return err
	}

	values := form.Snapshot{}
	if opts.values != "" {
		data, err := readInput(cmd, opts.values)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("parse values: %w", err)
		}
	}
	for id := range values {
		if field, ok := f.FieldByID(id); !ok {
			c.logger.Warn("ignoring value for unknown field", zap.String("field", id))
		} else if field.IsDerived {
			c.logger.Warn("ignoring value for derived field", zap.String("field", id))
		}
	}

	var result runResult
	if opts.converge {
		result, err = c.converge(f, values, today, opts.passes)
		if err != nil {
			return err
		}
	} else {
		result, err = c.submit(cmd, f, values, today)
		if err != nil && !errors.Is(err, errSubmitBlocked) {
			return err
		}
	}
	if result.Failures == nil {
		result.Failures = map[string][]string{}
	}

	if perr := printJSON(cmd.OutOrStdout(), result); perr != nil {
		return perr
	}
	if result.State != session.StateSubmitted {
		return errSubmitBlocked
	}
	return nil
}

// resolveForm reads the form from a file or from the collection by id.
func (c *cli) resolveForm(cmd *cobra.Command, opts runOptions) (form.Form, error) {
	if opts.formID != "" {
		forms, err := c.openCollection()
		if err != nil {
			return form.Form{}, err
		}
		defer forms.Close()
		return forms.Find(commandContext(cmd), opts.formID)
	}

	data, err := readInput(cmd, opts.file)
	if err != nil {
		return form.Form{}, err
	}
	var f form.Form
	if err := json.Unmarshal(data, &f); err != nil {
		return form.Form{}, fmt.Errorf("parse form: %w", err)
	}
	if err := f.Check(); err != nil {
		return form.Form{}, err
	}
	return f, nil
}

// submit drives a session the way the rendered form does: one SetValue per
// raw field in declaration order, then Submit.
func (c *cli) submit(cmd *cobra.Command, f form.Form, values form.Snapshot, today time.Time) (runResult, error) {
	sess := session.New(
		session.WithClock(func() time.Time { return today }),
		session.WithLogger(c.logger))
	if err := sess.Start(f); err != nil {
		return runResult{}, err
	}

	for _, field := range f.Fields {
		v, ok := values[field.ID]
		if !ok || field.IsDerived {
			continue
		}
		changed, err := sess.SetValue(field.ID, v)
		if err != nil {
			return runResult{}, err
		}
		c.logger.Debug("value applied", zap.String("field", field.ID), zap.Strings("changed", changed))
	}

	err := sess.Submit(commandContext(cmd))
	result := runResult{State: sess.State(), Values: sess.Values(), Failures: sess.Failures()}

	var verr *session.ValidationError
	if errors.As(err, &verr) {
		return result, errSubmitBlocked
	}
	return result, err
}

// converge overlays every raw value at once, coerced to its field's kind, and
// iterates derivation to a fixed point.
func (c *cli) converge(f form.Form, values form.Snapshot, today time.Time, passes int) (runResult, error) {
	if passes <= 0 {
		passes = c.cfg.Derivation.MaxPasses
	}

	snap := form.InitialSnapshot(&f)
	for _, field := range f.Fields {
		v, ok := values[field.ID]
		if !ok || field.IsDerived {
			continue
		}
		coerced, err := form.Coerce(field, v)
		if err != nil {
			return runResult{}, err
		}
		snap[field.ID] = coerced
	}

	engine := form.NewEngine(&f, form.WithDate(today))
	res := form.Converge(engine, snap, passes)
	if !res.Converged {
		c.logger.Warn("derivation did not settle; using last pass",
			zap.Int("passes", res.Passes),
			zap.Strings("changed", res.Changed))
	}

	failures := form.ValidateAll(&f, res.Snapshot)
	state := session.StateSubmitted
	if len(failures) > 0 {
		state = session.StateReady
	}
	converged := res.Converged
	return runResult{
		State:     state,
		Values:    res.Snapshot,
		Failures:  failures,
		Passes:    res.Passes,
		Converged: &converged,
	}, nil
}
