package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdai-explore/beyond-reqif/internal/apperr"
	rio "github.com/jdai-explore/beyond-reqif/internal/io"
	"github.com/jdai-explore/beyond-reqif/internal/ui"
	"github.com/jdai-explore/beyond-reqif/pkg/compare"
	"github.com/jdai-explore/beyond-reqif/pkg/profile"
)

var compareCmd = &cobra.Command{
	Use:   "compare OLD NEW",
	Short: "Compare two ReqIF files",
	Long: `Pairs the requirements of two ReqIF files and reports which were added,
deleted, modified or left unchanged under a comparison profile.

Strategies:
  id-only      pair by identifier
  id-and-text  pair by identifier and flag pairs whose text was replaced
  fuzzy        pair by identifier, then pair the rest by text similarity
  content      pair by text similarity only

Without --format or --output a styled summary is printed. --output picks the
format from its extension (.json, .md, anything else text).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, err := configureLogging(cmd)
		if err != nil {
			return err
		}
		p, err := resolveProfile(cmd, viper.GetString("compare.profile"))
		if err != nil {
			return err
		}
		opts, err := compareOptions("compare")
		if err != nil {
			return err
		}

		wf := ui.NewWorkflow(cmd.ErrOrStderr(), "", isTerminal(cmd.ErrOrStderr()))
		if quiet {
			wf = nil
		}
		res, err := runComparison(cmd.Context(), wf, args[0], args[1], p, opts)
		if err != nil {
			return err
		}

		format := viper.GetString("compare.format")
		output := viper.GetString("compare.output")
		out := cmd.OutOrStdout()
		switch {
		case output != "":
			if err := rio.WriteResult(res, output, format); err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintln(cmd.ErrOrStderr(), ui.FormatStatus("success", "Report written to "+ui.Highlight.Render(output)))
			}
		case format != "":
			actual, err := rio.ResolveFormat(format, "")
			if err != nil {
				return apperr.User(err.Error())
			}
			if err := rio.RenderResult(out, res, actual); err != nil {
				return err
			}
		default:
			ui.NewCompareUI(out, quiet).PrintReport(toCompareReport(res, false, viper.GetInt("compare.max-details")))
		}

		if diffPath := viper.GetString("compare.diff"); diffPath != "" {
			if err := writeDiffs(res, diffPath); err != nil {
				return err
			}
		}
		if viper.GetBool("compare.interactive") && res.Summary.Changed() > 0 {
			if err := ui.RunBrowser(fmt.Sprintf("%s → %s", res.OldSource, res.NewSource), toCompareReport(res, true, 0).Changes); err != nil {
				return err
			}
		}
		if viper.GetBool("compare.fail-on-change") && res.Summary.Changed() > 0 {
			return apperr.Userf("%d change(s) found", res.Summary.Changed())
		}
		return nil
	},
}

// runComparison parses both files and compares them, reporting each step
// on wf when it is non-nil.
func runComparison(ctx context.Context, wf *ui.Workflow, oldPath, newPath string, p *profile.Profile, opts compare.Options) (*compare.Result, error) {
	if wf != nil {
		wf.AddTask("Parse old document")
		wf.AddTask("Parse new document")
		wf.AddTask("Compare requirements")
		wf.Start()
		defer wf.Stop()
	}
	step := func(idx int, msg string) {
		if wf != nil {
			wf.StartTask(idx, msg)
		}
	}
	done := func(idx int, details string) {
		if wf != nil {
			wf.CompleteTask(idx, details)
		}
	}
	fail := func(idx int, err error) {
		if wf != nil {
			wf.FailTask(idx, err.Error())
		}
	}

	step(0, oldPath)
	oldDoc, err := parseDocument(ctx, oldPath)
	if err != nil {
		fail(0, err)
		return nil, err
	}
	done(0, fmt.Sprintf("%d requirements", len(oldDoc.Requirements)))

	step(1, newPath)
	newDoc, err := parseDocument(ctx, newPath)
	if err != nil {
		fail(1, err)
		return nil, err
	}
	done(1, fmt.Sprintf("%d requirements", len(newDoc.Requirements)))

	step(2, p.Name)
	res, err := compare.Compare(oldDoc, newDoc, p, opts)
	if err != nil {
		fail(2, err)
		return nil, err
	}
	for _, w := range oldDoc.Warnings {
		res.Warnings = append(res.Warnings, "old: "+w)
	}
	for _, w := range newDoc.Warnings {
		res.Warnings = append(res.Warnings, "new: "+w)
	}
	done(2, fmt.Sprintf("%d change(s)", res.Summary.Changed()))
	return res, nil
}

func writeDiffs(res *compare.Result, path string) error {
	diff, err := compare.UnifiedDiffs(res)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(diff), 0o644)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func init() {
	addCompareFlags(compareCmd, "compare")
	compareCmd.Flags().StringP("format", "f", "", "Report format on stdout or for --output: text|json|markdown")
	compareCmd.Flags().StringP("output", "o", "", "Write the report to this file")
	compareCmd.Flags().String("diff", "", "Write unified diffs of modified requirements to this file")
	compareCmd.Flags().BoolP("interactive", "i", false, "Browse the changes interactively")
	compareCmd.Flags().Int("max-details", 50, "Changes listed in the styled summary (0 lists all)")
	compareCmd.Flags().Bool("fail-on-change", false, "Exit non-zero when any change is found")

	for _, name := range []string{"format", "output", "diff", "interactive", "max-details", "fail-on-change"} {
		viper.BindPFlag("compare."+name, compareCmd.Flags().Lookup(name))
	}
}
