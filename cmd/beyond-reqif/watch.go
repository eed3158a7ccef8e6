package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdai-explore/beyond-reqif/internal/ui"
	"github.com/jdai-explore/beyond-reqif/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch OLD NEW",
	Short: "Re-run a comparison whenever either file changes",
	Long:  "Compares the two files once, then again after every burst of changes to either of them until interrupted. Parse errors are reported and watching continues.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, err := configureLogging(cmd)
		if err != nil {
			return err
		}
		p, err := resolveProfile(cmd, viper.GetString("watch.profile"))
		if err != nil {
			return err
		}
		opts, err := compareOptions("watch")
		if err != nil {
			return err
		}

		w, err := watcher.New(args[0], args[1])
		if err != nil {
			return err
		}
		w.Debounce = viper.GetDuration("watch.debounce")
		w.OnError = func(err error) {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.FormatStatus("error", err.Error()))
		}

		view := ui.NewCompareUI(cmd.OutOrStdout(), quiet)
		maxDetails := viper.GetInt("watch.max-details")
		run := func(ctx context.Context, changed []string) error {
			if len(changed) > 0 && !quiet {
				fmt.Fprintln(cmd.ErrOrStderr(), ui.FormatStatus("info", fmt.Sprintf("%s changed at %s", changed[0], time.Now().Format(time.TimeOnly))))
			}
			res, err := runComparison(ctx, nil, args[0], args[1], p, opts)
			if err != nil {
				return err
			}
			view.PrintReport(toCompareReport(res, false, maxDetails))
			return nil
		}

		if err := run(cmd.Context(), nil); err != nil {
			w.OnError(err)
		}
		if !quiet {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.Dim.Render("Watching for changes, press Ctrl+C to stop"))
		}
		return w.Run(cmd.Context(), run)
	},
}

func init() {
	addCompareFlags(watchCmd, "watch")
	watchCmd.Flags().Duration("debounce", watcher.DefaultDebounce, "Quiet period after a change before comparing")
	watchCmd.Flags().Int("max-details", 20, "Changes listed per run (0 lists all)")

	viper.BindPFlag("watch.debounce", watchCmd.Flags().Lookup("debounce"))
	viper.BindPFlag("watch.max-details", watchCmd.Flags().Lookup("max-details"))
}
