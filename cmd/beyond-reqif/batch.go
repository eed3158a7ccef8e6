package cmd

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdai-explore/beyond-reqif/internal/apperr"
	rio "github.com/jdai-explore/beyond-reqif/internal/io"
	"github.com/jdai-explore/beyond-reqif/internal/ui"
	"github.com/jdai-explore/beyond-reqif/pkg/compare"
	"github.com/jdai-explore/beyond-reqif/pkg/reqif"
)

var batchCmd = &cobra.Command{
	Use:   "batch OLD_DIR NEW_DIR",
	Short: "Compare every ReqIF file of two folders",
	Long: `Walks both folders, joins files on their relative path and pairs renamed
files by name similarity, then compares each pair. Files found on one side
only count all their requirements as added or deleted. A file that fails to
parse is reported and does not stop the others.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, err := configureLogging(cmd)
		if err != nil {
			return err
		}
		p, err := resolveProfile(cmd, viper.GetString("batch.profile"))
		if err != nil {
			return err
		}
		opts, err := compareOptions("batch")
		if err != nil {
			return err
		}

		bopts := compare.BatchOptions{
			Options:            opts,
			Include:            viper.GetStringSlice("batch.include"),
			MaxFiles:           viper.GetInt("batch.max-files"),
			Workers:            viper.GetInt("batch.workers"),
			FileMatchThreshold: viper.GetFloat64("batch.file-match-threshold"),
			Scratch:            afero.NewMemMapFs(),
		}

		var tracker *ui.ProgressTracker
		if !quiet && isTerminal(cmd.ErrOrStderr()) {
			tracker = ui.NewProgressTracker(cmd.ErrOrStderr(), "Comparing folders", 0)
			tracker.Start()
			bopts.Progress = tracker.Advance
		}
		br, err := compare.CompareFolders(cmd.Context(), afero.NewOsFs(), args[0], args[1], p, bopts)
		tracker.Complete(err)
		if err != nil {
			switch {
			case errors.Is(err, reqif.ErrFileNotFound), errors.Is(err, compare.ErrNotDirectory):
				return apperr.User(err.Error())
			case errors.Is(err, compare.ErrTooManyFiles):
				return apperr.Userf("%v (%s)", err, errors.FlattenHints(err))
			}
			return err
		}

		format := viper.GetString("batch.format")
		output := viper.GetString("batch.output")
		switch {
		case output != "":
			if err := rio.WriteBatch(br, output, format); err != nil {
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
			if err := rio.RenderBatch(cmd.OutOrStdout(), br, actual); err != nil {
				return err
			}
		default:
			ui.NewBatchUI(cmd.OutOrStdout(), quiet).PrintReport(toBatchReport(br))
		}

		if br.Failed > 0 {
			return apperr.Userf("%d of %d file pair(s) could not be compared", br.Failed, len(br.Files))
		}
		return nil
	},
}

func init() {
	addCompareFlags(batchCmd, "batch")
	batchCmd.Flags().StringSlice("include", compare.DefaultInclude, "Glob patterns (** allowed) selecting files relative to each folder")
	batchCmd.Flags().Int("max-files", compare.DefaultMaxFiles, "Refuse folders holding more matching files than this, both sides together")
	batchCmd.Flags().Int("workers", 4, "File pairs compared concurrently")
	batchCmd.Flags().Float64("file-match-threshold", compare.DefaultFileMatchThreshold, "Name similarity needed to pair renamed files")
	batchCmd.Flags().StringP("format", "f", "", "Report format on stdout or for --output: text|json|markdown")
	batchCmd.Flags().StringP("output", "o", "", "Write the report to this file")

	for _, name := range []string{"include", "max-files", "workers", "file-match-threshold", "format", "output"} {
		viper.BindPFlag("batch."+name, batchCmd.Flags().Lookup(name))
	}
}
