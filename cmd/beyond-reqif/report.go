package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdai-explore/beyond-reqif/internal/apperr"
	rio "github.com/jdai-explore/beyond-reqif/internal/io"
	"github.com/jdai-explore/beyond-reqif/internal/ui"
)

var reportCmd = &cobra.Command{
	Use:   "report RESULT.json",
	Short: "Render a saved JSON comparison result",
	Long:  "Reads a result written by compare --output result.json and renders it again as text, markdown or the styled summary, or opens it in the interactive browser.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, err := configureLogging(cmd)
		if err != nil {
			return err
		}
		res, err := rio.ReadResult(args[0])
		if err != nil {
			return apperr.Userf("cannot read result %s: %v", args[0], err)
		}

		format := viper.GetString("report.format")
		output := viper.GetString("report.output")
		switch {
		case viper.GetBool("report.interactive"):
			return ui.RunBrowser(res.OldSource+" → "+res.NewSource, toCompareReport(res, true, 0).Changes)
		case output != "":
			return rio.WriteResult(res, output, format)
		case format != "":
			actual, err := rio.ResolveFormat(format, "")
			if err != nil {
				return apperr.User(err.Error())
			}
			return rio.RenderResult(cmd.OutOrStdout(), res, actual)
		default:
			ui.NewCompareUI(cmd.OutOrStdout(), quiet).PrintReport(toCompareReport(res, false, 0))
			return nil
		}
	},
}

func init() {
	reportCmd.Flags().StringP("format", "f", "", "Output format: text|json|markdown")
	reportCmd.Flags().StringP("output", "o", "", "Write the report to this file")
	reportCmd.Flags().BoolP("interactive", "i", false, "Browse the changes interactively")

	for _, name := range []string{"format", "output", "interactive"} {
		viper.BindPFlag("report."+name, reportCmd.Flags().Lookup(name))
	}
}
