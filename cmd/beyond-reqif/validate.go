package cmd

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/jdai-explore/beyond-reqif/internal/apperr"
	"github.com/jdai-explore/beyond-reqif/internal/ui"
	"github.com/jdai-explore/beyond-reqif/pkg/reqif"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Check that files are well-formed ReqIF",
	Long:  "Checks the extension, archive layout, XML well-formedness and the REQ-IF structure of each file. Exits non-zero when any file is invalid.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, err := configureLogging(cmd)
		if err != nil {
			return err
		}

		view := ui.NewValidationUI(cmd.OutOrStdout(), quiet)
		fsys := afero.NewOsFs()
		invalid := 0
		for _, path := range args {
			report := reqif.ValidateFile(fsys, path)
			if !report.Valid {
				invalid++
			}
			view.PrintReport(ui.ValidationReport{
				Path:     report.Path,
				Valid:    report.Valid,
				Errors:   report.Errors(),
				Warnings: report.Warnings(),
			})
		}
		if invalid > 0 {
			return apperr.Userf("%d of %d file(s) failed validation", invalid, len(args))
		}
		return nil
	},
}
