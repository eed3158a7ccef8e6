package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdai-explore/beyond-reqif/internal/ui"
)

var parseCmd = &cobra.Command{
	Use:   "parse FILE...",
	Short: "Parse ReqIF files and summarize their requirements",
	Long:  "Parses .reqif and .reqifz files and prints the number of requirements, header metadata and any problems found. With --json the parsed documents are written to stdout.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, err := configureLogging(cmd)
		if err != nil {
			return err
		}
		asJSON := viper.GetBool("parse.json")

		view := ui.NewValidationUI(cmd.OutOrStdout(), quiet)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		for _, path := range args {
			doc, err := parseDocument(cmd.Context(), path)
			if err != nil {
				return err
			}
			if asJSON {
				if err := enc.Encode(doc); err != nil {
					return err
				}
				continue
			}
			view.PrintDocument(ui.DocumentReport{
				Source:       doc.Source,
				Requirements: len(doc.Requirements),
				Attributes:   doc.Stats.AttributeCount,
				Elements:     doc.Stats.TotalElements,
				Metadata:     doc.Metadata,
				Warnings:     doc.Warnings,
				Errors:       doc.Errors,
			})
		}
		return nil
	},
}

func init() {
	parseCmd.Flags().Bool("json", false, "Write the parsed documents as JSON")
	viper.BindPFlag("parse.json", parseCmd.Flags().Lookup("json"))
}
