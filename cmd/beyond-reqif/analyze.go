package cmd

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdai-explore/beyond-reqif/internal/apperr"
	"github.com/jdai-explore/beyond-reqif/internal/ui"
	"github.com/jdai-explore/beyond-reqif/pkg/analyzer"
	"github.com/jdai-explore/beyond-reqif/pkg/profile"
	"github.com/jdai-explore/beyond-reqif/pkg/reqif"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE...",
	Short: "Discover the attributes of ReqIF files and suggest comparison profiles",
	Long: `Analyzes every attribute found across the given files: coverage, value types,
uniqueness and a suggested comparison weight. Quality checks flag ids outside
the PREFIX-NUMBER convention, short bodies, missing essential attributes and
duplicated text.

--save-profile stores a profile built from the analysis; combine it with
--suggestion to keep only the attributes of one suggested profile.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, err := configureLogging(cmd)
		if err != nil {
			return err
		}

		var docs []*reqif.ParsedDocument
		var issues []analyzer.Issue
		seen := analyzer.NewTextSeen()
		total := 0
		for _, path := range args {
			doc, err := parseDocument(cmd.Context(), path)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
			reqs := doc.List()
			total += len(reqs)
			issues = append(issues, analyzer.CheckConsistency(reqs)...)
			issues = append(issues, analyzer.DetectDuplicates(reqs, seen)...)
		}
		stats := analyzer.AnalyzeDocuments(docs...)
		maxRec := viper.GetInt("analyze.max-recommended")

		switch {
		case viper.GetBool("analyze.json"):
			if err := encodeJSON(cmd, map[string]any{
				"attributes":  stats,
				"summary":     analyzer.Summarize(stats),
				"recommended": analyzer.RecommendedAttributes(stats, maxRec),
				"suggestions": analyzer.SuggestProfiles(stats),
				"issues":      issues,
			}); err != nil {
				return err
			}
		case viper.GetBool("analyze.plain"):
			fmt.Fprint(cmd.OutOrStdout(), analyzer.Report(stats))
		default:
			ui.NewAnalysisUI(cmd.OutOrStdout(), quiet).PrintReport(toAnalysisReport(args, total, stats, issues, maxRec))
		}

		name := strings.TrimSpace(viper.GetString("analyze.save-profile"))
		if name == "" {
			return nil
		}
		p, err := profileFromAnalysis(name, viper.GetString("analyze.suggestion"), stats)
		if err != nil {
			return err
		}
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		if err := store.Add(p); err != nil {
			if errors.Is(err, profile.ErrProfileExists) {
				return apperr.Userf("profile %q already exists; choose another --save-profile name", name)
			}
			return err
		}
		if !quiet {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.FormatStatus("success", fmt.Sprintf("Saved profile %s", ui.Highlight.Render(p.Name))))
		}
		return nil
	},
}

func profileFromAnalysis(name, suggestion string, stats map[string]*analyzer.AttributeStats) (*profile.Profile, error) {
	suggestion = strings.TrimSpace(suggestion)
	if suggestion == "" {
		return analyzer.ProfileFromAnalysis(name, stats), nil
	}
	var names []string
	for _, s := range analyzer.SuggestProfiles(stats) {
		if strings.EqualFold(s.Name, suggestion) {
			p := analyzer.ProfileFromSuggestion(s, stats)
			p.Name = name
			return p, nil
		}
		names = append(names, s.Name)
	}
	return nil, apperr.Userf("no suggested profile named %q (available: %s)", suggestion, strings.Join(names, ", "))
}

func init() {
	analyzeCmd.Flags().Bool("json", false, "Write the analysis as JSON")
	analyzeCmd.Flags().Bool("plain", false, "Write a plain text report")
	analyzeCmd.Flags().Int("max-recommended", analyzer.DefaultMaxRecommended, "Number of attributes to recommend")
	analyzeCmd.Flags().String("save-profile", "", "Store a profile built from the analysis under this name")
	analyzeCmd.Flags().String("suggestion", "", "Suggested profile to base --save-profile on")

	for _, name := range []string{"json", "plain", "max-recommended", "save-profile", "suggestion"} {
		viper.BindPFlag("analyze."+name, analyzeCmd.Flags().Lookup(name))
	}
}
