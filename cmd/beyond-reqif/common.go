package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdai-explore/beyond-reqif/internal/apperr"
	"github.com/jdai-explore/beyond-reqif/internal/ui"
	"github.com/jdai-explore/beyond-reqif/internal/watcher"
	"github.com/jdai-explore/beyond-reqif/pkg/analyzer"
	"github.com/jdai-explore/beyond-reqif/pkg/compare"
	"github.com/jdai-explore/beyond-reqif/pkg/profile"
	"github.com/jdai-explore/beyond-reqif/pkg/reqif"
)

// configureLogging wires package logging to stderr according to log.level
// and reports whether output should be quiet.
func configureLogging(cmd *cobra.Command) (quiet bool, err error) {
	level := strings.ToLower(strings.TrimSpace(viper.GetString("log.level")))
	if level == "" {
		level = "standard"
	}
	switch level {
	case "quiet", "standard", "debug":
		// ok
	default:
		return false, apperr.Userf("invalid --log-level %q (expected quiet|standard|debug)", level)
	}

	var lw io.Writer
	if level != "quiet" {
		lw = cmd.ErrOrStderr()
	}
	compare.SetLogger(lw)
	profile.SetLogger(lw)
	watcher.SetLogger(lw)

	debug := level == "debug"
	var dw io.Writer
	if debug {
		dw = lw
	}
	reqif.SetLogger(dw)
	reqif.SetVerbose(debug)
	analyzer.SetLogger(dw)
	profile.SetVerbose(debug)

	return level == "quiet", nil
}

// openStore opens the profile store in profiles.dir.
func openStore(cmd *cobra.Command) (*profile.Store, error) {
	dir := strings.TrimSpace(viper.GetString("profiles.dir"))
	if dir == "" {
		dir = defaultProfilesDir()
	}
	store, err := profile.NewStore(afero.NewOsFs(), dir)
	if err != nil {
		return nil, errors.Wrapf(err, "open profile store %s", dir)
	}
	for _, w := range store.Warnings() {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.FormatStatus("warning", w))
	}
	return store, nil
}

// resolveProfile loads a profile by name or system key, or from a profile
// file when the argument ends in .json, .yaml or .yml.
func resolveProfile(cmd *cobra.Command, name string) (*profile.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return profile.Default(), nil
	}
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".json") || strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		data, err := afero.ReadFile(afero.NewOsFs(), name)
		if err != nil {
			return nil, apperr.Userf("cannot read profile file %s: %v", name, err)
		}
		p, err := profile.Unmarshal(data, profile.FormatForPath(name))
		if err != nil {
			return nil, errors.Wrapf(err, "profile file %s", name)
		}
		return p, nil
	}

	store, err := openStore(cmd)
	if err != nil {
		return nil, err
	}
	p, err := store.Get(name)
	if err != nil {
		if hints := errors.FlattenHints(err); hints != "" {
			return nil, apperr.Userf("%v (%s)", err, hints)
		}
		return nil, apperr.User(err.Error())
	}
	return p, nil
}

// parseDocument parses one ReqIF file and turns a missing or unsupported
// file into a user error.
func parseDocument(ctx context.Context, path string) (*reqif.ParsedDocument, error) {
	doc, err := reqif.ParseFile(ctx, path, reqif.Options{})
	if err != nil {
		switch {
		case errors.Is(err, reqif.ErrFileNotFound):
			return nil, apperr.Userf("file not found: %s", path)
		case errors.Is(err, reqif.ErrUnsupportedFormat):
			return nil, apperr.Userf("%v (%s)", err, errors.FlattenHints(err))
		}
		return nil, err
	}
	return doc, nil
}

func compareOptions(prefix string) (compare.Options, error) {
	strategy, err := compare.ParseStrategy(viper.GetString(prefix + ".strategy"))
	if err != nil {
		return compare.Options{}, apperr.Userf("%v (expected one of %s)", err, strategyNames())
	}
	return compare.Options{
		Strategy:       strategy,
		MinorThreshold: compare.Threshold(viper.GetFloat64(prefix + ".minor-threshold")),
		MajorThreshold: compare.Threshold(viper.GetFloat64(prefix + ".major-threshold")),
		FuzzyLimit:     viper.GetInt(prefix + ".fuzzy-limit"),
	}, nil
}

func strategyNames() string {
	names := make([]string, len(compare.Strategies))
	for i, s := range compare.Strategies {
		names[i] = string(s)
	}
	return strings.Join(names, "|")
}

func addCompareFlags(cmd *cobra.Command, prefix string) {
	cmd.Flags().StringP("strategy", "s", string(compare.IDOnly), "Matching strategy: "+strategyNames())
	cmd.Flags().StringP("profile", "p", "", "Comparison profile name, system key (basic|detailed|priority) or profile file")
	cmd.Flags().Float64("minor-threshold", compare.DefaultMinorThreshold, "Field similarity at or above which a change is minor")
	cmd.Flags().Float64("major-threshold", compare.DefaultMajorThreshold, "Field similarity below which a change is major")
	cmd.Flags().Int("fuzzy-limit", compare.DefaultFuzzyLimit, "Largest side size for similarity pairing before falling back to id-only")

	for _, name := range []string{"strategy", "profile", "minor-threshold", "major-threshold", "fuzzy-limit"} {
		viper.BindPFlag(prefix+"."+name, cmd.Flags().Lookup(name))
	}
}

func encodeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
