package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdai-explore/beyond-reqif/internal/apperr"
	"github.com/jdai-explore/beyond-reqif/internal/ui"
	"github.com/jdai-explore/beyond-reqif/pkg/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage comparison profiles",
	Long:  "Lists, creates, edits, imports, exports and deletes comparison profiles. The system profiles basic, detailed and priority are read-only; create a copy with --from to change them.",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List system and user profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, err := configureLogging(cmd)
		if err != nil {
			return err
		}
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		profiles := store.List()
		if viper.GetBool("profile.list.json") {
			summaries := make([]profile.Summary, len(profiles))
			for i, p := range profiles {
				summaries[i] = p.Summary()
			}
			return encodeJSON(cmd, summaries)
		}
		rows := make([]ui.ProfileRow, len(profiles))
		for i, p := range profiles {
			rows[i] = toProfileRow(p)
		}
		ui.NewProfileUI(cmd.OutOrStdout(), quiet).PrintList(rows)
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show a profile and its attribute weights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, err := configureLogging(cmd)
		if err != nil {
			return err
		}
		p, err := resolveProfile(cmd, args[0])
		if err != nil {
			return err
		}
		switch f := strings.ToLower(viper.GetString("profile.show.format")); f {
		case "json", "yaml":
			data, err := profile.Marshal(p, profile.Format(f))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		case "", "text":
			ui.NewProfileUI(cmd.OutOrStdout(), quiet).PrintDetails(toProfileDetails(p))
			if issues := p.Validate(); len(issues) > 0 && !quiet {
				for _, is := range issues {
					fmt.Fprintln(cmd.ErrOrStderr(), ui.FormatStatus("warning", is))
				}
			}
			return nil
		default:
			return apperr.Userf("unsupported profile format %q (expected text|json|yaml)", f)
		}
	},
}

var profileCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a user profile",
	Long:  "Creates a profile with the standard fields, or a copy of --from. With --interactive the new profile is edited before it is saved.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, err := configureLogging(cmd)
		if err != nil {
			return err
		}
		store, err := openStore(cmd)
		if err != nil {
			return err
		}

		name := strings.TrimSpace(args[0])
		p := profile.New(name)
		if from := viper.GetString("profile.create.from"); from != "" {
			base, err := resolveProfile(cmd, from)
			if err != nil {
				return err
			}
			p = base.Clone(name)
		}
		if d := viper.GetString("profile.create.description"); d != "" {
			p.Description = d
		}
		if viper.GetBool("profile.create.interactive") {
			form := toProfileForm(p, true)
			if err := ui.RunProfileEditor(form); err != nil {
				return err
			}
			if err := applyProfileForm(p, form); err != nil {
				return err
			}
		}
		if err := store.Add(p); err != nil {
			return profileError(err)
		}
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatStatus("success", "Created profile "+ui.Highlight.Render(p.Name)))
		}
		return nil
	},
}

var profileEditCmd = &cobra.Command{
	Use:   "edit NAME",
	Short: "Edit a user profile interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, err := configureLogging(cmd)
		if err != nil {
			return err
		}
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		p, err := store.Get(args[0])
		if err != nil {
			return profileError(err)
		}
		if p.IsSystemProfile {
			return apperr.Userf("%q is a system profile; copy it with: profile create NAME --from %q", p.Name, args[0])
		}

		form := toProfileForm(p, true)
		if err := ui.RunProfileEditor(form); err != nil {
			return err
		}
		if err := applyProfileForm(p, form); err != nil {
			return err
		}
		if err := store.Save(p); err != nil {
			return profileError(err)
		}
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatStatus("success", "Saved profile "+ui.Highlight.Render(p.Name)))
		}
		return nil
	},
}

var profileImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a profile from a JSON or YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, err := configureLogging(cmd)
		if err != nil {
			return err
		}
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		p, err := store.Import(args[0])
		if err != nil {
			return profileError(err)
		}
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatStatus("success", "Imported profile "+ui.Highlight.Render(p.Name)))
		}
		return nil
	},
}

var profileExportCmd = &cobra.Command{
	Use:   "export NAME FILE",
	Short: "Export a profile to a JSON or YAML file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, err := configureLogging(cmd)
		if err != nil {
			return err
		}
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		if err := store.Export(args[0], args[1]); err != nil {
			return profileError(err)
		}
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatStatus("success", "Exported to "+ui.Highlight.Render(args[1])))
		}
		return nil
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a user profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, err := configureLogging(cmd)
		if err != nil {
			return err
		}
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		if !viper.GetBool("profile.delete.yes") {
			confirmed := false
			err := huh.NewConfirm().
				Title(fmt.Sprintf("Delete profile %q?", args[0])).
				Affirmative("Delete").
				Negative("Keep").
				Value(&confirmed).
				Run()
			if err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return apperr.ErrCancelled
				}
				return err
			}
			if !confirmed {
				return apperr.ErrCancelled
			}
		}
		if err := store.Remove(args[0]); err != nil {
			return profileError(err)
		}
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatStatus("success", "Deleted profile "+ui.Highlight.Render(args[0])))
		}
		return nil
	},
}

// profileError turns store errors caused by user input into user errors.
func profileError(err error) error {
	switch {
	case errors.Is(err, profile.ErrProfileNotFound), errors.Is(err, profile.ErrProfileExists),
		errors.Is(err, profile.ErrSystemProfile), errors.Is(err, profile.ErrInvalidProfile):
		if hints := errors.FlattenHints(err); hints != "" {
			return apperr.Userf("%v (%s)", err, hints)
		}
		return apperr.User(err.Error())
	}
	return err
}

func init() {
	profileListCmd.Flags().Bool("json", false, "Write the profile summaries as JSON")
	viper.BindPFlag("profile.list.json", profileListCmd.Flags().Lookup("json"))

	profileShowCmd.Flags().StringP("format", "f", "text", "Output format: text|json|yaml")
	viper.BindPFlag("profile.show.format", profileShowCmd.Flags().Lookup("format"))

	profileCreateCmd.Flags().String("from", "", "Profile to copy")
	profileCreateCmd.Flags().String("description", "", "Profile description")
	profileCreateCmd.Flags().BoolP("interactive", "i", false, "Edit the profile before saving")
	viper.BindPFlag("profile.create.from", profileCreateCmd.Flags().Lookup("from"))
	viper.BindPFlag("profile.create.description", profileCreateCmd.Flags().Lookup("description"))
	viper.BindPFlag("profile.create.interactive", profileCreateCmd.Flags().Lookup("interactive"))

	profileDeleteCmd.Flags().BoolP("yes", "y", false, "Delete without asking")
	viper.BindPFlag("profile.delete.yes", profileDeleteCmd.Flags().Lookup("yes"))

	profileCmd.AddCommand(profileListCmd, profileShowCmd, profileCreateCmd, profileEditCmd,
		profileImportCmd, profileExportCmd, profileDeleteCmd)
}
