package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdai-explore/beyond-reqif/internal/ui"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "beyond-reqif",
	Short: "Compare, analyze and validate ReqIF requirement documents",
	Long:  longDescription,

	SilenceUsage: true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initUIAndBanner(cmd)
	},

	// When invoked without a subcommand, show help (with banner) instead of
	// printing a plain usage output.
	RunE: func(cmd *cobra.Command, args []string) error {
		initUIAndBanner(cmd)
		return cmd.Help()
	},
}

var (
	cfgFile     string
	version     string
	logLevel    string
	noColor     bool
	profilesDir string
)

// SetVersion sets the version for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// GetRootCmd returns the root command for use with fang
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.beyond-reqif.yaml or ./config/defaults.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "standard", "Log level: quiet|standard|debug")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&profilesDir, "profiles-dir", "", "Directory holding user comparison profiles (default is $HOME/.beyond-reqif/profiles)")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("ui.no-color", rootCmd.PersistentFlags().Lookup("no-color"))
	viper.BindPFlag("profiles.dir", rootCmd.PersistentFlags().Lookup("profiles-dir"))

	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		initUIAndBanner(cmd)
		defaultHelp(cmd, args)
	})

	rootCmd.AddCommand(parseCmd, validateCmd, analyzeCmd, compareCmd, batchCmd, watchCmd, reportCmd, profileCmd)
}

func initConfig() {
	// A .env file in the working directory seeds REQIFDIFF_* variables.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, ui.Warning.Render("Ignoring .env: "+err.Error()))
	}

	// Environment variables override the config file, e.g.
	// compare.strategy -> REQIFDIFF_COMPARE_STRATEGY.
	viper.SetEnvPrefix("REQIFDIFF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		cobra.CheckErr(viper.ReadInConfig())
		announceConfig()
		return
	}

	home, err := os.UserHomeDir()
	cobra.CheckErr(err)

	viper.SetConfigType("yaml")
	viper.AddConfigPath(home)
	viper.AddConfigPath("./config")

	viper.SetConfigName(".beyond-reqif")
	err = viper.ReadInConfig()

	notFound := viper.ConfigFileNotFoundError{}
	if err != nil && errors.As(err, &notFound) {
		viper.SetConfigName("defaults")
		err = viper.ReadInConfig()
	}
	switch {
	case err != nil && !errors.As(err, &notFound):
		cobra.CheckErr(err)
	case err == nil:
		announceConfig()
	}
}

func announceConfig() {
	if strings.EqualFold(viper.GetString("log.level"), "quiet") {
		return
	}
	configMsg := ui.Dim.Render("Using config file: ") + ui.Secondary.Render(viper.ConfigFileUsed())
	fmt.Fprintln(os.Stderr, configMsg)
}

// defaultProfilesDir is used when neither the flag nor the config names one.
func defaultProfilesDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".beyond-reqif", "profiles")
	}
	return filepath.Join(home, ".beyond-reqif", "profiles")
}

const longDescription = "Compare versions of ReqIF requirement documents with configurable attribute profiles, analyze which attributes they carry, and validate their structure."

func initUIAndBanner(cmd *cobra.Command) {
	if cmd == nil {
		return
	}
	ui.Init(viper.GetBool("ui.no-color"))
	cmd.Root().Long = ui.RenderBanner(ui.BannerASCII) + "\n" + longDescription
}
