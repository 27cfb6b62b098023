// Package cli wires the dossier commands. Every tool takes a workspace
// root as its positional argument, prints a human-readable summary to
// stderr, and leaves machine-readable artifacts under the workspace.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mtautner/dossier/internal/logging"
	"github.com/mtautner/dossier/internal/model"
	"github.com/mtautner/dossier/internal/store"
	"github.com/mtautner/dossier/internal/workspace"
)

var (
	cfgFile  string
	verbose  bool
	logLevel string
	noColor  bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dossier",
	Short: "Dossier - cross-dataset entity resolution for investigative research",
	Long: `Dossier clusters name variants scattered across heterogeneous datasets
into canonical entities, cross-references entities that recur across
datasets, and validates externally authored evidence chains.

It does not decide who is guilty, connected, or suspicious.

Dossier reports which records plausibly describe the same real-world
entity, how confident each merge is, and whether the evidence behind a
claimed link is structurally sound. Every confidence tier comes with a
stated basis; contradictory hard identifiers always win over name
similarity.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for Dossier.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("dossier v0.3.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.dossier/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored log output")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("output.log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("output.no_color", rootCmd.PersistentFlags().Lookup("no-color"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	// Load .env from the current directory for API keys and overrides
	_ = godotenv.Load()

	// Register the built-in defaults with viper so DOSSIER_* variables
	// override keys that are absent from the config file too.
	var defaults map[string]any
	if b, err := yaml.Marshal(model.DefaultConfig()); err == nil {
		if err := yaml.Unmarshal(b, &defaults); err == nil {
			for k, v := range defaults {
				viper.SetDefault(k, v)
			}
		}
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.dossier")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match DOSSIER_*; nested keys
	// use underscores (DOSSIER_RESOLVER_THRESHOLD)
	viper.SetEnvPrefix("DOSSIER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers the resolved viper state over the built-in
// defaults and configures logging. Flags already outrank the file and
// environment through the viper bindings above.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	logging.Setup(cfg.Output.LogLevel, cfg.Output.NoColor)
	return cfg, nil
}

// recordRun books the invocation into the run registry. Registry
// trouble is logged and swallowed: artifacts stay the source of truth
// and a failed bookkeeping write must never fail the tool.
func recordRun(cfg *model.Config, ws *workspace.Workspace, run *store.Run) {
	if !cfg.Store.Enabled {
		return
	}
	path := cfg.Store.Path
	if path == "" {
		path = ws.StorePath()
	}
	st, err := store.Open(path)
	if err != nil {
		logging.Warn().Err(err).Msg("run registry unavailable")
		return
	}
	defer st.Close()
	if err := st.Record(run); err != nil {
		logging.Warn().Err(err).Str("run_id", run.RunID).Msg("record run")
	}
}
