package cmd

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/ecohtml/internal/config"
	"github.com/conneroisu/ecohtml/internal/logging"
	"github.com/conneroisu/ecohtml/internal/rules"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	cfgFile  string
	logLevel string
	noColor  bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "ecohtml",
		Short: "An eco-design analyzer for HTML pages and templates",
		Long: `ecohtml scans HTML-like documents (HTML, JSP, PHP pages, Vue single-file
components) for patterns that waste energy on the client, and reports each
occurrence with its location and remediation cost.

Quick Start:
  ecohtml analyze                 Analyze the current directory
  ecohtml analyze site/ --workers 4
  ecohtml rules                   List the available rules
  ecohtml watch                   Re-analyze pages on save`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().
		StringVar(&opts.cfgFile, "config", "", "config file (default is .ecohtml.yml, can also use ECOHTML_CONFIG_FILE env var)")
	cmd.PersistentFlags().
		StringVarP(&opts.logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().
		BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		newAnalyzeCmd(opts),
		newRulesCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(opts),
	)

	return cmd
}

// session is what a command runs with once its configuration is resolved.
type session struct {
	cfg     *config.Config
	logger  logging.Logger
	catalog *rules.Catalog
}

// load resolves the configuration of cmd. bindings maps flag names of cmd
// onto configuration keys; a flag only overrides its key when it is set on
// the command line.
func (o *globalOptions) load(cmd *cobra.Command, bindings map[string]string) (*session, error) {
	v := viper.New()
	if err := initConfig(v, o.cfgFile, cmd.ErrOrStderr()); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	if err := bindFlags(v, cmd, map[string]string{"log-level": "log.level"}); err != nil {
		return nil, err
	}
	if err := bindFlags(v, cmd, bindings); err != nil {
		return nil, err
	}

	cfg, err := config.LoadFrom(v)
	if err != nil {
		return nil, err
	}
	if o.noColor {
		cfg.Output.Color = config.ColorNever
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})

	if result := config.ValidateWithDetails(cfg); result.HasWarnings() {
		for _, w := range result.Warnings {
			logger.Warn(commandContext(cmd), nil, w.Message, "field", w.Field, "value", w.Value)
		}
	}

	catalog, err := rules.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load rule catalog: %w", err)
	}

	return &session{cfg: cfg, logger: logger.WithComponent("cli"), catalog: catalog}, nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, bindings map[string]string) error {
	for name, key := range bindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}
	return nil
}

// initConfig points v at the configuration file and enables environment
// overrides.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. ECOHTML_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .ecohtml.yml in current directory
//
// A missing default file is not an error; a missing explicit one is.
func initConfig(v *viper.Viper, cfgFile string, stderr io.Writer) error {
	explicit := true
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(config.EnvPrefix + "_CONFIG_FILE"); envConfigFile != "" {
		v.SetConfigFile(envConfigFile)
	} else {
		explicit = false
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(config.FileName)
	}

	// ECOHTML_OUTPUT_FORMAT, ECOHTML_ANALYSIS_WORKERS, ...
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !explicit && stderrors.As(err, &notFound) {
			return nil
		}
		return err
	}

	fmt.Fprintln(stderr, "Using config file:", v.ConfigFileUsed())
	return nil
}

// useColor reports whether output written to w is colored under mode.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}

	if color.NoColor {
		return false
	}
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
