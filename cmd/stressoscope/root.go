package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"stressoscope/internal/config"
	"stressoscope/internal/logging"
	"stressoscope/internal/observability"
)

// isTTY checks if stdout is attached to a terminal.
func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func statusOK(msg string) string    { return green("✔ " + msg) }
func statusWarn(msg string) string  { return yellow("! " + msg) }
func statusError(msg string) string { return red("✘ " + msg) }

// rootOptions carries the persistent flags.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	noColor    bool
}

// loadConfig resolves configuration and applies flag overrides.
func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	return cfg, nil
}

func (o *rootOptions) logger(cfg config.Config) *observability.Logger {
	return observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "stressoscope",
		Short: "Gamified stress assessment backend",
		Long: fmt.Sprintf(`%s

Three mini-games (Cosmic Calm, Memory Matrix, Narrative Journey) produce
behavioural records that are turned into a stress analysis, by an AI
provider when one is configured and by local heuristics otherwise.

%s
  stressoscope serve                      # HTTP API on :8080
  stressoscope analyze results.json       # Analyse a saved results file
  stressoscope story                      # Play the narrative game here
  GROQ_API_KEY=gsk-xxx stressoscope serve # Enable AI analysis`,
			bold("Stress-O-Scope "+appVersion()),
			bold("EXAMPLES:")),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor || !isTTY() {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: ./stressoscope.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format override (json, text)")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable coloured output")

	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newAnalyzeCommand(opts))
	rootCmd.AddCommand(newStoryCommand(opts))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stressoscope %s\n", appVersion())
		},
	}
}

var (
	versionOnce   sync.Once
	cachedVersion string
)

// appVersion returns the best-effort version: STRESSOSCOPE_VERSION, then
// build info, then "development".
func appVersion() string {
	versionOnce.Do(func() {
		cachedVersion = detectVersion()
	})
	return cachedVersion
}

func detectVersion() string {
	if v := strings.TrimSpace(os.Getenv("STRESSOSCOPE_VERSION")); v != "" {
		return v
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && setting.Value != "" {
				rev := setting.Value
				if len(rev) > 12 {
					rev = rev[:12]
				}
				return "dev-" + rev
			}
		}
	}
	return "development"
}

func componentLogger(logger *observability.Logger, component string) logging.Logger {
	return logging.ForComponent(logger, component)
}
