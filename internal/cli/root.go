package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/ppiankov/integrity/internal/config"
	"github.com/ppiankov/integrity/internal/logging"
	"github.com/ppiankov/integrity/internal/model"
	"github.com/ppiankov/integrity/internal/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Integrity - claim extraction and evidence-backed fact checking",
	Long: `Integrity splits text into discrete factual claims, searches for evidence
for each claim, asks an LLM whether the evidence supports or contradicts it,
and reports a verdict per claim plus an overall summary.

Verdicts come from a named, versioned policy recorded on every run.`,
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
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "integrity %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initEnv)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.integrity/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	flags.String("provider", "", "LLM provider (groq, xai, openai, anthropic, ollama, http)")
	flags.String("model", "", "LLM model name")
	flags.String("search", "", "search provider (duckduckgo, tavily)")
	flags.String("policy", "", "verdict policy (binary-v1, graded-v2)")
	flags.Int("workers", 0, "claims verified in parallel (1 = sequential)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (json, console)")

	// Bind flags to viper
	for key, flag := range map[string]string{
		"llm.provider":     "provider",
		"llm.model":        "model",
		"search.provider":  "search",
		"pipeline.policy":  "policy",
		"pipeline.workers": "workers",
		"logging.level":    "log-level",
		"logging.format":   "log-format",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(versionCmd)
}

// initEnv loads a .env file from the working directory when present
func initEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to read .env: %v\n", err)
	}
}

// runtimeEnv is what every command needs after configuration is resolved
type runtimeEnv struct {
	cfg      *model.Config
	logger   *zap.Logger
	shutdown func(context.Context) error
}

// setup resolves configuration, builds the logger and starts tracing
func setup(ctx context.Context) (*runtimeEnv, error) {
	cfg, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	if file := viper.ConfigFileUsed(); file != "" {
		logger.Debug("using config file", zap.String("path", file))
	}

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	}

	return &runtimeEnv{cfg: cfg, logger: logger, shutdown: shutdown}, nil
}

// close flushes spans and logs
func (e *runtimeEnv) close() {
	if e.shutdown != nil {
		if err := e.shutdown(context.Background()); err != nil {
			e.logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}
	_ = e.logger.Sync()
}
