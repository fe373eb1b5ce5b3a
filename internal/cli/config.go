package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ppiankov/integrity/internal/config"
	"github.com/ppiankov/integrity/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Integrity configuration",
	Long: `Manage Integrity configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (INTEGRITY_*, provider keys such as GROQ_API_KEY)
3. Config file (~/.integrity/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging defaults, config file, env vars and flags. API keys are redacted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}

		if file := viper.ConfigFileUsed(); file != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", file)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		out := cmd.OutOrStdout()
		if err := writeConfigYAML(out, cfg); err != nil {
			return err
		}

		redacted := config.Redacted(cfg)
		fmt.Fprintf(out, "\n# llm.api_key: %s\n", orUnset(redacted.LLM.APIKey))
		fmt.Fprintf(out, "# search.api_key: %s\n", orUnset(redacted.Search.APIKey))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.integrity/config.yaml with all available options.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		configPath := cfgFile
		if configPath == "" {
			if configPath, err = config.DefaultPath(); err != nil {
				return err
			}
		}

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'integrity config show' to view it, or delete it first to recreate", configPath)
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}

		f, err := os.Create(configPath)
		if err != nil {
			return fmt.Errorf("error creating config file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close config file: %w", closeErr)
			}
		}()

		fmt.Fprintf(f, "# Integrity Configuration File\n")
		fmt.Fprintf(f, "#\n")
		fmt.Fprintf(f, "# Configuration hierarchy (highest to lowest priority):\n")
		fmt.Fprintf(f, "#   1. CLI flags\n")
		fmt.Fprintf(f, "#   2. Environment variables (INTEGRITY_*, e.g. INTEGRITY_PIPELINE_WORKERS=4)\n")
		fmt.Fprintf(f, "#   3. This config file\n")
		fmt.Fprintf(f, "#   4. Built-in defaults\n\n")

		if err := writeConfigYAML(f, model.DefaultConfig()); err != nil {
			return err
		}

		fmt.Fprintf(f, "\n# API keys are read from the environment (or a .env file):\n")
		fmt.Fprintf(f, "#   export GROQ_API_KEY=gsk_...\n")
		fmt.Fprintf(f, "#   export OPENAI_API_KEY=sk-...\n")
		fmt.Fprintf(f, "#   export ANTHROPIC_API_KEY=sk-ant-...\n")
		fmt.Fprintf(f, "#   export OLLAMA_BASE_URL=http://localhost:11434\n")
		fmt.Fprintf(f, "#   export TAVILY_API_KEY=tvly-...\n")

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created default configuration: %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func writeConfigYAML(w io.Writer, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}
