package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ppiankov/integrity/internal/llm"
	"github.com/spf13/cobra"
)

var doctorTimeout time.Duration

// doctorCmd represents the doctor command
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the configured LLM provider is reachable",
	Long: `Doctor resolves the configuration, builds the LLM provider and asks it
whether it is reachable with the configured credentials. It exits non-zero
when the provider cannot be used.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().DurationVar(&doctorTimeout, "timeout", 15*time.Second, "timeout for the availability check")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
	defer cancel()

	env, err := setup(ctx)
	if err != nil {
		return err
	}
	defer env.close()

	provider, err := llm.NewProvider(llm.ConfigFromModel(env.cfg))
	if err != nil {
		return fmt.Errorf("llm provider: %w", err)
	}

	return checkProvider(ctx, cmd.OutOrStdout(), provider, env.cfg.LLM.Model)
}

// checkProvider prints one status line and fails when the provider is unreachable
func checkProvider(ctx context.Context, w io.Writer, provider llm.Provider, modelName string) error {
	if provider.IsAvailable(ctx) {
		fmt.Fprintf(w, "✓ LLM provider %s (%s) is reachable\n", provider.Name(), orUnset(modelName))
		return nil
	}
	fmt.Fprintf(w, "✗ LLM provider %s (%s) is not reachable\n", provider.Name(), orUnset(modelName))
	return fmt.Errorf("llm provider %s is not available", provider.Name())
}
