package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/integrity/internal/model"
	"github.com/ppiankov/integrity/internal/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verifyFile     string
	verifyURL      string
	verifyJSON     string
	verifyLanguage string
	verifyUserID   string
	verifyTimeout  time.Duration
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify [text]",
	Short: "Fact-check a piece of text",
	Long: `Verify extracts factual claims from the text, retrieves evidence for each
claim, judges entailment with the configured LLM and prints the run as JSON.

Text is read from the arguments, --file, --url, or standard input.

Example:
  integrity verify "The Eiffel Tower is in Berlin."
  integrity verify --file article.txt --json run.json
  integrity verify --url https://example.com/post --policy graded-v2
  echo "Water boils at 90C at sea level." | integrity verify`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyFile, "file", "", "read text from file")
	verifyCmd.Flags().StringVar(&verifyURL, "url", "", "fetch text from a web page")
	verifyCmd.Flags().StringVar(&verifyJSON, "json", "", "write run JSON to this path instead of stdout")
	verifyCmd.Flags().StringVar(&verifyLanguage, "language", "", "language of explanations (default: pipeline.default_language)")
	verifyCmd.Flags().StringVar(&verifyUserID, "user-id", "", "user identifier echoed in the run")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 10*time.Minute, "overall timeout")
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), verifyTimeout)
	defer cancel()

	env, err := setup(ctx)
	if err != nil {
		return err
	}
	defer env.close()

	text, err := readInput(ctx, env.cfg, cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	p, err := pipeline.NewFromConfig(env.cfg, env.logger, pipeline.WithObserver(progress(env.logger)))
	if err != nil {
		return err
	}

	req := model.VerifyRequest{Text: text, Language: verifyLanguage}
	if verifyUserID != "" {
		req.UserID = &verifyUserID
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Verifying %d characters with %s (policy %s)...\n",
			len([]rune(text)), env.cfg.LLM.Provider, p.PolicyVersion())
	}

	run, err := p.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	if verifyJSON != "" {
		if err := pipeline.WriteJSON(run, verifyJSON); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", verifyJSON)
	} else {
		data, err := pipeline.MarshalRun(run)
		if err != nil {
			return err
		}
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return err
		}
	}

	fmt.Fprintln(os.Stderr)
	pipeline.WriteSummary(os.Stderr, run)
	return nil
}

// readInput picks the text source: --url, --file, arguments, then stdin
func readInput(ctx context.Context, cfg *model.Config, stdin io.Reader, args []string) (string, error) {
	switch {
	case verifyURL != "":
		text, err := pipeline.NewFetcher(cfg).FetchText(ctx, verifyURL)
		if err != nil {
			return "", fmt.Errorf("fetch %s: %w", verifyURL, err)
		}
		return text, nil
	case verifyFile != "":
		data, err := os.ReadFile(verifyFile)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", verifyFile, err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
}

// progress logs stage transitions at debug level
func progress(logger *zap.Logger) pipeline.StageObserver {
	return func(jobID string, stage pipeline.Stage) {
		logger.Debug("stage", zap.String("job_id", jobID), zap.String("stage", string(stage)))
		if verbose && stage == pipeline.StagePerClaimLoop {
			fmt.Fprintf(os.Stderr, "⚙️  Checking claims...\n")
		}
	}
}
