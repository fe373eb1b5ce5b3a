package cli

import (
	"os/signal"
	"syscall"

	"github.com/ppiankov/integrity/internal/pipeline"
	"github.com/ppiankov/integrity/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the verification API over HTTP",
	Long: `Serve exposes the pipeline over HTTP:

  POST /verify   {"text": "...", "user_id": "...", "language": "en"}
  GET  /health
  GET  /

Example:
  integrity serve --addr :8000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8000)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := setup(ctx)
	if err != nil {
		return err
	}
	defer env.close()

	p, err := pipeline.NewFromConfig(env.cfg, env.logger)
	if err != nil {
		return err
	}

	return server.New(env.cfg.Server, p, env.logger.Named("http")).ListenAndServe(ctx)
}
