package main

// @title           Lexis Core API
// @version         1.0
// @description     Legal knowledge engine API. Lexis Core ingests legislation, PDFs and monitored web pages and selects the fragments that ground an assistant's answers.

// @contact.name   Lexis OSS
// @contact.url    https://github.com/custodia-labs/lexis-core/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/custodia-labs/lexis-core/docs"
	"github.com/custodia-labs/lexis-core/internal/config"
)

// Version information, set at build time via ldflags
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	configPath string
	envFile    string

	// cfg and logger are populated before any subcommand runs
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lexis-core",
	Short: "Legal knowledge engine",
	Long: `Lexis Core ingests legislation, PDFs and monitored web pages into a
vector knowledge base and selects the fragments that ground an assistant's answers.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath, envFile)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = newLogger(cfg)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default: $LEXIS_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load; missing files are ignored")
}

func newLogger(c *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
