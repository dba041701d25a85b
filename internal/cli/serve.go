package cli

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pagewarden/pagewarden/internal/api"
	"github.com/pagewarden/pagewarden/internal/pipeline"
	"github.com/spf13/cobra"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve exposes the audit pipeline over HTTP:
- POST /api/audit/html  audits raw HTML from the request body
- POST /api/audit/url   fetches and audits a page by URL
- GET  /health          liveness check
- GET  /metrics         Prometheus metrics

Example:
  pagewarden serve --addr :8080
  pagewarden serve --llm-provider ollama`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")

	serveCmd.Flags().StringVar(&userAgent, "ua", "Pagewarden/0.2 (+https://github.com/pagewarden/pagewarden)", "HTTP User-Agent")
	serveCmd.Flags().Int64Var(&maxBytes, "max-bytes", 5_000_000, "max response bytes to read")
	serveCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	serveCmd.Flags().BoolVar(&noRobots, "no-robots", false, "skip robots.txt checks")

	serveCmd.Flags().IntVar(&ensembleSize, "audits", 5, "number of independent auditor calls per request")
	serveCmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 5, "cap on in-flight auditor calls per request")

	serveCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	serveCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (provider default if empty)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	logger := newLogger()
	p, err := pipeline.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}

	server := api.NewServer(p, logger)

	httpServer := &http.Server{
		Addr:              serveAddr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Fprintf(os.Stderr, "Pagewarden API listening on %s\n", serveAddr)
	fmt.Fprintf(os.Stderr, "  LLM: %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
