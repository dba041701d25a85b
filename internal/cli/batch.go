package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pagewarden/pagewarden/internal/extract"
	"github.com/pagewarden/pagewarden/internal/pipeline"
	"github.com/pagewarden/pagewarden/internal/util"
	"github.com/pagewarden/pagewarden/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency   int
	outputDir     string
	batchTimeout  time.Duration
	ratePerSecond float64
	perHostDelay  time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Audit multiple URLs from a file in parallel",
	Long: `Batch audits multiple URLs concurrently:
- Read URLs from input file (one per line, # comments allowed)
- Audit URLs in parallel with configurable worker count
- Rate-limit fetches per host to stay polite
- Write one JSON and one Markdown report per URL

Example:
  pagewarden batch urls.txt
  pagewarden batch urls.txt --concurrency 4 --output-dir ./reports
  pagewarden batch urls.txt --mode casino --rate 0.5`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 2, "number of concurrent URL audits")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./pagewarden-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", time.Hour, "total timeout for batch processing")
	batchCmd.Flags().Float64Var(&ratePerSecond, "rate", 1, "max fetches per second per host (0 disables)")
	batchCmd.Flags().DurationVar(&perHostDelay, "delay", 0, "extra delay between fetches to the same host")

	batchCmd.Flags().StringVar(&auditMode, "mode", "generic", "extraction mode (generic, casino)")
	batchCmd.Flags().StringVar(&userAgent, "ua", "Pagewarden/0.2 (+https://github.com/pagewarden/pagewarden)", "HTTP User-Agent")
	batchCmd.Flags().Int64Var(&maxBytes, "max-bytes", 5_000_000, "max response bytes to read")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	batchCmd.Flags().BoolVar(&noRobots, "no-robots", false, "skip robots.txt checks")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	batchCmd.Flags().IntVar(&ensembleSize, "audits", 5, "number of independent auditor calls per URL")
	batchCmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 5, "cap on in-flight auditor calls per URL")

	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (provider default if empty)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Batch audit\n")
	fmt.Fprintf(os.Stderr, "  Input file:  %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:     %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Mode:        %s\n", auditMode)
	fmt.Fprintf(os.Stderr, "  Output dir:  %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  LLM:         %s/%s\n\n", cfg.LLM.Provider, cfg.LLM.Model)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	logger := newLogger()
	p, err := pipeline.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}

	mode := extract.ParseMode(auditMode)
	processor := worker.NewBatchProcessor(p, mode, concurrency, ratePerSecond, perHostDelay)

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := p.Renderer()
	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.URL, result.Error)
			continue
		}
		if !result.Result.Success {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %s\n", result.URL, result.Result.Error)
			continue
		}

		successCount++

		slug := util.SafeFilename(result.URL, 80)
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderJSON(result.Result, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.URL, err)
			continue
		}
		if err := renderer.WriteMarkdown(result.Result, result.URL, mdPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.URL, err)
			continue
		}

		fmt.Fprintf(os.Stderr, "✓ %s (%d violations)\n", result.URL, result.Result.UniqueViolations)
	}

	fmt.Fprintf(os.Stderr, "\nBatch complete: %d total, %d succeeded, %d failed\n",
		len(results), successCount, failureCount)
	fmt.Fprintf(os.Stderr, "Reports in %s\n", outputDir)

	return nil
}
