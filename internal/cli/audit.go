package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pagewarden/pagewarden/internal/extract"
	"github.com/pagewarden/pagewarden/internal/model"
	"github.com/pagewarden/pagewarden/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	auditMode     string
	outJSON       string
	outMD         string
	outHTML       string
	timeout       time.Duration
	userAgent     string
	maxBytes      int64
	noCache       bool
	noFooter      bool
	noRobots      bool
	debugOutput   bool
	ensembleSize  int
	maxConcurrent int
	llmProvider   string
	llmModel      string
	inputFile     string
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit [url]",
	Short: "Audit a page for YMYL compliance violations",
	Long: `Audit runs the full compliance pipeline over one page:
- Fetch and extract content into tagged chunks
- Run an ensemble of independent LLM auditor calls
- Deduplicate findings through a second filter agent
- Render the violations as a report

Example:
  pagewarden audit https://example.com/casino-review --mode casino
  pagewarden audit https://example.com/health-tips --json report.json --md report.md
  pagewarden audit --file page.html --mode generic`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVar(&auditMode, "mode", "generic", "extraction mode (generic, casino)")
	auditCmd.Flags().StringVar(&inputFile, "file", "", "audit a local HTML file instead of a URL")

	// Output flags
	auditCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path")
	auditCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	auditCmd.Flags().StringVar(&outHTML, "html", "", "output HTML path")
	auditCmd.Flags().BoolVar(&debugOutput, "debug", false, "include per-auditor debug output in JSON")
	auditCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// HTTP flags
	auditCmd.Flags().DurationVar(&timeout, "timeout", 15*time.Minute, "overall audit timeout")
	auditCmd.Flags().StringVar(&userAgent, "ua", "Pagewarden/0.2 (+https://github.com/pagewarden/pagewarden)", "HTTP User-Agent")
	auditCmd.Flags().Int64Var(&maxBytes, "max-bytes", 5_000_000, "max response bytes to read")
	auditCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	auditCmd.Flags().BoolVar(&noRobots, "no-robots", false, "skip robots.txt checks")

	// Audit flags
	auditCmd.Flags().IntVar(&ensembleSize, "audits", 5, "number of independent auditor calls")
	auditCmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 5, "cap on in-flight auditor calls")

	// LLM flags
	auditCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	auditCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (provider default if empty)")
}

// buildConfig assembles the run configuration from flags and environment.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.HTTP.Timeout = 30 * time.Second
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.MaxBodyBytes = maxBytes
	cfg.HTTP.RespectRobots = !noRobots
	cfg.Cache.Enabled = !noCache
	cfg.Audit.EnsembleSize = ensembleSize
	cfg.Audit.MaxConcurrent = maxConcurrent
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter
	cfg.Output.Debug = debugOutput
	cfg.LLM.Provider = llmProvider
	cfg.LLM.Model = llmModel

	// API keys come from the environment, never from flags.
	switch llmProvider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}

	return cfg, nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && inputFile == "" {
		return fmt.Errorf("provide a URL argument or --file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	logger := newLogger()
	p, err := pipeline.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}

	mode := extract.ParseMode(auditMode)

	var result *model.AnalysisResult
	var source string
	if inputFile != "" {
		source = inputFile
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return fmt.Errorf("read input file: %w", err)
		}
		result = p.AuditHTML(ctx, string(data), mode)
	} else {
		source = args[0]
		result, err = p.AuditURL(ctx, source, mode)
		if err != nil {
			return fmt.Errorf("audit failed: %w", err)
		}
	}

	if !debugOutput {
		result.Debug = nil
	}

	// Render outputs
	renderer := p.Renderer()
	if outJSON != "" {
		if err := renderer.RenderJSON(result, outJSON); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}
	if outMD != "" {
		if err := renderer.WriteMarkdown(result, source, outMD); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
		}
	}
	if outHTML != "" {
		htmlReport, err := renderer.RenderHTML(result, source)
		if err != nil {
			return err
		}
		if err := os.WriteFile(outHTML, []byte(htmlReport), 0o644); err != nil {
			return fmt.Errorf("write HTML: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote HTML: %s\n", outHTML)
		}
	}

	renderer.RenderSummary(result)

	if !result.Success {
		return fmt.Errorf("audit failed: %s", result.Error)
	}
	return nil
}
