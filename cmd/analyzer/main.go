package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"stock-analyzer/internal/agent"
	"stock-analyzer/internal/fetch"
	"stock-analyzer/internal/interfaces"
	"stock-analyzer/internal/logger"
	"stock-analyzer/internal/market"
	"stock-analyzer/internal/pipeline"
	"stock-analyzer/internal/store"
	"stock-analyzer/internal/timeframe"
	"stock-analyzer/internal/trace"
)

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string
	var tf string

	root := &cobra.Command{
		Use:           "analyzer",
		Short:         "Turns a natural-language stock query into a structured analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	analyze := &cobra.Command{
		Use:   "analyze \"<query>\"",
		Short: "Run the five-stage analysis pipeline for one query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), configPath, args[0], tf)
		},
	}
	analyze.Flags().StringVar(&configPath, "config", "config.yaml", "path to config file")
	analyze.Flags().StringVar(&tf, "timeframe", "", "timeframe override (e.g. 'last week', '2024 Q2')")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the analyzer version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	root.AddCommand(analyze, versionCmd)
	return root
}

func runAnalyze(ctx context.Context, configPath, query, tfOverride string) error {
	_ = godotenv.Load()

	cfg, err := store.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger.Init()
	if err := trace.Init(); err != nil {
		logger.Warn(ctx, "Tracing disabled", "error", err.Error())
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = trace.Shutdown(shutdownCtx)
	}()

	company, err := market.NewCompanyClient(
		cfg.Providers.CompanyBaseURL,
		os.Getenv(market.CompanyKeyEnv),
		cfg.Providers.RequestsPerSecond,
	)
	if err != nil {
		return err
	}
	aggs, err := market.NewAggregatesClient(
		cfg.Providers.AggregatesBaseURL,
		os.Getenv(market.AggregatesKeyEnv),
		cfg.Providers.RequestsPerSecond,
	)
	if err != nil {
		return err
	}

	var scraper interfaces.HeadlineScraper
	if cfg.News.ScraperFallback {
		scraper = market.NewScraper(fetch.RequestTimeout)
	}

	extraction, err := agent.NewExtractor(cfg).Extract(ctx, query)
	if err != nil {
		return err
	}

	tf := extraction.Timeframe
	if tfOverride != "" {
		tf = tfOverride
	}
	if strings.TrimSpace(tf) == "" {
		tf = cfg.Pipeline.DefaultTimeframe
	}
	if tf == "" {
		tf = timeframe.Default
	}

	logger.Info(ctx, "Starting pipeline", "query", query, "company", extraction.Company, "timeframe", tf)

	p := pipeline.New(company, aggs, scraper, cfg.News.MaxArticles)
	result := p.Run(ctx, query, extraction.Company, tf)

	out, err := json.MarshalIndent(agent.Encode(result), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
