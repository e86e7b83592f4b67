// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yshimizu/gh-commit-report/internal/config"
	"github.com/yshimizu/gh-commit-report/internal/domain"
	"github.com/yshimizu/gh-commit-report/internal/gateway"
	"github.com/yshimizu/gh-commit-report/internal/usecase"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregates a user's monthly commit stats and compares them to the prior month",
	Long: `Collects every commit authored by the specified user across the
organization's repositories for the given year and month, fetches each
commit's diff statistics, and derives productivity metrics against the
previous month.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Get the verbose flag from the root command to set up the logger.
		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := log.New(io.Discard, "", log.LstdFlags) // Default: discard all logs.
		if verbose {
			logger.SetOutput(os.Stderr) // If verbose, log to standard error.
		}

		org, _ := cmd.Flags().GetString("org")
		user, _ := cmd.Flags().GetString("user")
		year, _ := cmd.Flags().GetInt("year")
		month, _ := cmd.Flags().GetInt("month")
		format, _ := cmd.Flags().GetString("format")
		token := os.Getenv("GITHUB_TOKEN")
		if token == "" {
			fmt.Fprintln(os.Stderr, "Error: GITHUB_TOKEN environment variable is not set.")
			os.Exit(1)
		}
		if format != "text" && format != "json" {
			fmt.Fprintf(os.Stderr, "Error: unknown --format %q (want text or json).\n", format)
			os.Exit(1)
		}

		// Validate the month window before any network call is made.
		window, err := domain.NewMonthWindow(year, month)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cfg, err := config.NewLoader("GHREPORT").Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, cfg.PipelineTimeout)
		defer cancel()

		// Inject dependencies and run the main business logic.
		githubGateway, err := gateway.NewGitHubGateway(token, cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}
		collector := usecase.NewCollector(githubGateway, logger, cfg.Concurrency)

		// The two month passes run sequentially so the worker pool cap
		// bounds total in-flight requests; the gateway's repository cache
		// keeps the second pass from re-enumerating the organization.
		current, err := collector.CollectMonth(ctx, org, user, window)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to collect current month: %v\n", err)
			os.Exit(1)
		}
		previous, err := collector.CollectMonth(ctx, org, user, window.Previous())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to collect previous month: %v\n", err)
			os.Exit(1)
		}

		report := usecase.Compare(current, previous)

		if format == "json" {
			jsonData, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to marshal report to JSON: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(jsonData))
			return
		}
		renderText(os.Stdout, org, user, report)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringP("org", "o", "", "Target GitHub organization name (required)")
	statsCmd.Flags().StringP("user", "u", "", "Target GitHub user name (required)")
	statsCmd.Flags().IntP("year", "y", 0, "Target year, 4 digits (required)")
	statsCmd.Flags().IntP("month", "m", 0, "Target month, 1-12 (required)")
	statsCmd.Flags().String("format", "text", "Output format: text or json")
	statsCmd.MarkFlagRequired("org")
	statsCmd.MarkFlagRequired("user")
	statsCmd.MarkFlagRequired("year")
	statsCmd.MarkFlagRequired("month")
}
