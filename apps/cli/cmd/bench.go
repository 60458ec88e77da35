package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/abdul-hamid-achik/chitose/packages/bench"
	"github.com/abdul-hamid-achik/chitose/packages/http"
	"github.com/spf13/cobra"
)

var benchCmd = &cobra.Command{
	Use:   "bench <method> <url>",
	Short: "Send the same request many times and report latency",
	Long: `Send the same request many times and report latency percentiles.

Every call is independent: its own cookie jar and, unless --pooled is set,
its own connection.

Examples:
  chitose bench get https://api.example.com/items -n 1000 -c 20
  chitose bench post https://api.example.com/items -d @body.json --rate 50
  chitose bench get https://api.example.com/items -n 200 --json`,
	Args: usageArgs(cobra.ExactArgs(2)),
	RunE: benchCommand,
}

var (
	benchRequestsFlag    int
	benchConcurrencyFlag int
	benchRateFlag        float64
	benchJSONFlag        bool
	benchCookieFlag      string
	benchHeaderFlags     []string
	benchDataFlag        string
)

func init() {
	benchCmd.Flags().IntVarP(&benchRequestsFlag, "requests", "n", getEnvInt("CHITOSE_BENCH_REQUESTS", bench.DefaultRequests), "Number of requests (env: CHITOSE_BENCH_REQUESTS)")
	benchCmd.Flags().IntVarP(&benchConcurrencyFlag, "concurrency", "c", getEnvInt("CHITOSE_BENCH_CONCURRENCY", bench.DefaultConcurrency), "Requests in flight at once (env: CHITOSE_BENCH_CONCURRENCY)")
	benchCmd.Flags().Float64VarP(&benchRateFlag, "rate", "r", 0, "Target requests per second (0 = unlimited)")
	benchCmd.Flags().BoolVar(&benchJSONFlag, "json", false, "Output results as JSON")
	benchCmd.Flags().StringVar(&benchCookieFlag, "cookie", "", `Cookie string, "name=value; name2=value2"`)
	benchCmd.Flags().StringArrayVarP(&benchHeaderFlags, "header", "H", nil, `Header "Name: value" (repeatable)`)
	benchCmd.Flags().StringVarP(&benchDataFlag, "data", "d", "", "Request body, or @file")
}

func benchCommand(cmd *cobra.Command, args []string) error {
	method, err := http.ParseMethod(args[0])
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	if err := http.ValidateURL(args[1]); err != nil {
		return withExitCode(ExitUsageError, err)
	}

	body := benchDataFlag
	if strings.HasPrefix(body, "@") {
		data, err := os.ReadFile(strings.TrimPrefix(body, "@"))
		if err != nil {
			return withExitCode(ExitUsageError, fmt.Errorf("cannot read body file: %w", err))
		}
		body = string(data)
	}

	config := &bench.Config{
		Requests:    benchRequestsFlag,
		Concurrency: benchConcurrencyFlag,
		Rate:        benchRateFlag,
	}
	if err := config.Validate(); err != nil {
		return withExitCode(ExitUsageError, err)
	}

	req := &http.Request{
		Method:  method,
		URL:     args[1],
		Cookie:  benchCookieFlag,
		Headers: http.TextHeaders(strings.Join(benchHeaderFlags, "\n")),
		Body:    http.TextBody(body),
	}

	client, release := newClient()
	defer release()

	runner, err := bench.NewRunner(config, client, req)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	reporter := bench.NewReporter(
		bench.WithWriter(cmd.OutOrStdout()),
		bench.WithNoColor(cfg.GetNoColor()),
		bench.WithVerbose(verboseFlag),
	)
	if !benchJSONFlag {
		reporter.Header(version, string(method), args[1], config)
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := runner.Run(ctx)
	if err != nil && ctx.Err() == nil {
		return err
	}
	if ctx.Err() != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "\nReceived interrupt, stopped early")
	}

	if benchJSONFlag {
		if err := reporter.JSONSummary(summary); err != nil {
			return err
		}
	} else {
		reporter.Summary(summary)
	}

	if summary.ErrorCount > 0 {
		return reported(withExitCode(ExitFailure, fmt.Errorf("%d of %d requests failed", summary.ErrorCount, summary.TotalRequests)))
	}
	return nil
}
