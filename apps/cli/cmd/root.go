package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/abdul-hamid-achik/chitose/packages/core/config"
	"github.com/abdul-hamid-achik/chitose/packages/http"
	"github.com/abdul-hamid-achik/chitose/packages/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag    string
	logLevelFlag  string
	logFormatFlag string
	logFileFlag   string
	noColorFlag   bool
	verboseFlag   bool
	timeoutFlag   string
	proxyFlag     string
	insecureFlag  bool
	noRedirects   bool
	pooledFlag    bool
	sessionFlag   string
)

// Resolved by the root command before any subcommand runs.
var (
	cfg    = config.DefaultConfig()
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "chitose",
	Short: "Send HTTP requests from the command line. One call, one client.",
	Long: `chitose sends HTTP requests with a cookie string, a set of headers and
an optional body, and prints the response text. Every call builds its own
client and cookie jar, so concurrent calls never share state.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
}

// Execute runs the CLI and exits with the code for the returned error.
func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if !errors.As(err, &ee) || !ee.reported {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(exitCodeFor(err))
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFlag, "config", getEnvString("CHITOSE_CONFIG", ""), "Path to config file (env: CHITOSE_CONFIG)")
	flags.StringVar(&logLevelFlag, "log-level", getEnvString("CHITOSE_LOG_LEVEL", ""), "Log level: trace, debug, info, warn, error, disabled (env: CHITOSE_LOG_LEVEL)")
	flags.StringVar(&logFormatFlag, "log-format", getEnvString("CHITOSE_LOG_FORMAT", ""), "Log format: console, json, text (env: CHITOSE_LOG_FORMAT)")
	flags.StringVar(&logFileFlag, "log-file", getEnvString("CHITOSE_LOG_FILE", ""), "Write logs to a rotated file (env: CHITOSE_LOG_FILE)")
	flags.BoolVar(&noColorFlag, "no-color", getEnvBool("CHITOSE_NO_COLOR", false), "Disable colored output (env: CHITOSE_NO_COLOR)")
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "Verbose output")

	flags.StringVar(&timeoutFlag, "timeout", getEnvString("CHITOSE_TIMEOUT", ""), "Request timeout (e.g., 30s, 1m) (env: CHITOSE_TIMEOUT)")
	flags.StringVar(&proxyFlag, "proxy", getEnvString("CHITOSE_PROXY", ""), "Proxy URL for HTTP requests (env: CHITOSE_PROXY)")
	flags.BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("CHITOSE_INSECURE", false), "Disable SSL certificate validation (env: CHITOSE_INSECURE)")
	flags.BoolVar(&noRedirects, "no-redirects", false, "Do not follow redirects")
	flags.BoolVar(&pooledFlag, "pooled", getEnvBool("CHITOSE_POOLED", false), "Reuse connections across calls (env: CHITOSE_POOLED)")
	flags.StringVar(&sessionFlag, "session", getEnvString("CHITOSE_SESSION", ""), "SQLite file that stores cookies between calls (env: CHITOSE_SESSION)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return withExitCode(ExitUsageError, err)
	})

	rootCmd.AddCommand(getCmd, postCmd, putCmd, deleteCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(kvCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadSettings loads the config file, overlays flags and builds the logger.
func loadSettings(cmd *cobra.Command, args []string) error {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	overlay, err := flagConfig(cmd)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	merged := fileConfig.Merge(overlay)
	if err := merged.Validate(); err != nil {
		return withExitCode(ExitConfigError, err)
	}

	l, err := logging.New(logging.Options{
		Level:    merged.LogLevel,
		Format:   logging.Format(merged.LogFormat),
		NoColor:  merged.GetNoColor(),
		FilePath: merged.LogFile,
		Output:   cmd.ErrOrStderr(),
	})
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	cfg = merged
	logger = l
	return nil
}

// flagConfig turns the flags the user set into a config overlay.
func flagConfig(cmd *cobra.Command) (*config.Config, error) {
	overlay := &config.Config{
		Proxy:     proxyFlag,
		Session:   sessionFlag,
		LogLevel:  logLevelFlag,
		LogFormat: logFormatFlag,
		LogFile:   logFileFlag,
	}

	if timeoutFlag != "" {
		timeout, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err)
		}
		overlay.Timeout = int(timeout.Milliseconds())
	}

	flags := cmd.Flags()
	if insecureFlag {
		overlay.ValidateSSL = config.BoolPtr(false)
	}
	if noRedirects {
		overlay.FollowRedirects = config.BoolPtr(false)
	}
	if flags.Changed("pooled") || pooledFlag {
		overlay.Pooled = config.BoolPtr(pooledFlag)
	}
	if noColorFlag {
		overlay.NoColor = config.BoolPtr(true)
	}

	return overlay, nil
}

// newClient builds a client from the resolved config. Call the returned
// func when done.
func newClient() (*http.Client, func()) {
	opts := []http.ClientOption{
		http.WithTimeout(cfg.TimeoutDuration()),
		http.WithFollowRedirects(cfg.GetFollowRedirects()),
		http.WithValidateSSL(cfg.GetValidateSSL()),
		http.WithProxy(cfg.Proxy),
		http.WithLogger(logger),
	}
	if cfg.MaxRedirects > 0 {
		opts = append(opts, http.WithMaxRedirects(cfg.MaxRedirects))
	}

	if cfg.GetPooled() {
		client := http.NewPooledClient(opts...)
		return client, client.Close
	}
	return http.NewClient(opts...), func() {}
}
