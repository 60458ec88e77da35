package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/chitose/packages/http"
	"github.com/abdul-hamid-achik/chitose/packages/kv"
	"github.com/abdul-hamid-achik/chitose/packages/output"
	"github.com/abdul-hamid-achik/chitose/packages/schema"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	cookieFlag      string
	headerFlags     []string
	jsonHeadersFlag string
	dataFlag        string
	pathFlag        string
	schemaFlag      string
	outputFlag      string
	watchFlag       bool
)

var (
	getCmd    = newRequestCmd(http.MethodGet)
	postCmd   = newRequestCmd(http.MethodPost)
	putCmd    = newRequestCmd(http.MethodPut)
	deleteCmd = newRequestCmd(http.MethodDelete)
)

func newRequestCmd(method http.Method) *cobra.Command {
	name := strings.ToLower(string(method))
	bodyHelp := "Request body, or @file to read it from a file (@- for stdin)"
	if method == http.MethodGet {
		bodyHelp = "JSON object whose top-level pairs become query parameters, or @file"
	}

	cmd := &cobra.Command{
		Use:   name + " <url>",
		Short: fmt.Sprintf("Send a %s request and print the response text", method),
		Long: fmt.Sprintf(`Send a %s request and print the response text.

Examples:
  chitose %s https://api.example.com/items -c "session=abc; theme=dark"
  chitose %s https://api.example.com/items -H "Accept: application/json" -d @body.json
  chitose %s https://api.example.com/items --json-headers '{"X-Id": "7"}' --path data.0.id`,
			method, name, name, name),
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return requestCommand(cmd, method, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cookieFlag, "cookie", "c", "", `Cookie string, "name=value; name2=value2"`)
	flags.StringArrayVarP(&headerFlags, "header", "H", nil, `Header "Name: value" (repeatable)`)
	flags.StringVar(&jsonHeadersFlag, "json-headers", "", "Headers as a flat JSON object; replaces -H")
	flags.StringVarP(&dataFlag, "data", "d", "", bodyHelp)
	flags.StringVar(&pathFlag, "path", "", "Print only the value at this gjson path")
	flags.StringVar(&schemaFlag, "schema", "", "Check the response against a JSON Schema file")
	flags.StringVarP(&outputFlag, "output", "o", getEnvString("CHITOSE_OUTPUT", "console"), "Output format: console, json (env: CHITOSE_OUTPUT)")
	flags.BoolVarP(&watchFlag, "watch", "w", false, "Resend whenever the -d @file body changes")
	return cmd
}

func requestCommand(cmd *cobra.Command, method http.Method, rawURL string) error {
	formatter, err := output.New(outputFlag, cmd.OutOrStdout(), verboseFlag, cfg.GetNoColor())
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	errFormatter, _ := output.New(outputFlag, cmd.ErrOrStderr(), verboseFlag, cfg.GetNoColor())

	bodyFile := ""
	if strings.HasPrefix(dataFlag, "@") {
		bodyFile = strings.TrimPrefix(dataFlag, "@")
	}
	if watchFlag && (bodyFile == "" || bodyFile == "-") {
		return withExitCode(ExitUsageError, errors.New("--watch needs a body file (-d @file)"))
	}

	var check *schema.Schema
	if schemaFlag != "" {
		check, err = schema.Load(schemaFlag)
		if err != nil {
			return withExitCode(ExitUsageError, err)
		}
	}

	var store kv.Store
	if cfg.Session != "" {
		s, err := kv.NewSQLiteStore(cfg.Session)
		if err != nil {
			return withExitCode(ExitConfigError, err)
		}
		defer s.Close()
		store = s
	}

	client, release := newClient()
	defer release()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	call := &requestCall{
		method:    method,
		rawURL:    rawURL,
		bodyFile:  bodyFile,
		in:        cmd.InOrStdin(),
		client:    client,
		store:     store,
		check:     check,
		formatter: formatter,
		errors:    errFormatter,
	}

	// In watch mode a failed first call keeps watching; its error decides
	// the exit code once the watch ends.
	firstErr := call.run(ctx)
	if !watchFlag {
		return firstErr
	}
	if err := watchBody(ctx, cmd.OutOrStdout(), call); err != nil {
		return err
	}
	return firstErr
}

// requestCall holds everything needed to send the command's request again.
type requestCall struct {
	method    http.Method
	rawURL    string
	bodyFile  string
	in        io.Reader
	client    *http.Client
	store     kv.Store
	check     *schema.Schema
	formatter output.Formatter
	errors    output.Formatter
}

func (c *requestCall) run(ctx context.Context) error {
	err := c.send(ctx)
	if err != nil {
		var ee *exitError
		if !errors.As(err, &ee) || !ee.reported {
			c.errors.FormatError(err)
		}
		return reported(err)
	}
	return nil
}

func (c *requestCall) send(ctx context.Context) error {
	req, err := c.build(ctx)
	if err != nil {
		return err
	}

	resp, err := c.client.Send(ctx, req)
	if err != nil {
		return err
	}

	if c.store != nil && len(resp.Cookies) > 0 {
		if err := kv.SaveCookies(ctx, c.store, resp.URL, resp.Cookies); err != nil {
			logger.Warn().Err(err).Msg("failed to save session cookies")
		}
	}

	if pathFlag != "" {
		value := resp.Get(pathFlag)
		if !value.Exists() {
			return withExitCode(ExitFailure, fmt.Errorf("path %q not found in response", pathFlag))
		}
		if err := c.formatter.FormatText(value.String()); err != nil {
			return err
		}
	} else if err := c.formatter.FormatResponse(c.method, resp); err != nil {
		return err
	}

	if c.check != nil {
		return c.checkSchema(resp.Text)
	}
	return nil
}

func (c *requestCall) build(ctx context.Context) (*http.Request, error) {
	body, err := c.body()
	if err != nil {
		return nil, withExitCode(ExitUsageError, err)
	}

	cookie := cookieFlag
	if c.store != nil {
		if u, err := http.ResolveURL(c.rawURL); err == nil {
			saved, err := kv.CookieString(ctx, c.store, u)
			if err != nil {
				return nil, withExitCode(ExitFailure, fmt.Errorf("failed to read session: %w", err))
			}
			cookie = joinCookies(saved, cookie)
		}
	}

	headers := http.TextHeaders(strings.Join(headerFlags, "\n"))
	if jsonHeadersFlag != "" {
		headers = http.JSONHeaders(jsonHeadersFlag)
	}

	return &http.Request{
		Method:  c.method,
		URL:     c.rawURL,
		Cookie:  cookie,
		Headers: headers,
		Body:    http.TextBody(body),
	}, nil
}

func (c *requestCall) body() (string, error) {
	switch {
	case c.bodyFile == "":
		return dataFlag, nil
	case c.bodyFile == "-":
		data, err := io.ReadAll(c.in)
		if err != nil {
			return "", fmt.Errorf("cannot read body from stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(c.bodyFile)
		if err != nil {
			return "", fmt.Errorf("cannot read body file: %w", err)
		}
		return string(data), nil
	}
}

type schemaReporter interface {
	FormatSchemaErrors(violations []string)
}

func (c *requestCall) checkSchema(text string) error {
	violations, err := c.check.Validate(text)
	if err != nil {
		return withExitCode(ExitFailure, err)
	}

	sr, ok := c.errors.(schemaReporter)
	if ok && (verboseFlag || len(violations) > 0) {
		sr.FormatSchemaErrors(violations)
	}
	if len(violations) == 0 {
		return nil
	}

	err = withExitCode(ExitFailure,
		fmt.Errorf("response does not match schema %s: %d violation(s)", c.check.Source(), len(violations)))
	if ok {
		return reported(err)
	}
	return err
}

// joinCookies puts user cookies after session cookies so that, for a
// repeated name, the user's value is the one the jar keeps.
func joinCookies(session, user string) string {
	switch {
	case session == "":
		return user
	case user == "":
		return session
	default:
		return session + http.CookieSeparator + user
	}
}

// watchBody resends the request whenever the body file is written, until ctx
// is cancelled.
func watchBody(ctx context.Context, out io.Writer, call *requestCall) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	target, err := filepath.Abs(call.bodyFile)
	if err != nil {
		return err
	}
	// Editors often replace the file, so watch the directory.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", call.bodyFile, err)
	}

	fmt.Fprintf(out, "\nWatching %s for changes... (press Ctrl+C to stop)\n\n", call.bodyFile)

	var (
		mu            sync.Mutex
		debounceTimer *time.Timer
	)
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				mu.Lock()
				defer mu.Unlock()
				fmt.Fprintf(out, "\nFile changed: %s\nResending...\n\n", call.bodyFile)
				_ = call.run(ctx)
				fmt.Fprintf(out, "\nWatching %s for changes... (press Ctrl+C to stop)\n", call.bodyFile)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			call.errors.FormatError(fmt.Errorf("watcher error: %w", err))
		}
	}
}
