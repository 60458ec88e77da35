package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/chitose/packages/http"
	"github.com/fatih/color"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// Formatter writes one response or error at a time
type Formatter interface {
	FormatResponse(method http.Method, resp *http.Response) error
	FormatText(text string) error
	FormatError(err error)
}

// formatValue shortens long strings for single-line display
func formatValue(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

// WithVerbose prints the status line and headers before the body
func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// FormatResponse prints the response text. JSON bodies are indented.
func (f *ConsoleFormatter) FormatResponse(method http.Method, resp *http.Response) error {
	if f.verbose {
		f.formatStatus(method, resp)
	}
	return f.FormatText(resp.Text)
}

func (f *ConsoleFormatter) formatStatus(method http.Method, resp *http.Response) {
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	status := color.New(color.FgGreen).SprintFunc()
	switch {
	case resp.IsServerError():
		status = color.New(color.FgRed).SprintFunc()
	case resp.IsClientError():
		status = color.New(color.FgYellow).SprintFunc()
	}

	target := ""
	if resp.URL != nil {
		target = resp.URL.String()
	}
	fmt.Fprintf(f.writer, "%s %s\n", bold(string(method)), target)
	fmt.Fprintf(f.writer, "%s %s\n", status(resp.Status), cyan(fmt.Sprintf("(%dms)", resp.DurationMs())))

	names := make([]string, 0, len(resp.Headers))
	for name := range resp.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range resp.Headers[name] {
			fmt.Fprintf(f.writer, "%s %s\n", dim(name+":"), v)
		}
	}
	if resp.Chunked {
		fmt.Fprintf(f.writer, "%s\n", dim("(chunked)"))
	}
	fmt.Fprintln(f.writer)
}

// FormatText prints text, indenting it when it is a JSON object or array
func (f *ConsoleFormatter) FormatText(text string) error {
	if isJSONDocument(text) {
		out := pretty.Pretty([]byte(text))
		if !f.noColor && !color.NoColor {
			out = pretty.Color(out, nil)
		}
		_, err := f.writer.Write(out)
		return err
	}
	_, err := fmt.Fprintln(f.writer, text)
	return err
}

func isJSONDocument(text string) bool {
	if !gjson.Valid(text) {
		return false
	}
	parsed := gjson.Parse(text)
	return parsed.IsObject() || parsed.IsArray()
}

// FormatError prints err, naming its kind when it has one
func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	if kind := http.KindOf(err); kind != 0 {
		fmt.Fprintf(f.writer, "%s %v\n", red(kind.String()+":"), err)
		return
	}
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

// FormatSchemaErrors lists schema violations under a failure line
func (f *ConsoleFormatter) FormatSchemaErrors(violations []string) {
	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	if len(violations) == 0 {
		fmt.Fprintf(f.writer, "%s response matches schema\n", green("✓"))
		return
	}
	fmt.Fprintf(f.writer, "%s response does not match schema\n", red("✗"))
	for _, v := range violations {
		fmt.Fprintf(f.writer, "    %s %s\n", red("→"), formatValue(v, 200))
	}
}

// FormatHeader prints the program name and version
func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("chitose"), version)
}

// ErrUnknownFormat is returned by New for an unrecognised format name
var ErrUnknownFormat = errors.New("unknown output format")

// New returns the formatter for name: "console" (or empty) or "json".
func New(name string, w io.Writer, verbose, noColor bool) (Formatter, error) {
	switch name {
	case "", "console":
		return NewConsoleFormatter(WithWriter(w), WithVerbose(verbose), WithNoColor(noColor)), nil
	case "json":
		return NewJSONFormatter(WithJSONWriter(w)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
}
