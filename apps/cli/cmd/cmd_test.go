package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	chttp "github.com/abdul-hamid-achik/chitose/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is written by watch callbacks while the test reads it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func resetFlags() {
	configFlag, logLevelFlag, logFormatFlag, logFileFlag = "", "", "", ""
	noColorFlag, verboseFlag, insecureFlag, noRedirects, pooledFlag = false, false, false, false, false
	timeoutFlag, proxyFlag, sessionFlag = "", "", ""

	cookieFlag, jsonHeadersFlag, dataFlag, pathFlag, schemaFlag = "", "", "", "", ""
	headerFlags = nil
	outputFlag = "console"
	watchFlag = false

	benchRequestsFlag, benchConcurrencyFlag, benchRateFlag = 100, 10, 0
	benchJSONFlag = false
	benchCookieFlag, benchDataFlag = "", ""
	benchHeaderFlags = nil

	kvDBFlag = ""
	forceInit = false
}

func execute(ctx context.Context, stdout, stderr io.Writer, args ...string) error {
	resetFlags()
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(append([]string{"--no-color"}, args...))
	return rootCmd.ExecuteContext(ctx)
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := execute(context.Background(), &stdout, &stderr, args...)
	return stdout.String(), stderr.String(), err
}

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		args := map[string]string{}
		for k, v := range r.URL.Query() {
			args[k] = v[0]
		}
		cookies := map[string]string{}
		for _, c := range r.Cookies() {
			cookies[c.Name] = c.Value
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"method":  r.Method,
			"args":    args,
			"cookies": cookies,
			"header":  r.Header.Get("X-Test"),
			"data":    string(body),
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGetWithPath(t *testing.T) {
	server := echoServer(t)

	stdout, _, err := run(t, "get", server.URL, "-c", "a=1; b=2", "-d", `{"q":"x","n":3}`, "--path", "args.n")
	require.NoError(t, err)
	assert.Equal(t, "3\n", stdout)

	stdout, _, err = run(t, "get", server.URL, "-c", "a=1; b=2", "--path", "cookies.b")
	require.NoError(t, err)
	assert.Equal(t, "2\n", stdout)
}

func TestPathNotFound(t *testing.T) {
	server := echoServer(t)

	_, _, err := run(t, "get", server.URL, "--path", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, exitCodeFor(err))
}

func TestPostBodyFromFile(t *testing.T) {
	server := echoServer(t)
	file := filepath.Join(t.TempDir(), "body.txt")
	require.NoError(t, os.WriteFile(file, []byte("hello body"), 0644))

	stdout, _, err := run(t, "post", server.URL, "-d", "@"+file, "-H", "X-Test: yes", "--path", "data")
	require.NoError(t, err)
	assert.Equal(t, "hello body\n", stdout)

	stdout, _, err = run(t, "put", server.URL, "--json-headers", `{"X-Test": "json"}`, "--path", "header")
	require.NoError(t, err)
	assert.Equal(t, "json\n", stdout)
}

func TestDeletePrintsPrettyJSON(t *testing.T) {
	server := echoServer(t)

	stdout, _, err := run(t, "delete", server.URL, "-d", "gone")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"method": "DELETE"`)
	assert.Contains(t, stdout, `"data": "gone"`)
}

func TestJSONOutput(t *testing.T) {
	server := echoServer(t)

	stdout, _, err := run(t, "get", server.URL, "-o", "json")
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "GET", out["method"])
	assert.Equal(t, float64(200), out["statusCode"])
	assert.Contains(t, out["text"], `"method":"GET"`)
}

func TestErrorExitCodes(t *testing.T) {
	closed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	closedURL := closed.URL
	closed.Close()

	server := echoServer(t)

	tests := []struct {
		name   string
		args   []string
		code   int
		stderr string
	}{
		{"invalid url", []string{"get", "not a url"}, ExitUsageError, "InvalidUrl"},
		{"invalid header", []string{"get", server.URL, "-H", "Bad Name: x"}, ExitUsageError, "InvalidHeader"},
		{"invalid query payload", []string{"get", server.URL, "-d", "{nope"}, ExitUsageError, "InvalidQueryPayload"},
		{"network", []string{"get", closedURL}, ExitNetworkError, "NetworkError"},
		{"missing body file", []string{"post", server.URL, "-d", "@/does/not/exist"}, ExitUsageError, "cannot read body file"},
		{"unknown output", []string{"get", server.URL, "-o", "xml"}, ExitUsageError, ""},
		{"bad timeout", []string{"get", server.URL, "--timeout", "soon"}, ExitUsageError, ""},
		{"watch without file", []string{"post", server.URL, "-w"}, ExitUsageError, ""},
		{"missing arg", []string{"get"}, ExitUsageError, ""},
		{"unknown flag", []string{"get", server.URL, "--nope"}, ExitUsageError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, exitCodeFor(err))
			assert.Contains(t, stderr, tt.stderr)
		})
	}
}

func TestConfigErrorExitCode(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(file, []byte("logLevel: loud\n"), 0644))

	_, _, err := run(t, "--config", file, "version")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, exitCodeFor(err))
}

func TestSchemaCheck(t *testing.T) {
	server := echoServer(t)
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"type":"object","required":["method"]}`), 0644))
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"type":"object","required":["id"]}`), 0644))

	_, _, err := run(t, "get", server.URL, "--schema", good)
	require.NoError(t, err)

	_, stderr, err := run(t, "get", server.URL, "--schema", bad)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, exitCodeFor(err))
	assert.Contains(t, stderr, "response does not match schema")
	assert.Contains(t, stderr, "id")
}

func TestSessionReplaysCookies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			http.SetCookie(w, &http.Cookie{Name: "sid", Value: "s3cret", Path: "/"})
			fmt.Fprint(w, "ok")
		default:
			c, err := r.Cookie("sid")
			if err != nil {
				fmt.Fprint(w, "anonymous")
				return
			}
			fmt.Fprint(w, c.Value)
		}
	}))
	defer server.Close()

	db := filepath.Join(t.TempDir(), "session.db")

	stdout, _, err := run(t, "get", server.URL+"/me", "--session", db)
	require.NoError(t, err)
	assert.Equal(t, "anonymous\n", stdout)

	_, _, err = run(t, "post", server.URL+"/login", "--session", db)
	require.NoError(t, err)

	stdout, _, err = run(t, "get", server.URL+"/me", "--session", db)
	require.NoError(t, err)
	assert.Equal(t, "s3cret\n", stdout)

	// an explicit cookie wins over the stored one
	stdout, _, err = run(t, "get", server.URL+"/me", "--session", db, "-c", "sid=mine")
	require.NoError(t, err)
	assert.Equal(t, "mine\n", stdout)

	stdout, _, err = run(t, "kv", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "s3cret")
}

func TestWatchResends(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		hits.Add(1)
		w.Write(body)
	}))
	defer server.Close()

	file := filepath.Join(t.TempDir(), "body.txt")
	require.NoError(t, os.WriteFile(file, []byte("first"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- execute(ctx, &stdout, &stderr, "post", server.URL, "-d", "@"+file, "--watch")
	}()

	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(stdout.String()), []byte("Watching"))
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, int64(1), hits.Load())

	require.NoError(t, os.WriteFile(file, []byte("second"), 0644))

	assert.Eventually(t, func() bool {
		return hits.Load() >= 2 && bytes.Contains([]byte(stdout.String()), []byte("second"))
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchKeepsFirstError(t *testing.T) {
	server := echoServer(t)
	file := filepath.Join(t.TempDir(), "body.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- execute(ctx, &stdout, &stderr, "post", server.URL, "-d", "@"+file, "-H", "Bad Name: x", "--watch")
	}()

	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(stdout.String()), []byte("Watching"))
	}, 5*time.Second, 20*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, ExitUsageError, exitCodeFor(err))
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
	assert.Contains(t, stderr.String(), "InvalidHeader")
}

func TestBenchCommand(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	stdout, _, err := run(t, "bench", "get", server.URL, "-n", "12", "-c", "3", "--json")
	require.NoError(t, err)
	assert.Equal(t, int64(12), hits.Load())

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, float64(12), out["requests"].(map[string]any)["total"])

	stdout, _, err = run(t, "bench", "post", server.URL, "-n", "2", "-c", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "BENCH SUMMARY")
}

func TestBenchErrors(t *testing.T) {
	_, _, err := run(t, "bench", "patch", "http://localhost")
	assert.Equal(t, ExitUsageError, exitCodeFor(err))

	_, _, err = run(t, "bench", "get", "ftp://localhost")
	assert.Equal(t, ExitUsageError, exitCodeFor(err))

	_, _, err = run(t, "bench", "get", "http://localhost", "-n", "0")
	assert.Equal(t, ExitUsageError, exitCodeFor(err))

	_, _, err = run(t, "bench", "get", "http://127.0.0.1:1", "-n", "2", "-c", "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, exitCodeFor(err))
}

func TestKVCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "kv.db")

	_, _, err := run(t, "kv", "set", "token", "example.com", "/", "abc", "--db", db)
	require.NoError(t, err)

	stdout, _, err := run(t, "kv", "get", "token", "example.com", "/", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "abc\n", stdout)

	stdout, _, err = run(t, "kv", "update", "token", "example.com", "/", "def", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "abc\n", stdout)

	_, _, err = run(t, "kv", "update", "missing", "example.com", "/", "x", "--db", db)
	assert.Error(t, err)

	stdout, _, err = run(t, "kv", "list", "example.com", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "token")
	assert.Contains(t, stdout, "def")

	_, _, err = run(t, "kv", "delete", "token", "example.com", "/", "--db", db)
	require.NoError(t, err)

	_, _, err = run(t, "kv", "get", "token", "example.com", "/", "--db", db)
	assert.Error(t, err)
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	stdout, _, err := run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, ".chitose.yaml")
	assert.FileExists(t, filepath.Join(dir, ".chitose.yaml"))
	assert.FileExists(t, filepath.Join(dir, "example.schema.json"))

	_, _, err = run(t, "init")
	assert.Equal(t, ExitUsageError, exitCodeFor(err))

	_, _, err = run(t, "init", "--force")
	assert.NoError(t, err)

	// the written config loads as the active config
	_, _, err = run(t, "version")
	assert.NoError(t, err)
}

func TestVersion(t *testing.T) {
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "chitose version dev")
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, ExitSuccess, exitCodeFor(nil))
	assert.Equal(t, ExitFailure, exitCodeFor(errors.New("x")))
	assert.Equal(t, ExitNetworkError, exitCodeFor(&chttp.RequestError{Kind: chttp.KindNetwork}))
	assert.Equal(t, ExitFailure, exitCodeFor(&chttp.RequestError{Kind: chttp.KindDecode}))
	assert.Equal(t, ExitConfigError, exitCodeFor(withExitCode(ExitConfigError, errors.New("x"))))
	assert.Equal(t, ExitUsageError, exitCodeFor(reported(&chttp.RequestError{Kind: chttp.KindInvalidURL})))
	assert.Nil(t, withExitCode(ExitFailure, nil))
}

func TestJoinCookies(t *testing.T) {
	assert.Equal(t, "", joinCookies("", ""))
	assert.Equal(t, "a=1", joinCookies("a=1", ""))
	assert.Equal(t, "b=2", joinCookies("", "b=2"))
	assert.Equal(t, "a=1; b=2", joinCookies("a=1", "b=2"))
}
