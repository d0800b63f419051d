package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/feedgen/pkg/llm"
)

const relayFeed = "```xml\n<rss version=\"2.0\"><channel><title>Example</title>" +
	"<item><title>A</title><link>https://example.com/a</link></item></channel></rss>\n```"

// relayBackend fakes a feedgen relay, urls containing "broken" fail with 502
func relayBackend(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req llm.RelayRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.URL == "https://broken.example.com" {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":"upstream failed"}`))
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
		_, _ = w.Write([]byte(relayFeed))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearAPIKeys(t *testing.T) {
	t.Helper()
	for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY", "API_KEY"} {
		t.Setenv(name, "")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())
	return port
}

func TestRun_MissingConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	err := run(ctx, Opts{Config: "non-existent-config.yml"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load config")
}

func TestRun_InvalidConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	err := run(ctx, Opts{Config: writeConfig(t, "invalid: yaml: content: [")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load config")

	err = run(ctx, Opts{Config: writeConfig(t, "llm:\n  provider: bard\n")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "llm.provider")
}

func TestRun_CopyNeedsSingleURL(t *testing.T) {
	err := run(context.Background(), Opts{Copy: true, URLs: []string{"https://a.com", "https://b.com"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--copy")
}

func TestRun_OneShot(t *testing.T) {
	ts := relayBackend(t)
	out := filepath.Join(t.TempDir(), "feeds")
	cfgPath := writeConfig(t, fmt.Sprintf("llm:\n  provider: relay\n  mode: buffered\n  endpoint: %s\n", ts.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, Opts{Config: cfgPath, Out: out, Concurrency: 2,
		URLs: []string{"https://www.example.com/news", "https://blog.example.org"}})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "example_com_feed.xml")) //nolint:gosec // test file
	require.NoError(t, err)
	assert.Equal(t, `<rss version="2.0"><channel><title>Example</title>`+
		`<item><title>A</title><link>https://example.com/a</link></item></channel></rss>`, string(data))
	assert.FileExists(t, filepath.Join(out, "blog_example_org_feed.xml"))
}

func TestRun_OneShotPartialFailure(t *testing.T) {
	ts := relayBackend(t)
	out := t.TempDir()
	cfgPath := writeConfig(t, fmt.Sprintf("llm:\n  provider: relay\n  endpoint: %s\n", ts.URL))

	err := run(context.Background(), Opts{Config: cfgPath, Out: out, Concurrency: 1,
		URLs: []string{"https://broken.example.com", "https://example.com"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 feeds failed")
	assert.Contains(t, err.Error(), "upstream failed")
	assert.FileExists(t, filepath.Join(out, "example_com_feed.xml"))
	assert.NoFileExists(t, filepath.Join(out, "broken_example_com_feed.xml"))
}

func TestRun_OneShotNotConfigured(t *testing.T) {
	clearAPIKeys(t)
	err := run(context.Background(), Opts{Out: t.TempDir(), URLs: []string{"https://example.com"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed generator is not configured")
}

func TestRun_ServerStartStop(t *testing.T) {
	clearAPIKeys(t)
	port := freePort(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- run(ctx, Opts{Listen: fmt.Sprintf("127.0.0.1:%d", port)})
	}()

	// wait for server to start
	var resp *http.Response
	var err error
	require.Eventually(t, func() bool {
		resp, err = http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/v1/status", port))
		return err == nil
	}, 3*time.Second, 20*time.Millisecond)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"configured":false`)

	// relay reports missing credentials as configuration error
	resp, err = http.Post(fmt.Sprintf("http://127.0.0.1:%d/api/v1/generate", port), "application/json",
		http.NoBody)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	cancel()
	select {
	case err := <-serverErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearAPIKeys(t)
	cfg, err := loadConfig(Opts{Listen: ":9999", Out: "/tmp/feeds"})
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Listen)
	assert.Equal(t, "/tmp/feeds", cfg.Output.Dir)

	cfg, err = loadConfig(Opts{})
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, ".", cfg.Output.Dir)
}

func TestLogOptions(t *testing.T) {
	tbl := []struct {
		name       string
		dbg, quiet bool
		wantOut    bool
	}{
		{name: "debug", dbg: true, wantOut: true},
		{name: "quiet", quiet: true},
		{name: "quiet with debug", dbg: true, quiet: true},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			rOut, wOut, err := os.Pipe()
			require.NoError(t, err)
			rErr, wErr, err := os.Pipe()
			require.NoError(t, err)

			stdout, stderr := os.Stdout, os.Stderr
			os.Stdout, os.Stderr = wOut, wErr // lgr picks the std streams on creation
			l := lgr.New(logOptions(tt.dbg, tt.quiet, "secret-key")...)
			os.Stdout, os.Stderr = stdout, stderr

			l.Logf("[DEBUG] debug line")
			l.Logf("[ERROR] error line with secret-key")
			require.NoError(t, wOut.Close())
			require.NoError(t, wErr.Close())
			out, err := io.ReadAll(rOut)
			require.NoError(t, err)
			errOut, err := io.ReadAll(rErr)
			require.NoError(t, err)

			if !tt.wantOut {
				assert.Empty(t, string(out))
				assert.Empty(t, string(errOut))
				return
			}
			assert.Contains(t, string(out), "debug line")
			assert.Contains(t, string(errOut), "error line")
			assert.NotContains(t, string(out)+string(errOut), "secret-key")
		})
	}
}
