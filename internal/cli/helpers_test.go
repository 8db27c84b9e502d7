package cli

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/ariel-frischer/specify/internal/health"
	"github.com/stretchr/testify/require"
)

const testTag = "v0.0.79"

// execute runs the command tree with args and returns stdout, stderr and the exit code.
func execute(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	code := run(root, args, &stderr)
	return stdout.String(), stderr.String(), code
}

// sandbox isolates HOME, XDG directories, tokens and SPECIFY_* settings, and
// moves into a fresh working directory that it returns.
func sandbox(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, ".cache"))
	t.Setenv("GH_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("NO_COLOR", "1")
	for _, kv := range os.Environ() {
		if key, _, _ := strings.Cut(kv, "="); strings.HasPrefix(key, "SPECIFY_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	work := t.TempDir()
	t.Chdir(work)
	return work
}

// useChecker replaces the tool checker; installed lists the tools it finds.
func useChecker(t *testing.T, installed ...string) {
	t.Helper()
	orig := newChecker
	home := t.TempDir()
	newChecker = func() *health.Checker {
		return &health.Checker{
			LookPath: func(file string) (string, error) {
				for _, tool := range installed {
					if tool == file {
						return "/usr/bin/true", nil
					}
				}
				return "", exec.ErrNotFound
			},
			ProbeArgs: []string{},
			HomeDir:   func() (string, error) { return home, nil },
		}
	}
	t.Cleanup(func() { newChecker = orig })
}

// releaseServer serves one release whose assets cover claude, gemini and
// copilot for both script types, all backed by the same archive.
type releaseServer struct {
	srv    *httptest.Server
	status int
	header map[string]string
	auth   []string
}

func newReleaseServer(t *testing.T) *releaseServer {
	t.Helper()
	archive := templateZip(t)
	rs := &releaseServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/github/spec-kit/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		rs.auth = append(rs.auth, r.Header.Get("Authorization"))
		for k, v := range rs.header {
			w.Header().Set(k, v)
		}
		if rs.status != 0 {
			w.WriteHeader(rs.status)
			return
		}
		var assets []map[string]any
		for _, a := range []string{"claude", "gemini", "copilot"} {
			for _, s := range []string{"sh", "ps"} {
				name := "spec-kit-template-" + a + "-" + s + "-" + testTag + ".zip"
				assets = append(assets, map[string]any{
					"name":                 name,
					"size":                 len(archive),
					"browser_download_url": rs.srv.URL + "/download/" + name,
				})
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"tag_name": testTag, "assets": assets})
	})
	mux.HandleFunc("/download/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	})

	rs.srv = httptest.NewServer(mux)
	t.Cleanup(rs.srv.Close)
	t.Setenv("SPECIFY_API_BASE_URL", rs.srv.URL)
	return rs
}

func templateZip(t *testing.T) []byte {
	t.Helper()
	files := map[string]string{
		"spec-kit-template/.claude/commands/speckit.specify.md":                "# specify\n",
		"spec-kit-template/.specify/scripts/bash/create-new-feature.sh":        "#!/usr/bin/env bash\n",
		"spec-kit-template/.specify/memory/constitution.md":                    "# Constitution\n",
		"spec-kit-template/.vscode/settings.json":                              `{"chat.promptFilesRecommendations": {"speckit.plan": true}}`,
		"spec-kit-template/.specify/scripts/powershell/create-new-feature.ps1": "Write-Output hi\n",
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
