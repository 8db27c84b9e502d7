package provision

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type zipEntry struct {
	name string
	body string
	mode os.FileMode
}

func buildZip(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.name, Method: zip.Deflate}
		mode := e.mode
		if mode == 0 {
			mode = 0o644
		}
		if e.name[len(e.name)-1] == '/' {
			mode = os.ModeDir | 0o755
		}
		hdr.SetMode(mode)
		w, err := zw.CreateHeader(hdr)
		require.NoError(t, err)
		if e.body != "" {
			_, err = w.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeZip(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "template.zip")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// templateArchive mirrors the layout of a released template: one wrapper
// directory holding the agent folder, scripts, and editor settings.
func templateArchive(t *testing.T) []byte {
	t.Helper()
	return buildZip(t,
		zipEntry{name: "spec-kit-template/"},
		zipEntry{name: "spec-kit-template/.claude/commands/specify.md", body: "# specify\n"},
		zipEntry{name: "spec-kit-template/.specify/scripts/bash/create-new-feature.sh", body: "#!/usr/bin/env bash\necho hi\n"},
		zipEntry{name: "spec-kit-template/.specify/templates/spec-template.md", body: "# Spec\n"},
		zipEntry{name: "spec-kit-template/.vscode/settings.json", body: `{"chat.promptFilesRecommendations": {"speckit.specify": true}, "editor.tabSize": 4}`},
	)
}

type fakeGitHub struct {
	Archive        []byte
	AssetName      string
	Tag            string
	ReleaseStatus  int
	DownloadStatus int
	ReleaseHeaders map[string]string

	mu       sync.Mutex
	Paths    []string
	AuthSeen []string

	srv *httptest.Server
}

func newFakeGitHub(t *testing.T, archive []byte) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{
		Archive:   archive,
		AssetName: "spec-kit-template-claude-sh-v0.0.79.zip",
		Tag:       "v0.0.79",
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGitHub) URL() string { return f.srv.URL }

func (f *fakeGitHub) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.Paths = append(f.Paths, r.URL.Path)
	f.AuthSeen = append(f.AuthSeen, r.Header.Get("Authorization"))
	f.mu.Unlock()

	switch r.URL.Path {
	case "/repos/github/spec-kit/releases/latest", "/repos/github/spec-kit/releases/tags/" + f.Tag:
		for k, v := range f.ReleaseHeaders {
			w.Header().Set(k, v)
		}
		if f.ReleaseStatus != 0 && f.ReleaseStatus != http.StatusOK {
			w.WriteHeader(f.ReleaseStatus)
			return
		}
		release := map[string]any{
			"tag_name": f.Tag,
			"assets": []map[string]any{
				{
					"name":                 "spec-kit-template-gemini-sh-" + f.Tag + ".zip",
					"size":                 1,
					"browser_download_url": f.srv.URL + "/download/other.zip",
				},
				{
					"name":                 f.AssetName,
					"size":                 len(f.Archive),
					"browser_download_url": f.srv.URL + "/download/" + f.AssetName,
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(release)
	case "/download/" + f.AssetName:
		if f.DownloadStatus != 0 && f.DownloadStatus != http.StatusOK {
			w.WriteHeader(f.DownloadStatus)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(f.Archive)
	default:
		http.Error(w, fmt.Sprintf("unexpected path %s", r.URL.Path), http.StatusNotFound)
	}
}
