package cli

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/ariel-frischer/specify/internal/version"
	"github.com/stretchr/testify/assert"
)

func TestVersionCmd(t *testing.T) {
	tests := map[string]struct {
		args []string
		want []string
	}{
		"plain": {
			args: []string{"version", "--plain"},
			want: []string{
				"specify " + version.Version + "\n",
				"commit: " + version.Commit,
				"go: " + runtime.Version(),
				"platform: " + runtime.GOOS + "/" + runtime.GOARCH,
			},
		},
		"pretty": {
			args: []string{"version"},
			want: []string{"Version", "Platform", SourceURL},
		},
		"alias": {
			args: []string{"v", "--plain"},
			want: []string{"specify " + version.Version},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			stdout, _, code := execute(t, tt.args...)
			assert.Equal(t, ExitSuccess, code)
			for _, w := range tt.want {
				assert.Contains(t, stdout, w)
			}
		})
	}
}

func TestPrintPrettyVersion_DevBuild(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		info    version.Info
		wantDev bool
	}{
		"development build": {info: version.Info{Version: "dev", Dev: true}, wantDev: true},
		"release build":     {info: version.Info{Version: "v1.2.3"}, wantDev: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			printPrettyVersion(&buf, tt.info)
			assert.Contains(t, buf.String(), tt.info.Version)
			if tt.wantDev {
				assert.Contains(t, buf.String(), "(development build)")
			} else {
				assert.NotContains(t, buf.String(), "development build")
			}
		})
	}
}
