package main

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	keepalive "github.com/st-keller/keepalive-client"
	"github.com/st-keller/keepalive-client/config"
)

func TestApplyOverrides(t *testing.T) {
	cmd := newRunCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--interval", "5s",
		"--path", "/alive",
		"--metrics-addr", "127.0.0.1:9091",
		"--log-level", "debug",
	}))

	cfg := config.Config{
		Origin:   "http://from-env:1",
		Path:     "/flaskwebgui-keep-server-alive",
		Interval: 15 * time.Second,
	}
	require.NoError(t, applyOverrides(cmd, []string{"http://localhost:5000/home"}, &cfg))

	assert.Equal(t, "http://localhost:5000/home", cfg.Origin)
	assert.Equal(t, "/alive", cfg.Path)
	assert.Equal(t, 5*time.Second, cfg.Interval)
	assert.Equal(t, "127.0.0.1:9091", cfg.MetricsAddr)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel.Level())
}

func TestApplyOverridesKeepsUnsetFlags(t *testing.T) {
	cmd := newRunCmd()
	require.NoError(t, cmd.ParseFlags(nil))

	cfg := config.Config{
		Origin:   "http://localhost:5000",
		Path:     "/flaskwebgui-keep-server-alive",
		Interval: 15 * time.Second,
	}
	want := cfg
	require.NoError(t, applyOverrides(cmd, nil, &cfg))
	assert.Equal(t, want, cfg)
}

func TestApplyOverridesBadLogLevel(t *testing.T) {
	cmd := newRunCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--log-level", "loud"}))

	var cfg config.Config
	require.Error(t, applyOverrides(cmd, nil, &cfg))
}

func TestRunRequiresOrigin(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("KEEPALIVE_ORIGIN", "")

	root := newRootCmd()
	root.SetArgs([]string{"run"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "origin required")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs([]string{"version"})
	root.SetOut(&out)

	require.NoError(t, root.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "keepalive "+keepalive.Version))
}

// chdir changes the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
