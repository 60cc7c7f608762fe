package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{
		Prefix:      Prefix,
		Environment: map[string]string{},
	}))
	cfg.Sanitize()

	assert.Empty(t, cfg.Origin)
	assert.Equal(t, "/flaskwebgui-keep-server-alive", cfg.Path)
	assert.Equal(t, 15*time.Second, cfg.Interval)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel.Level())
	assert.Empty(t, cfg.MetricsAddr)
}

func TestParseFromEnvironment(t *testing.T) {
	var cfg Config
	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{
		Prefix: Prefix,
		Environment: map[string]string{
			"KEEPALIVE_ORIGIN":       " http://localhost:5000/home ",
			"KEEPALIVE_PATH":         "/alive",
			"KEEPALIVE_INTERVAL":     "5s",
			"KEEPALIVE_LOG_LEVEL":    "DEBUG",
			"KEEPALIVE_METRICS_ADDR": "127.0.0.1:9091",
			"KEEPALIVE_TLS_CERT":     "/certs/client.cert.pem",
			"KEEPALIVE_TLS_KEY":      "/certs/client.key.pem",
			"KEEPALIVE_TLS_CA":       "/certs/ca.cert.pem",
		},
	}))
	cfg.Sanitize()

	assert.Equal(t, "http://localhost:5000/home", cfg.Origin)
	assert.Equal(t, "/alive", cfg.Path)
	assert.Equal(t, 5*time.Second, cfg.Interval)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel.Level())
	assert.Equal(t, "127.0.0.1:9091", cfg.MetricsAddr)
	assert.Equal(t, TLSConfig{
		CertPath: "/certs/client.cert.pem",
		KeyPath:  "/certs/client.key.pem",
		CAPath:   "/certs/ca.cert.pem",
	}, cfg.TLS)
	require.NoError(t, cfg.Validate())
}

func TestInvalidLogLevel(t *testing.T) {
	var cfg Config
	err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      Prefix,
		Environment: map[string]string{"KEEPALIVE_LOG_LEVEL": "chatty"},
	})
	require.Error(t, err)
}

func TestLogLevelUnmarshal(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"Warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for input, want := range tests {
		var l LogLevel
		require.NoError(t, l.UnmarshalText([]byte(input)), input)
		assert.Equal(t, want, l.Level(), input)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "ok", cfg: Config{Origin: "http://localhost:5000", Path: "/x", Interval: time.Second}},
		{name: "missing origin", cfg: Config{Interval: time.Second}, wantErr: true},
		{name: "bad origin", cfg: Config{Origin: "localhost", Interval: time.Second}, wantErr: true},
		{name: "zero interval", cfg: Config{Origin: "http://localhost:5000"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSanitizeRestoresPath(t *testing.T) {
	cfg := Config{Path: "   "}
	cfg.Sanitize()
	assert.Equal(t, "/flaskwebgui-keep-server-alive", cfg.Path)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("KEEPALIVE_ORIGIN=http://localhost:7000\nKEEPALIVE_INTERVAL=2s\n"), 0o600))

	chdir(t, dir)
	t.Setenv("KEEPALIVE_ORIGIN", "")
	os.Unsetenv("KEEPALIVE_ORIGIN")
	t.Setenv("KEEPALIVE_INTERVAL", "")
	os.Unsetenv("KEEPALIVE_INTERVAL")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:7000", cfg.Origin)
	assert.Equal(t, 2*time.Second, cfg.Interval)
}

func TestLoadWithoutDotEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("KEEPALIVE_ORIGIN", "http://localhost:5000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", cfg.Origin)
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
