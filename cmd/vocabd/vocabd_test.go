package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-vocab/internal/config"
	"github.com/phrazzld/scry-vocab/internal/platform/logger"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	content := "server:\n" +
		"  port: 8080\n" +
		"  log_level: error\n" +
		"database:\n" +
		"  driver: sqlite\n" +
		"  url: " + filepath.Join(dir, "data", "vocab.db") + "\n" +
		"study:\n" +
		"  new_items_per_day_goal: 5\n" +
		"  reviews_per_day_goal: 10\n" +
		"  timezone: UTC\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestImportAndReset(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	csvPath := filepath.Join(dir, "words.csv")
	require.NoError(t, os.WriteFile(csvPath,
		[]byte("term,meaning,difficulty\nabate,to lessen,1\nbenign,harmless,2\n,missing,3\n"), 0o600))

	out, err := runCLI(t, "--config", cfgPath, "import", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "rows: 3, imported: 2, skipped: 1")
	assert.Contains(t, out, "missing term")

	_, err = runCLI(t, "--config", cfgPath, "reset")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")

	out, err = runCLI(t, "--config", cfgPath, "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "all items reset")
}

func TestImportRejectsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	_, err := runCLI(t, "--config", cfgPath, "import", filepath.Join(dir, "words.txt"))
	require.Error(t, err)
}

func TestMigrateSkipsSQLite(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	out, err := runCLI(t, "--config", cfgPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to migrate")

	_, err = runCLI(t, "--config", cfgPath, "migrate", "sideways")
	require.Error(t, err)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := runCLI(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestApplicationRouter(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Server:   config.ServerConfig{Port: 8080, LogLevel: "error", ShutdownTimeout: time.Second},
		Database: config.DatabaseConfig{Driver: "sqlite", URL: filepath.Join(dir, "vocab.db")},
		Study:    config.StudyConfig{NewItemsPerDayGoal: 5, ReviewsPerDayGoal: 5, Timezone: "UTC"},
	}
	log, _ := logger.GetTestLogger(t)

	app, err := newApplication(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(app.cleanup)

	srv := httptest.NewServer(app.router())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/session/resume", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewApplicationRejectsUnknownDriver(t *testing.T) {
	cfg := &config.Config{
		Server:   config.ServerConfig{Port: 8080, LogLevel: "error"},
		Database: config.DatabaseConfig{Driver: "mysql", URL: "x"},
		Study:    config.StudyConfig{Timezone: "UTC"},
	}
	log, _ := logger.GetTestLogger(t)

	_, err := newApplication(context.Background(), cfg, log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}
