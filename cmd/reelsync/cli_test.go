package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsync/internal/services"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\n",
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	configPath := writeTestConfig(t)

	out, _, err := runCLI(t, configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, configPath, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, configPath, "config", "init", "--path", target); err == nil {
		t.Fatal("config init must refuse to overwrite without --overwrite")
	}
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\n\n[tmdb]\napi_key = \"super-secret\"\n",
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, _, err := runCLI(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "<redacted>")
	if strings.Contains(out, "super-secret") {
		t.Fatalf("secret leaked in output:\n%s", out)
	}
}

func TestCacheShowEmpty(t *testing.T) {
	configPath := writeTestConfig(t)

	out, _, err := runCLI(t, configPath, "cache", "show")
	if err != nil {
		t.Fatalf("cache show: %v", err)
	}
	requireContains(t, out, "Identity cache is empty")
}

func TestHistoryEmpty(t *testing.T) {
	configPath := writeTestConfig(t)

	out, _, err := runCLI(t, configPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No recorded runs")
}

func TestSyncRejectsUnknownService(t *testing.T) {
	configPath := writeTestConfig(t)
	exportPath := filepath.Join(t.TempDir(), "ratings.csv")
	csv := "Date,Name,Year,Letterboxd URI,Rating\n2024-03-01,The Matrix,1999,https://boxd.it/2a,4.5\n"
	if err := os.WriteFile(exportPath, []byte(csv), 0o644); err != nil {
		t.Fatalf("write export: %v", err)
	}

	_, _, err := runCLI(t, configPath, "sync", "--service", "imdb", "--export", exportPath)
	if err == nil || !strings.Contains(err.Error(), "unknown service") {
		t.Fatalf("expected unknown-service error, got %v", err)
	}
}

func TestSyncRequiresExportSource(t *testing.T) {
	configPath := writeTestConfig(t)

	_, _, err := runCLI(t, configPath, "sync")
	if err == nil || !strings.Contains(err.Error(), "no export file") {
		t.Fatalf("expected missing-export error, got %v", err)
	}
}

func TestExitCodeDistinguishesConfigurationErrors(t *testing.T) {
	configErr := services.Wrap(services.ErrConfiguration, "tmdb", "new", "api key is required", nil)
	if got := exitCode(configErr); got != 2 {
		t.Fatalf("configuration error must exit 2, got %d", got)
	}
	wrapped := fmt.Errorf("build services: %w", configErr)
	if got := exitCode(wrapped); got != 2 {
		t.Fatalf("wrapped configuration error must exit 2, got %d", got)
	}
	if got := exitCode(errors.New("transport failure")); got != 1 {
		t.Fatalf("ordinary error must exit 1, got %d", got)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]string{"A", "B"},
		[][]string{{"only-a"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(out, "only-a") {
		t.Fatalf("unexpected table output:\n%s", out)
	}
}
