package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ksfoundation/oneshot/internal/config/tool"
)

func writeConfig(t *testing.T, dir string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.json")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	def := DefaultConfig()
	if cfg.Agent.Model != def.Agent.Model {
		t.Errorf("expected default model %q, got %q", def.Agent.Model, cfg.Agent.Model)
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, map[string]any{
		"agent": map[string]any{
			"model":          "claude-3-opus",
			"backendTimeout": 15,
		},
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Agent.Model != "claude-3-opus" {
		t.Errorf("expected model %q, got %q", "claude-3-opus", cfg.Agent.Model)
	}
	if cfg.Agent.BackendTimeout != 15 {
		t.Errorf("expected backendTimeout 15, got %d", cfg.Agent.BackendTimeout)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte("{not valid json"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error for invalid JSON (falls back to default), got: %v", err)
	}
	def := DefaultConfig()
	if cfg.Agent.Model != def.Agent.Model {
		t.Errorf("expected default model %q, got %q", def.Agent.Model, cfg.Agent.Model)
	}
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
agent:
  model: local-llm
tools:
  mcpServers:
    files:
      command: npx
      args: ["-y", "@modelcontextprotocol/server-filesystem", "/tmp"]
schedules:
  - name: morning
    cron: "0 9 * * *"
    message: check acme.com
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Agent.Model != "local-llm" {
		t.Errorf("expected model %q, got %q", "local-llm", cfg.Agent.Model)
	}
	srv, ok := cfg.Tools.MCPServers["files"]
	if !ok {
		t.Fatalf("expected mcp server %q", "files")
	}
	if srv.Command != "npx" || len(srv.Args) != 3 {
		t.Errorf("unexpected mcp server: %+v", srv)
	}
	if len(cfg.Schedules) != 1 || cfg.Schedules[0].Cron != "0 9 * * *" {
		t.Errorf("unexpected schedules: %+v", cfg.Schedules)
	}
	if cfg.Tools.Workflow.Timeout != 30 {
		t.Errorf("expected default workflow timeout 30, got %d", cfg.Tools.Workflow.Timeout)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	t.Setenv("ONESHOT_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gateway.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.Gateway.Port)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	original := DefaultConfig()
	original.Agent.Model = "gemini-1.5-pro"
	original.Agent.MaxTokens = 1234

	if err := Save(&original, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Agent.Model != original.Agent.Model {
		t.Errorf("model mismatch: got %q, want %q", loaded.Agent.Model, original.Agent.Model)
	}
	if loaded.Agent.MaxTokens != original.Agent.MaxTokens {
		t.Errorf("maxTokens mismatch: got %d, want %d", loaded.Agent.MaxTokens, original.Agent.MaxTokens)
	}
}

func TestSave_YAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")

	original := DefaultConfig()
	original.Journal.Disabled = true
	if err := Save(&original, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !loaded.Journal.Disabled {
		t.Errorf("expected journal disabled after round trip")
	}
}

func TestSave_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := DefaultConfig()
	if err := Save(&cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected permissions 0600, got %04o", perm)
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "dir", "config.json")

	cfg := DefaultConfig()
	if err := Save(&cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not created: %v", err)
	}
}

func TestLoad_PartialConfig_UsesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, map[string]any{
		"agent": map[string]any{
			"model": "mistral-large",
		},
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def := DefaultConfig()
	if cfg.Agent.Model != "mistral-large" {
		t.Errorf("expected model %q, got %q", "mistral-large", cfg.Agent.Model)
	}
	if cfg.Agent.Temperature != def.Agent.Temperature {
		t.Errorf("expected default temperature %v, got %v", def.Agent.Temperature, cfg.Agent.Temperature)
	}
	if cfg.Agent.BackendTimeout != def.Agent.BackendTimeout {
		t.Errorf("expected default backendTimeout %d, got %d", def.Agent.BackendTimeout, cfg.Agent.BackendTimeout)
	}
}

func TestMCPServerNames_SortedAndFiltered(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tools.MCPServers = map[string]tool.MCPServerConfig{
		"zeta":  {Command: "z"},
		"alpha": {Command: "a"},
		"off":   {Command: "o", Disabled: true},
	}
	names := cfg.MCPServerNames()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("expected [alpha zeta], got %v", names)
	}
}
