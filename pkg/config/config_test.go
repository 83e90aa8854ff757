package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	raw := `profileName = "dev"

[server]
command = "./garnix-fetcher"
args = ["--mcp"]
workdir = "/tmp/garnix"
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Probe.ProtocolVersion != "2024-11-05" {
		t.Fatalf("expected default protocol version, got %q", cfg.Probe.ProtocolVersion)
	}
	if cfg.Probe.ClientName != "mcprobe" || cfg.Probe.ClientVersion != "1.0.0" {
		t.Fatalf("expected default client identity, got %+v", cfg.Probe)
	}
	if cfg.Probe.ReadTimeoutMS != 10000 {
		t.Fatalf("expected default read timeout, got %d", cfg.Probe.ReadTimeoutMS)
	}
	want := []string{"./garnix-fetcher", "--mcp"}
	got := cfg.CommandLine()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestLoadRequiresProfileName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[server]\ncommand = \"srv\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing profileName")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	cfg := DefaultProfile("dev")
	cfg.Server.Command = "./srv"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadProfile(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ProfileName != "dev" || loaded.Server.Command != "./srv" {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
	if loaded.Storage.DBPath != "history.db" {
		t.Fatalf("expected default db path, got %q", loaded.Storage.DBPath)
	}
}

func TestResolvePath(t *testing.T) {
	if got := ResolvePath("/p", "history.db"); got != filepath.Join("/p", "history.db") {
		t.Fatalf("unexpected join: %q", got)
	}
	if got := ResolvePath("/p", "/abs/history.db"); got != "/abs/history.db" {
		t.Fatalf("absolute path rewritten: %q", got)
	}
	if got := ResolvePath("/p", ""); got != "" {
		t.Fatalf("empty path rewritten: %q", got)
	}
}
