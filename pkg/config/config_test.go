package config

import (
	"os"
	"path/filepath"
	"testing"
)

func withTempConfigHome(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	original := os.Getenv("XDG_CONFIG_HOME")
	os.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Cleanup(func() { os.Setenv("XDG_CONFIG_HOME", original) })
	return tmpDir
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"RICHCLIP_CHUNK_SIZE", "RICHCLIP_FOREGROUND", "RICHCLIP_LOG_LEVEL"} {
		original := os.Getenv(key)
		os.Unsetenv(key)
		t.Cleanup(func() { os.Setenv(key, original) })
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.ChunkSize != defaultChunkSize {
		t.Errorf("ChunkSize = %d, want %d", cfg.ChunkSize, defaultChunkSize)
	}
	if cfg.Foreground {
		t.Error("Foreground should default to false")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.OneShotMimes != nil {
		t.Error("OneShotMimes should default to nil (falls back to source.DefaultOneShotMimes)")
	}
}

func TestGetConfigPath(t *testing.T) {
	withTempConfigHome(t)
	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() failed: %v", err)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("GetConfigPath() = %q, want basename config.yaml", path)
	}
	if filepath.Base(filepath.Dir(path)) != "richclip" {
		t.Errorf("GetConfigPath() = %q, want parent dir richclip", path)
	}
}

func TestLoad_NoFile(t *testing.T) {
	withTempConfigHome(t)
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed on missing file: %v", err)
	}
	if cfg.ChunkSize != defaultChunkSize {
		t.Errorf("ChunkSize = %d, want default %d", cfg.ChunkSize, defaultChunkSize)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	tmpDir := withTempConfigHome(t)
	clearEnv(t)

	dir := filepath.Join(tmpDir, "richclip")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	content := `chunk_size: 131072
foreground: true
log_level: debug
one_shot_mimes:
  - text/plain
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.ChunkSize != 131072 {
		t.Errorf("ChunkSize = %d, want 131072", cfg.ChunkSize)
	}
	if !cfg.Foreground {
		t.Error("Foreground = false, want true from file")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if len(cfg.OneShotMimes) != 1 || cfg.OneShotMimes[0] != "text/plain" {
		t.Errorf("OneShotMimes = %v, want [text/plain]", cfg.OneShotMimes)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tmpDir := withTempConfigHome(t)
	clearEnv(t)

	dir := filepath.Join(tmpDir, "richclip")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	content := "chunk_size: 131072\nlog_level: debug\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	os.Setenv("RICHCLIP_CHUNK_SIZE", "65536")
	os.Setenv("RICHCLIP_LOG_LEVEL", "warn")
	os.Setenv("RICHCLIP_FOREGROUND", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.ChunkSize != 65536 {
		t.Errorf("ChunkSize = %d, want 65536 (env override)", cfg.ChunkSize)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn (env override)", cfg.LogLevel)
	}
	if !cfg.Foreground {
		t.Error("Foreground should be true from env override")
	}
}

func TestLoad_InvalidEnvIgnored(t *testing.T) {
	withTempConfigHome(t)
	clearEnv(t)

	os.Setenv("RICHCLIP_CHUNK_SIZE", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.ChunkSize != defaultChunkSize {
		t.Errorf("ChunkSize = %d, want default %d when env is invalid", cfg.ChunkSize, defaultChunkSize)
	}
}

func TestSaveAndLoad(t *testing.T) {
	withTempConfigHome(t)
	clearEnv(t)

	cfg := Defaults()
	cfg.ChunkSize = 4096
	cfg.LogLevel = "error"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() failed after Save(): %v", err)
	}
	if loaded.ChunkSize != 4096 {
		t.Errorf("ChunkSize = %d, want 4096", loaded.ChunkSize)
	}
	if loaded.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error", loaded.LogLevel)
	}
}
