package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadAppliesDefaultsWhenFilesAreAbsent(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "stc.yaml"), filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := defaults()
	if !reflect.DeepEqual(cfg, want) {
		t.Fatalf("cfg = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadParsesYamlProjectFile(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "stc.yaml")
	body := "target_word_width: 32\nwarnings:\n  shadowed_variable: false\ncache_dir: /var/stc/cache\n"
	if err := os.WriteFile(yamlPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(yamlPath, filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TargetWordWidth != 32 {
		t.Errorf("TargetWordWidth = %d, want 32", cfg.TargetWordWidth)
	}
	if cfg.CacheDir != "/var/stc/cache" {
		t.Errorf("CacheDir = %q, want /var/stc/cache", cfg.CacheDir)
	}
	if cfg.WarningEnabled("shadowed_variable") {
		t.Error("shadowed_variable should be disabled by the yaml file")
	}
	if !cfg.WarningEnabled("unused_local") {
		t.Error("a warning kind absent from the file should default to enabled")
	}
}

func TestEnvFileOverridesCacheDirAndTarget(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("STC_CACHE_DIR=/tmp/override\nSTC_TARGET=w32\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("STC_CACHE_DIR")
		os.Unsetenv("STC_TARGET")
	})

	cfg, err := Load(filepath.Join(dir, "stc.yaml"), envPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.CacheDir != "/tmp/override" {
		t.Errorf("CacheDir = %q, want /tmp/override", cfg.CacheDir)
	}
	if cfg.TargetWordWidth != 32 {
		t.Errorf("TargetWordWidth = %d, want 32", cfg.TargetWordWidth)
	}
}

func TestProcessEnvironmentWinsOverEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("STC_CACHE_DIR=/tmp/from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	os.Setenv("STC_CACHE_DIR", "/tmp/from-shell")
	t.Cleanup(func() { os.Unsetenv("STC_CACHE_DIR") })

	cfg, err := Load(filepath.Join(dir, "stc.yaml"), envPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.CacheDir != "/tmp/from-shell" {
		t.Errorf("CacheDir = %q, want /tmp/from-shell (process env wins over .env)", cfg.CacheDir)
	}
}
