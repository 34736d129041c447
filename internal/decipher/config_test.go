package decipher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"cipherbreak/pkg/options"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
cipher_settings:
  anchor_chars: " .,"
  common_words: [the, secret]
ngrams:
  path: data/quadgrams.txt
search:
  max_iterations: 50
  time_limit: 30s
  seed: 7
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Cipher.AnchorChars != " .," {
		t.Errorf("AnchorChars = %q", cfg.Cipher.AnchorChars)
	}
	if len(cfg.Cipher.CommonWords) != 2 {
		t.Errorf("CommonWords = %v", cfg.Cipher.CommonWords)
	}
	if cfg.Ngrams.Path != "data/quadgrams.txt" || cfg.Ngrams.Separator != " " {
		t.Errorf("Ngrams = %+v", cfg.Ngrams)
	}
	if cfg.Search.MaxIterations != 50 || cfg.Search.TimeLimit != 30*time.Second {
		t.Errorf("Search = %+v", cfg.Search)
	}
	// not in the file, so the default survives
	if cfg.Search.Steps != 1000 || cfg.Search.TopK != 3 {
		t.Errorf("defaults lost: %+v", cfg.Search)
	}
	if cfg.Search.Seed == nil || *cfg.Search.Seed != 7 {
		t.Errorf("Seed = %v", cfg.Search.Seed)
	}

	o := options.Resolve(cfg.Search.Options()...)
	if o.MaxIterations != 50 || o.Steps != 1000 || o.TimeLimit != 30*time.Second || !o.Seeded || o.Seed != 7 {
		t.Errorf("resolved options = %+v", o)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("missing file expected error")
	}
	if _, err := LoadConfig(writeConfig(t, "search: [not, a, map]")); err == nil {
		t.Errorf("malformed yaml expected error")
	}
	if _, err := LoadConfig(writeConfig(t, "search:\n  steps: -1\n")); err == nil {
		t.Errorf("negative steps expected error")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Cipher.AnchorChars != " " {
		t.Errorf("AnchorChars = %q", cfg.Cipher.AnchorChars)
	}
	o := options.Resolve(cfg.Search.Options()...)
	if o.MaxIterations != 1000 || o.Steps != 1000 || o.TopK != 3 || o.TimeLimit != 300*time.Second || o.Seeded {
		t.Errorf("default options = %+v", o)
	}
}
