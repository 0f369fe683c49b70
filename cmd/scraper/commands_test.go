package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-page-scraper/config"
	"github.com/aluiziolira/go-page-scraper/fetcher"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func outputCmd() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("output", "./output", "")
	return cmd
}

func TestBuildConfigLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shop.yaml")
	writeFile(t, path, `
url: https://shop.example.com/p/1
outputDir: /tmp/shop-out
options:
  maxImages: 3
  currency: EUR
`)
	writeFile(t, filepath.Join(dir, "shop.local.yaml"), `
options:
  maxImages: 7
`)

	flags := &rootFlags{configPath: path, outputDir: "./output"}
	cfg, err := buildConfig(outputCmd(), config.KindProduct, flags)
	if err != nil {
		t.Fatalf("buildConfig: %v", err)
	}
	if cfg.URL != "https://shop.example.com/p/1" {
		t.Fatalf("url = %q", cfg.URL)
	}
	if cfg.OutputDir != "/tmp/shop-out" {
		t.Fatalf("output dir from config file should be kept, got %q", cfg.OutputDir)
	}
	if cfg.Options.MaxImages != 7 {
		t.Fatalf("local override not applied, maxImages = %d", cfg.Options.MaxImages)
	}
	if cfg.Options.Currency != "EUR" {
		t.Fatalf("currency = %q", cfg.Options.Currency)
	}
	if cfg.Options.Fetcher != fetcher.TypeBrowser {
		t.Fatalf("product default fetcher = %q", cfg.Options.Fetcher)
	}
	if cfg.Options.MaxReviews != 10 {
		t.Fatalf("defaults should survive loading, maxReviews = %d", cfg.Options.MaxReviews)
	}
}

func TestBuildConfigFlagsWin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.json5")
	writeFile(t, path, `{
  // comments are allowed
  url: "https://blog.example.com/a",
  outputDir: "/tmp/from-file",
}`)

	cmd := outputCmd()
	if err := cmd.Flags().Set("output", dir); err != nil {
		t.Fatal(err)
	}
	flags := &rootFlags{
		configPath: path,
		outputDir:  dir,
		url:        "https://blog.example.com/b",
		fetcher:    "HTTP",
	}
	cfg, err := buildConfig(cmd, config.KindContent, flags)
	if err != nil {
		t.Fatalf("buildConfig: %v", err)
	}
	if cfg.URL != flags.url {
		t.Fatalf("url flag ignored: %q", cfg.URL)
	}
	if cfg.OutputDir != dir {
		t.Fatalf("output flag ignored: %q", cfg.OutputDir)
	}
	if cfg.Options.Fetcher != fetcher.TypeHTTP {
		t.Fatalf("fetcher = %q", cfg.Options.Fetcher)
	}
}

func TestBuildConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		flags rootFlags
	}{
		{"bad scheme", rootFlags{url: "ftp://example.com", outputDir: "./output"}},
		{"unknown fetcher", rootFlags{url: "https://example.com", fetcher: "curl", outputDir: "./output"}},
		{"missing config", rootFlags{configPath: "/does/not/exist.yaml", outputDir: "./output"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := buildConfig(outputCmd(), config.KindContent, &tt.flags); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestBuildConfigEnvOptions(t *testing.T) {
	t.Setenv("SCRAPER_TIMEOUT", "4500")
	t.Setenv("SCRAPER_DELAY", "0")
	t.Setenv("SCRAPER_MAX_LINKS", "2")

	flags := &rootFlags{url: "https://example.com", outputDir: t.TempDir()}
	cfg, err := buildConfig(outputCmd(), config.KindContent, flags)
	if err != nil {
		t.Fatalf("buildConfig: %v", err)
	}
	if cfg.Options.Timeout != 4500 {
		t.Fatalf("timeout = %d, want 4500", cfg.Options.Timeout)
	}
	if cfg.Options.Delay != 0 {
		t.Fatalf("delay = %d, want 0", cfg.Options.Delay)
	}
	if cfg.Options.MaxLinks != 2 {
		t.Fatalf("maxLinks = %d, want 2", cfg.Options.MaxLinks)
	}

	t.Setenv("SCRAPER_TIMEOUT", "soon")
	if _, err := buildConfig(outputCmd(), config.KindContent, flags); err == nil {
		t.Fatalf("expected error for non-numeric SCRAPER_TIMEOUT")
	}
}
