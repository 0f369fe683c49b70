package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-page-scraper/config"
	"github.com/aluiziolira/go-page-scraper/models"
	"github.com/aluiziolira/go-page-scraper/scraper"
)

// errReported marks failures that were already logged and printed as a
// Result; cobra should only turn them into exit status 1.
var errReported = errors.New("scrape failed")

type rootFlags struct {
	configPath  string
	outputDir   string
	url         string
	fetcher     string
	verbose     bool
	metricsFile string
	outputEnv   bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "scraper",
		Short:         "Scrape a single page into JSON, CSV and a run report.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("verbose") {
				v, ok, err := config.EnvBool("SCRAPER_VERBOSE")
				if err != nil {
					return err
				}
				if ok {
					flags.verbose = v
				}
			}
			slog.SetDefault(newLogger(flags.verbose))
			return nil
		},
	}

	outputDefault := "./output"
	if v, ok := config.EnvString("SCRAPER_OUTPUT"); ok {
		outputDefault = v
		flags.outputEnv = true
	}
	configDefault, _ := config.EnvString("SCRAPER_CONFIG")
	urlDefault, _ := config.EnvString("SCRAPER_URL")

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", configDefault, "Config file (.json, .json5, .yaml, .yml)")
	pf.StringVarP(&flags.outputDir, "output", "o", outputDefault, "Output directory")
	pf.StringVarP(&flags.url, "url", "u", urlDefault, "Target URL, overrides the config file")
	pf.StringVar(&flags.fetcher, "fetcher", "", "Fetcher to use: http or browser")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&flags.metricsFile, "metrics-file", "", "Write Prometheus metrics in textfile format to this path")

	root.AddCommand(
		newScrapeCmd(config.KindContent, "Extract title, content and links from a page", flags),
		newScrapeCmd(config.KindProduct, "Extract an e-commerce product page", flags),
	)
	return root
}

func newScrapeCmd(kind, short string, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   kind,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, kind, flags)
			if err != nil {
				slog.Error("invalid configuration", slog.Any("error", err))
				printResult(&models.Result{Error: err.Error()})
				return errReported
			}

			runner, err := scraper.New(kind, cfg)
			if err != nil {
				printResult(&models.Result{Error: err.Error()})
				return errReported
			}

			slog.Info("starting scrape",
				slog.String("scraper", kind),
				slog.String("url", cfg.URL),
				slog.String("fetcher", cfg.Options.Fetcher),
				slog.String("output", cfg.OutputDir),
			)

			stop := startSpinner(fmt.Sprintf(" scraping %s", cfg.URL))
			result, runErr := runner.Run(cmd.Context())
			stop()

			if flags.metricsFile != "" {
				if err := runner.Stats().WriteMetricsFile(flags.metricsFile); err != nil {
					slog.Error("metrics export failed", slog.Any("error", err))
				}
			}

			printSummary(result, cfg.OutputDir)
			printResult(result)
			if runErr != nil {
				return errReported
			}
			return nil
		},
	}
}

// buildConfig layers defaults, the config file and its .local override,
// then the command line.
func buildConfig(cmd *cobra.Command, kind string, flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Default(kind)
	if err != nil {
		return nil, err
	}

	if flags.configPath != "" {
		cfg, err = config.Load(flags.configPath, cfg)
		if err != nil {
			return nil, err
		}
		slog.Debug("config loaded", slog.String("path", flags.configPath))
	}

	if err := applyEnvOptions(cfg); err != nil {
		return nil, err
	}

	if flags.url != "" {
		cfg.URL = flags.url
	}
	if flags.fetcher != "" {
		cfg.Options.Fetcher = strings.ToLower(flags.fetcher)
	}
	// A config file may set outputDir; an explicit flag or env var wins.
	if cmd.Flags().Changed("output") || flags.outputEnv || flags.configPath == "" || cfg.OutputDir == "" {
		cfg.OutputDir = flags.outputDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOptions overrides numeric options from the environment.
func applyEnvOptions(cfg *config.Config) error {
	overrides := []struct {
		key    string
		target *int
	}{
		{"SCRAPER_TIMEOUT", &cfg.Options.Timeout},
		{"SCRAPER_DELAY", &cfg.Options.Delay},
		{"SCRAPER_MAX_LINKS", &cfg.Options.MaxLinks},
	}
	for _, o := range overrides {
		v, ok, err := config.EnvInt(o.key)
		if err != nil {
			return fmt.Errorf("invalid environment: %w", err)
		}
		if ok {
			*o.target = v
		}
	}
	return nil
}

func startSpinner(suffix string) func() {
	if !isTerminal(os.Stderr) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = suffix
	s.Start()
	return s.Stop
}

func printResult(result *models.Result) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		slog.Error("encode result", slog.Any("error", err))
	}
}
