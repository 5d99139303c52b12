// Command analyze evaluates a JSON array of financial snapshots and prints
// the portfolio report.
//
//	analyze -in snapshots.json -config config/config.yaml
//	cat snapshots.json | analyze
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"CreditRisk/internal/di"
	"CreditRisk/internal/domain/models"
	"CreditRisk/internal/usecase"
	"CreditRisk/pkg/config"
	applogger "CreditRisk/pkg/logger"

	"github.com/rs/zerolog"
)

func main() {
	in := flag.String("in", "-", "snapshot file, - for stdin")
	configPath := flag.String("config", "", "optional config file for thresholds and solver settings")
	verbose := flag.Bool("v", false, "log per-company results to stderr")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *in, *configPath, *verbose, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "analyze:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, in, configPath string, verbose bool, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	r := stdin
	if in != "-" {
		f, err := os.Open(in)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	var snapshots []models.FinancialSnapshot
	if err := json.NewDecoder(r).Decode(&snapshots); err != nil {
		return fmt.Errorf("decode snapshots: %w", err)
	}

	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	analyzer, err := usecase.NewCreditAnalyzer(di.AnalyzerConfigFrom(cfg),
		usecase.WithAnalyzerLogger(applogger.NewWithWriter(stderr, level)))
	if err != nil {
		return err
	}

	report := analyzer.AnalyzePortfolio(ctx, snapshots)
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}
