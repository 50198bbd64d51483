package deploy

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"cqlmap/internal/compiler"
	"cqlmap/internal/config"
	internaldb "cqlmap/internal/db"
	"cqlmap/internal/db/repository"
	"cqlmap/internal/metrics"
)

// Open builds a Deployer from cfg: it loads the naming conventions, opens
// and migrates the ledger at cfg.StorePath and registers metrics on reg.
// The caller closes the returned ledger.
func Open(cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) (*Deployer, *internaldb.Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, w := range cfg.Warnings {
		logger.Warn("config", "warning", w)
	}

	conv, err := config.LoadConventions(cfg.ConventionsFile)
	if err != nil {
		return nil, nil, err
	}

	ledger, err := internaldb.Open(cfg.StorePath, cfg.CompileConcurrency)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}

	d, err := NewDeployer(Deps{
		Compiler:     compiler.New(compiler.Options{Conventions: &conv, Logger: logger}),
		Repo:         repository.NewDeploymentRepo(ledger.Write, ledger.Read),
		Metrics:      metrics.New(reg),
		Logger:       logger,
		AllowPartial: cfg.AllowPartial,
		Concurrency:  cfg.CompileConcurrency,
	})
	if err != nil {
		_ = ledger.Close()
		return nil, nil, err
	}
	return d, ledger, nil
}
