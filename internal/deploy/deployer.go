// Package deploy compiles schema documents and publishes the accepted ones,
// keeping a ledger of every attempt.
package deploy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"cqlmap/internal/compiler"
	"cqlmap/internal/cqlident"
	"cqlmap/internal/domain"
	"cqlmap/internal/metrics"
	"cqlmap/internal/model"
)

const defaultConcurrency = 4

// Deps holds dependencies for a Deployer.
type Deps struct {
	Compiler *compiler.Compiler
	Repo     domain.DeploymentRepository
	Metrics  *metrics.Collector
	Logger   *slog.Logger

	// AllowPartial publishes schemas that have error diagnostics; the
	// failing operations are simply absent.
	AllowPartial bool
	// Concurrency bounds DeployAll. Zero means 4.
	Concurrency int
}

// Deployer compiles and publishes schemas. It is safe for concurrent use.
type Deployer struct {
	compiler     *compiler.Compiler
	repo         domain.DeploymentRepository
	metrics      *metrics.Collector
	logger       *slog.Logger
	registry     *Registry
	allowPartial bool
	concurrency  int
}

// NewDeployer creates a Deployer. Repo is required; Compiler, Metrics and
// Logger default when nil.
func NewDeployer(deps Deps) (*Deployer, error) {
	if deps.Repo == nil {
		return nil, domain.ErrValidation("deployer needs a deployment repository")
	}
	d := &Deployer{
		compiler:     deps.Compiler,
		repo:         deps.Repo,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		registry:     NewRegistry(),
		allowPartial: deps.AllowPartial,
		concurrency:  deps.Concurrency,
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.compiler == nil {
		d.compiler = compiler.New(compiler.Options{Logger: d.logger})
	}
	if d.metrics == nil {
		d.metrics = metrics.New(nil)
	}
	if d.concurrency <= 0 {
		d.concurrency = defaultConcurrency
	}
	return d, nil
}

// Registry returns the registry the deployer publishes into.
func (d *Deployer) Registry() *Registry { return d.registry }

// Request is one schema document to deploy.
type Request struct {
	Keyspace string
	Source   string
	// Force publishes the schema even when it has errors.
	Force bool
}

// Result describes one deployment attempt.
type Result struct {
	Deployment *domain.Deployment
	// Model is nil when the document didn't parse.
	Model     *model.SchemaModel
	Published bool
}

// Deploy compiles req.Source and, if the result is acceptable, publishes it
// as the keyspace's current schema. Every attempt that reaches the ledger
// is recorded, including rejected ones. A rejected schema is reported as a
// *domain.ValidationError wrapping its diagnostics, alongside the Result.
func (d *Deployer) Deploy(ctx context.Context, req Request) (*Result, error) {
	if err := cqlident.ValidateTableName(req.Keyspace); err != nil {
		return nil, &domain.ValidationError{Message: "invalid keyspace", Cause: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sum := sha256.Sum256([]byte(req.Source))
	rec := &domain.Deployment{
		Keyspace:     req.Keyspace,
		SourceSHA256: hex.EncodeToString(sum[:]),
	}

	start := time.Now()
	m, compileErr := d.compiler.Compile(req.Keyspace+".graphql", req.Source)
	elapsed := time.Since(start)

	var (
		outcome string
		reject  error
	)
	switch {
	case compileErr != nil:
		outcome = metrics.OutcomeFailed
		rec.ErrorCount = 1
		rec.Diagnostics = []model.Diagnostic{{
			Severity: model.SeverityError,
			Element:  req.Keyspace,
			Message:  compileErr.Error(),
		}}
		reject = &domain.ValidationError{Message: "schema does not parse", Cause: compileErr}
	default:
		rec.OperationCount = len(m.Operations())
		rec.ErrorCount = len(m.Errors())
		rec.WarningCount = len(m.Warnings())
		rec.Diagnostics = m.Diagnostics()
		switch {
		case !m.HasErrors():
			outcome = metrics.OutcomeAccepted
		case d.allowPartial || req.Force:
			outcome = metrics.OutcomePartial
		default:
			outcome = metrics.OutcomeRejected
			reject = &domain.ValidationError{
				Message: fmt.Sprintf("schema for keyspace %s has %d errors", req.Keyspace, rec.ErrorCount),
				Cause:   m.Err(),
			}
		}
	}
	rec.Accepted = reject == nil
	d.metrics.ObserveCompile(m, outcome, elapsed)

	if err := d.repo.Record(ctx, rec); err != nil {
		return nil, fmt.Errorf("record deployment of %s: %w", req.Keyspace, err)
	}
	res := &Result{Deployment: rec, Model: m}

	if reject != nil {
		d.logger.Warn("schema rejected",
			"keyspace", rec.Keyspace, "version", rec.Version, "errors", rec.ErrorCount)
		return res, reject
	}

	res.Published = d.registry.publish(&Published{Deployment: *rec, Model: m})
	d.logger.Info("schema deployed",
		"keyspace", rec.Keyspace,
		"version", rec.Version,
		"id", rec.ID,
		"outcome", outcome,
		"operations", rec.OperationCount,
		"published", res.Published,
	)
	return res, nil
}

// DeployAll deploys reqs concurrently. Results are in request order; a
// request that failed before reaching the ledger has a nil Result. The
// returned error combines the per-request errors.
func (d *Deployer) DeployAll(ctx context.Context, reqs []Request) ([]*Result, error) {
	results := make([]*Result, len(reqs))
	errs := make([]error, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i := range reqs {
		g.Go(func() error {
			results[i], errs[i] = d.Deploy(gctx, reqs[i])
			// A rejected schema doesn't cancel the others.
			var verr *domain.ValidationError
			if errs[i] != nil && !errors.As(errs[i], &verr) {
				return errs[i]
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err != nil {
			errs[i] = fmt.Errorf("deploy %s: %w", reqs[i].Keyspace, err)
		}
	}
	return results, multierr.Combine(errs...)
}
