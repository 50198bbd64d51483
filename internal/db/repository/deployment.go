package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cqlmap/internal/domain"
	"cqlmap/internal/model"
)

// DeploymentRepo implements domain.DeploymentRepository.
type DeploymentRepo struct {
	write *sql.DB
	read  *sql.DB
}

var _ domain.DeploymentRepository = (*DeploymentRepo)(nil)

// NewDeploymentRepo creates a repository over the ledger's write and read pools.
func NewDeploymentRepo(write, read *sql.DB) *DeploymentRepo {
	return &DeploymentRepo{write: write, read: read}
}

const insertDeployment = `
INSERT INTO schema_deployments
    (id, keyspace, version, source_sha256, accepted,
     operation_count, error_count, warning_count, diagnostics_json, deployed_at)
SELECT ?, ?, COALESCE(MAX(version), 0) + 1, ?, ?, ?, ?, ?, ?, ?
FROM schema_deployments WHERE keyspace = ?
RETURNING version`

const selectLatestDeployment = `
SELECT id, keyspace, version, source_sha256, accepted,
       operation_count, error_count, warning_count, diagnostics_json, deployed_at
FROM schema_deployments
WHERE keyspace = ?
ORDER BY version DESC
LIMIT 1`

// Record stores d and sets d.Version. A zero ID or DeployedAt is filled in.
func (r *DeploymentRepo) Record(ctx context.Context, d *domain.Deployment) error {
	if d.Keyspace == "" {
		return domain.ErrValidation("keyspace is required")
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.DeployedAt.IsZero() {
		d.DeployedAt = time.Now().UTC()
	}
	diags, err := model.MarshalDiagnostics(d.Diagnostics)
	if err != nil {
		return fmt.Errorf("encode diagnostics: %w", err)
	}

	var version int
	err = r.write.QueryRowContext(ctx, insertDeployment,
		d.ID.String(), d.Keyspace, d.SourceSHA256, boolToInt(d.Accepted),
		d.OperationCount, d.ErrorCount, d.WarningCount, string(diags),
		d.DeployedAt.UTC().Format(time.RFC3339Nano), d.Keyspace,
	).Scan(&version)
	if err != nil {
		return mapDBError(err, "deployment "+d.ID.String())
	}
	d.Version = version
	return nil
}

// LatestVersion returns the highest recorded version of keyspace, 0 if none.
func (r *DeploymentRepo) LatestVersion(ctx context.Context, keyspace string) (int, error) {
	var version int
	err := r.read.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_deployments WHERE keyspace = ?`, keyspace,
	).Scan(&version)
	if err != nil {
		return 0, mapDBError(err, "keyspace "+keyspace)
	}
	return version, nil
}

// Latest returns the most recent deployment of keyspace.
func (r *DeploymentRepo) Latest(ctx context.Context, keyspace string) (*domain.Deployment, error) {
	var (
		d          domain.Deployment
		id         string
		accepted   int64
		diags      string
		deployedAt string
	)
	err := r.read.QueryRowContext(ctx, selectLatestDeployment, keyspace).Scan(
		&id, &d.Keyspace, &d.Version, &d.SourceSHA256, &accepted,
		&d.OperationCount, &d.ErrorCount, &d.WarningCount, &diags, &deployedAt,
	)
	if err != nil {
		return nil, mapDBError(err, fmt.Sprintf("deployment of keyspace %q", keyspace))
	}

	if d.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse deployment id: %w", err)
	}
	d.Accepted = accepted != 0
	if d.Diagnostics, err = model.UnmarshalDiagnostics([]byte(diags)); err != nil {
		return nil, err
	}
	if d.DeployedAt, err = time.Parse(time.RFC3339Nano, deployedAt); err != nil {
		return nil, fmt.Errorf("parse deployed_at: %w", err)
	}
	return &d, nil
}
