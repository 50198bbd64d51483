package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cqlmap/internal/model"
)

// Deployment is one attempt to publish a compiled schema for a keyspace.
// Rejected attempts are recorded too, with Accepted false.
type Deployment struct {
	ID             uuid.UUID
	Keyspace       string
	Version        int
	SourceSHA256   string
	Accepted       bool
	OperationCount int
	ErrorCount     int
	WarningCount   int
	Diagnostics    []model.Diagnostic
	DeployedAt     time.Time
}

// DeploymentRepository persists the deployment ledger.
type DeploymentRepository interface {
	// Record stores d and assigns d.Version, one more than the keyspace's
	// latest recorded version.
	Record(ctx context.Context, d *Deployment) error
	// LatestVersion returns the highest version recorded for keyspace, 0 if none.
	LatestVersion(ctx context.Context, keyspace string) (int, error)
	// Latest returns the most recent deployment of keyspace.
	Latest(ctx context.Context, keyspace string) (*Deployment, error)
}
