package mcp

import (
	"context"

	"github.com/fithub/records/internal/backend"
	"github.com/fithub/records/internal/models"
	"github.com/fithub/records/internal/recordcache"
	"github.com/fithub/records/internal/storage"
)

// DataSource abstracts where the training history comes from. *storage.DB
// serves it from the local mirror; BackendSource reads the Fithub API directly.
type DataSource interface {
	ListRecords(ctx context.Context, userID int) ([]models.TrainingRecord, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)

// BackendSource implements DataSource over the Fithub API. The API scopes
// records to the session, so the user ID is ignored.
// Used for stdio mode where no local mirror exists.
type BackendSource struct {
	client *backend.Client
}

// Compile-time check: BackendSource satisfies DataSource.
var _ DataSource = (*BackendSource)(nil)

// NewBackendSource wraps a backend client.
func NewBackendSource(client *backend.Client) *BackendSource {
	return &BackendSource{client: client}
}

func (b *BackendSource) ListRecords(ctx context.Context, _ int) ([]models.TrainingRecord, error) {
	return b.client.FetchRecords(ctx)
}

// SnapshotSource serves records with their PRs already calculated.
// *recordcache.Cache satisfies it.
type SnapshotSource interface {
	Get(ctx context.Context) (*recordcache.Snapshot, error)
}

var _ SnapshotSource = (*recordcache.Cache)(nil)
