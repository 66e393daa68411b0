// Package janitor drops tenant namespaces orphaned by failed provisioning
// rollbacks. Jobs arrive on the Redis cleanup queue; a namespace is only
// dropped after verifying nothing references it and it holds no tenant data.
package janitor

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/orgvault/backend/internal/models"
	"github.com/orgvault/backend/internal/tenant"
	"github.com/orgvault/backend/pkg/queue"
)

// DirectoryLookup resolves canonical names to live directory records.
// *directory.Repository satisfies it.
type DirectoryLookup interface {
	OrganizationByCanonicalName(ctx context.Context, canonicalName string) (*models.Organization, error)
}

// TenantStore is the namespace surface the janitor needs. *tenant.Store
// satisfies it.
type TenantStore interface {
	Exists(ctx context.Context, canonicalName string) (bool, error)
	CollectionNames(ctx context.Context, canonicalName string) ([]string, error)
	Drop(ctx context.Context, canonicalName string) error
}

// JobSource supplies cleanup jobs. *queue.Queue satisfies it.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// Janitor consumes cleanup jobs and drops verifiably orphaned namespaces.
type Janitor struct {
	jobs    JobSource
	dir     DirectoryLookup
	tenants TenantStore
	logger  *zap.Logger
}

// New creates a janitor.
func New(jobs JobSource, dir DirectoryLookup, tenants TenantStore, logger *zap.Logger) *Janitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Janitor{jobs: jobs, dir: dir, tenants: tenants, logger: logger}
}

// Run consumes jobs until ctx is cancelled. Failed jobs are retried with a
// bound, then dead-lettered by the queue.
func (j *Janitor) Run(ctx context.Context) {
	j.logger.Info("janitor started")
	for {
		select {
		case <-ctx.Done():
			j.logger.Info("janitor stopped")
			return
		default:
		}

		job, err := j.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				j.logger.Info("janitor stopped")
				return
			}
			j.logger.Error("dequeue failed", zap.Error(err))
			continue
		}
		if job == nil {
			continue
		}

		if err := j.process(ctx, job); err != nil {
			j.logger.Error("cleanup job failed", zap.String("job_id", job.ID), zap.Error(err))
			if err := j.jobs.Retry(ctx, job); err != nil {
				j.logger.Error("retry failed", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
	}
}

func (j *Janitor) process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeNamespaceCleanup {
		j.logger.Warn("unknown job type", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		return nil
	}
	var payload queue.NamespaceCleanupPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		j.logger.Warn("invalid cleanup payload", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}
	return j.CleanNamespace(ctx, payload.CanonicalName)
}

// CleanNamespace drops the tenant namespace for canonicalName if and only if
// no directory record claims it and it holds nothing beyond the metadata
// marker. Anything else is logged and left alone.
func (j *Janitor) CleanNamespace(ctx context.Context, canonicalName string) error {
	namespace := tenant.NamespaceFor(canonicalName)

	org, err := j.dir.OrganizationByCanonicalName(ctx, canonicalName)
	if err != nil {
		return fmt.Errorf("lookup organization: %w", err)
	}
	if org != nil {
		j.logger.Warn("namespace has a live directory record, refusing to drop",
			zap.String("namespace", namespace),
			zap.String("organization_id", org.ID.Hex()))
		return nil
	}

	exists, err := j.tenants.Exists(ctx, canonicalName)
	if err != nil {
		return fmt.Errorf("check namespace: %w", err)
	}
	if !exists {
		j.logger.Info("namespace already absent", zap.String("namespace", namespace))
		return nil
	}

	collections, err := j.tenants.CollectionNames(ctx, canonicalName)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, c := range collections {
		if c != tenant.MetadataCollection {
			j.logger.Warn("namespace holds tenant data, refusing to drop",
				zap.String("namespace", namespace),
				zap.String("collection", c))
			return nil
		}
	}

	if err := j.tenants.Drop(ctx, canonicalName); err != nil {
		return fmt.Errorf("drop namespace: %w", err)
	}
	j.logger.Info("orphaned namespace dropped", zap.String("namespace", namespace))
	return nil
}
