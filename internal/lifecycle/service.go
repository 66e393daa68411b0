// Package lifecycle orchestrates organization create / get / delete / rename
// across the directory store and the per-tenant databases.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/orgvault/backend/internal/directory"
	"github.com/orgvault/backend/internal/models"
	"github.com/orgvault/backend/internal/tenant"
	"github.com/orgvault/backend/pkg/queue"
	"github.com/orgvault/backend/pkg/utils"
)

// Directory is the master-database surface the service needs.
// *directory.Repository satisfies it.
type Directory interface {
	OrganizationByCanonicalName(ctx context.Context, canonicalName string) (*models.Organization, error)
	InsertOrganization(ctx context.Context, org *models.Organization) error
	UpdateOrganizationName(ctx context.Context, id primitive.ObjectID, displayName, canonicalName string) error
	DeleteOrganization(ctx context.Context, id primitive.ObjectID) error
	InsertAdmin(ctx context.Context, admin *models.Admin) error
	DeleteAdminByID(ctx context.Context, id primitive.ObjectID) error
	DeleteAdminsByOrganization(ctx context.Context, orgID string) (int64, error)
}

// TenantStore is the per-tenant namespace surface the service needs.
// *tenant.Store satisfies it.
type TenantStore interface {
	WriteMetadata(ctx context.Context, canonicalName string, meta models.TenantMetadata) error
	Drop(ctx context.Context, canonicalName string) error
}

// CleanupQueue accepts orphaned-namespace cleanup jobs for the janitor.
// *queue.Queue satisfies it; may be nil when no queue is configured.
type CleanupQueue interface {
	EnqueueNamespaceCleanup(ctx context.Context, payload queue.NamespaceCleanupPayload) error
}

// Service is the tenant lifecycle manager.
type Service struct {
	dir     Directory
	tenants TenantStore
	cleanup CleanupQueue
	logger  *zap.Logger
}

// NewService creates a lifecycle service. cleanup may be nil.
func NewService(dir Directory, tenants TenantStore, cleanup CleanupQueue, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{dir: dir, tenants: tenants, cleanup: cleanup, logger: logger}
}

// compensation is one undo action recorded after a successful write during
// provisioning, executed in reverse order on failure.
type compensation struct {
	op  string
	run func(ctx context.Context) error
}

// Create provisions a new organization: directory record, admin credential,
// then the tenant metadata marker that materializes the tenant database.
//
// The three writes are not transactional. On failure, compensating deletes
// run in reverse over whatever already landed; the tenant namespace is never
// dropped inline (a cleanup job is enqueued for the janitor instead). A
// compensating delete that itself fails is surfaced in the returned
// DependencyError, never swallowed.
func (s *Service) Create(ctx context.Context, displayName, adminEmail, password string) (*models.Organization, error) {
	canonical := tenant.Sanitize(displayName)
	if canonical == "" {
		return nil, ErrInvalidInput
	}

	// Pre-check for a friendlier conflict error; the unique index on
	// canonical_name is the authority under concurrent creates.
	existing, err := s.dir.OrganizationByCanonicalName(ctx, canonical)
	if err != nil {
		return nil, &DependencyError{Op: "lookup organization", Err: err}
	}
	if existing != nil {
		return nil, ErrConflict
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, &DependencyError{Op: "hash password", Err: err}
	}

	org := &models.Organization{
		DisplayName:   displayName,
		CanonicalName: canonical,
		AdminEmail:    adminEmail,
	}
	if err := s.dir.InsertOrganization(ctx, org); err != nil {
		if errors.Is(err, directory.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, &DependencyError{Op: "insert organization", Err: err}
	}
	undo := []compensation{{
		op:  "delete organization record",
		run: func(ctx context.Context) error { return s.dir.DeleteOrganization(ctx, org.ID) },
	}}

	admin := &models.Admin{
		Email:          adminEmail,
		PasswordHash:   hash,
		OrganizationID: org.ID.Hex(),
	}
	if err := s.dir.InsertAdmin(ctx, admin); err != nil {
		return nil, s.rollback(ctx, canonical, "insert admin", err, undo, false)
	}
	undo = append(undo, compensation{
		op:  "delete admin record",
		run: func(ctx context.Context) error { return s.dir.DeleteAdminByID(ctx, admin.ID) },
	})

	meta := models.TenantMetadata{
		OrganizationID: org.ID.Hex(),
		DisplayName:    displayName,
	}
	if err := s.tenants.WriteMetadata(ctx, canonical, meta); err != nil {
		return nil, s.rollback(ctx, canonical, "write tenant metadata", err, undo, true)
	}

	s.logger.Info("organization provisioned",
		zap.String("organization_id", org.ID.Hex()),
		zap.String("canonical_name", canonical),
		zap.String("namespace", tenant.NamespaceFor(canonical)))
	return org, nil
}

// rollback executes compensations in reverse. Failures of the compensating
// deletes are collected into the returned DependencyError and logged; they
// indicate inconsistent directory state needing manual intervention.
// tenantTouched marks that the tenant namespace may already exist, in which
// case a cleanup job is enqueued best-effort for the janitor.
func (s *Service) rollback(ctx context.Context, canonical, op string, cause error, undo []compensation, tenantTouched bool) error {
	depErr := &DependencyError{Op: op, Err: cause}
	for i := len(undo) - 1; i >= 0; i-- {
		if err := undo[i].run(ctx); err != nil {
			s.logger.Error("provisioning rollback step failed",
				zap.String("step", undo[i].op),
				zap.String("canonical_name", canonical),
				zap.Error(err))
			depErr.Compensation = append(depErr.Compensation, errors.New(undo[i].op+": "+err.Error()))
		}
	}
	if tenantTouched && s.cleanup != nil {
		payload := queue.NamespaceCleanupPayload{
			CanonicalName: canonical,
			Reason:        "provisioning rollback: " + op,
			RequestedAt:   time.Now().UTC(),
		}
		if err := s.cleanup.EnqueueNamespaceCleanup(ctx, payload); err != nil {
			s.logger.Warn("cleanup enqueue failed, namespace may be orphaned",
				zap.String("namespace", tenant.NamespaceFor(canonical)), zap.Error(err))
		}
	}
	return depErr
}

// Get looks up an organization by display name.
func (s *Service) Get(ctx context.Context, displayName string) (*models.Organization, error) {
	canonical := tenant.Sanitize(displayName)
	if canonical == "" {
		return nil, ErrInvalidInput
	}
	org, err := s.dir.OrganizationByCanonicalName(ctx, canonical)
	if err != nil {
		return nil, &DependencyError{Op: "lookup organization", Err: err}
	}
	if org == nil {
		return nil, ErrNotFound
	}
	return org, nil
}

// Delete removes the organization and its admin records from the directory,
// then drops the tenant database outright.
//
// The directory is cleaned up first: a mid-sequence failure then leaves an
// orphaned tenant namespace rather than a dangling directory entry, which is
// the intended trade-off (lose isolated tenant data before directory
// integrity).
func (s *Service) Delete(ctx context.Context, displayName, requestingAdminEmail string) error {
	canonical := tenant.Sanitize(displayName)
	if canonical == "" {
		return ErrInvalidInput
	}
	org, err := s.dir.OrganizationByCanonicalName(ctx, canonical)
	if err != nil {
		return &DependencyError{Op: "lookup organization", Err: err}
	}
	if org == nil {
		return ErrNotFound
	}
	if org.AdminEmail != requestingAdminEmail {
		return ErrForbidden
	}

	if err := s.dir.DeleteOrganization(ctx, org.ID); err != nil {
		return &DependencyError{Op: "delete organization record", Err: err}
	}
	if _, err := s.dir.DeleteAdminsByOrganization(ctx, org.ID.Hex()); err != nil {
		return &DependencyError{Op: "delete admin records", Err: err}
	}
	if err := s.tenants.Drop(ctx, canonical); err != nil {
		return &DependencyError{Op: "drop tenant namespace", Err: err}
	}

	s.logger.Info("organization deleted",
		zap.String("organization_id", org.ID.Hex()),
		zap.String("canonical_name", canonical))
	return nil
}

// Rename updates the organization's display name and canonical name in the
// directory only. Tenant data stays under the old namespace until the
// migration tool is run and cutover is completed; the rename is not fully
// applied to tenant data when this returns.
func (s *Service) Rename(ctx context.Context, displayName, newDisplayName, requestingAdminEmail string) (*models.Organization, error) {
	oldCanonical := tenant.Sanitize(displayName)
	newCanonical := tenant.Sanitize(newDisplayName)
	if oldCanonical == "" || newCanonical == "" {
		return nil, ErrInvalidInput
	}

	org, err := s.dir.OrganizationByCanonicalName(ctx, oldCanonical)
	if err != nil {
		return nil, &DependencyError{Op: "lookup organization", Err: err}
	}
	if org == nil {
		return nil, ErrNotFound
	}
	if org.AdminEmail != requestingAdminEmail {
		return nil, ErrForbidden
	}

	// A display-name change that keeps the same canonical name is not a
	// conflict with itself.
	if newCanonical != oldCanonical {
		holder, err := s.dir.OrganizationByCanonicalName(ctx, newCanonical)
		if err != nil {
			return nil, &DependencyError{Op: "lookup new name", Err: err}
		}
		if holder != nil && holder.ID != org.ID {
			return nil, ErrConflict
		}
	}

	if err := s.dir.UpdateOrganizationName(ctx, org.ID, newDisplayName, newCanonical); err != nil {
		if errors.Is(err, directory.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, &DependencyError{Op: "update organization name", Err: err}
	}
	org.DisplayName = newDisplayName
	org.CanonicalName = newCanonical

	if newCanonical != oldCanonical {
		s.logger.Warn("organization renamed, tenant data not moved",
			zap.String("organization_id", org.ID.Hex()),
			zap.String("old_namespace", tenant.NamespaceFor(oldCanonical)),
			zap.String("new_namespace", tenant.NamespaceFor(newCanonical)))
	}
	return org, nil
}
