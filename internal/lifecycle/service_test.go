package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/orgvault/backend/internal/models"
	"github.com/orgvault/backend/pkg/queue"
	"github.com/orgvault/backend/pkg/utils"
)

type fakeDirectory struct {
	orgs   map[string]*models.Organization // keyed by canonical name
	admins map[primitive.ObjectID]*models.Admin

	insertOrgErr   error
	insertAdminErr error
	deleteOrgErr   error
	deleteAdminErr error

	orgInserts   int
	adminInserts int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		orgs:   make(map[string]*models.Organization),
		admins: make(map[primitive.ObjectID]*models.Admin),
	}
}

func (f *fakeDirectory) OrganizationByCanonicalName(_ context.Context, canonical string) (*models.Organization, error) {
	return f.orgs[canonical], nil
}

func (f *fakeDirectory) InsertOrganization(_ context.Context, org *models.Organization) error {
	if f.insertOrgErr != nil {
		return f.insertOrgErr
	}
	org.ID = primitive.NewObjectID()
	f.orgs[org.CanonicalName] = org
	f.orgInserts++
	return nil
}

func (f *fakeDirectory) UpdateOrganizationName(_ context.Context, id primitive.ObjectID, displayName, canonical string) error {
	for c, org := range f.orgs {
		if org.ID == id {
			delete(f.orgs, c)
			org.DisplayName = displayName
			org.CanonicalName = canonical
			f.orgs[canonical] = org
			return nil
		}
	}
	return errors.New("no such organization")
}

func (f *fakeDirectory) DeleteOrganization(_ context.Context, id primitive.ObjectID) error {
	if f.deleteOrgErr != nil {
		return f.deleteOrgErr
	}
	for c, org := range f.orgs {
		if org.ID == id {
			delete(f.orgs, c)
		}
	}
	return nil
}

func (f *fakeDirectory) InsertAdmin(_ context.Context, admin *models.Admin) error {
	if f.insertAdminErr != nil {
		return f.insertAdminErr
	}
	admin.ID = primitive.NewObjectID()
	f.admins[admin.ID] = admin
	f.adminInserts++
	return nil
}

func (f *fakeDirectory) DeleteAdminByID(_ context.Context, id primitive.ObjectID) error {
	if f.deleteAdminErr != nil {
		return f.deleteAdminErr
	}
	delete(f.admins, id)
	return nil
}

func (f *fakeDirectory) DeleteAdminsByOrganization(_ context.Context, orgID string) (int64, error) {
	var n int64
	for id, a := range f.admins {
		if a.OrganizationID == orgID {
			delete(f.admins, id)
			n++
		}
	}
	return n, nil
}

type fakeTenantStore struct {
	metadata map[string]models.TenantMetadata
	dropped  []string
	writeErr error
	dropErr  error
}

func newFakeTenantStore() *fakeTenantStore {
	return &fakeTenantStore{metadata: make(map[string]models.TenantMetadata)}
}

func (f *fakeTenantStore) WriteMetadata(_ context.Context, canonical string, meta models.TenantMetadata) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.metadata[canonical] = meta
	return nil
}

func (f *fakeTenantStore) Drop(_ context.Context, canonical string) error {
	if f.dropErr != nil {
		return f.dropErr
	}
	delete(f.metadata, canonical)
	f.dropped = append(f.dropped, canonical)
	return nil
}

type fakeCleanup struct {
	jobs []queue.NamespaceCleanupPayload
}

func (f *fakeCleanup) EnqueueNamespaceCleanup(_ context.Context, p queue.NamespaceCleanupPayload) error {
	f.jobs = append(f.jobs, p)
	return nil
}

func TestCreateProvisionsEverything(t *testing.T) {
	dir := newFakeDirectory()
	tenants := newFakeTenantStore()
	svc := NewService(dir, tenants, nil, nil)

	org, err := svc.Create(context.Background(), "Acme   Corp!", "admin@acme.test", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "Acme   Corp!", org.DisplayName)
	assert.Equal(t, "acme_corp", org.CanonicalName)
	assert.False(t, org.ID.IsZero())

	require.Contains(t, dir.orgs, "acme_corp")
	require.Len(t, dir.admins, 1)
	for _, admin := range dir.admins {
		assert.Equal(t, "admin@acme.test", admin.Email)
		assert.Equal(t, org.ID.Hex(), admin.OrganizationID)
		assert.True(t, utils.CheckPassword("s3cret-pass", admin.PasswordHash))
	}

	meta, ok := tenants.metadata["acme_corp"]
	require.True(t, ok, "tenant metadata must be written")
	assert.Equal(t, org.ID.Hex(), meta.OrganizationID)
	assert.Equal(t, "Acme   Corp!", meta.DisplayName)
}

func TestCreateConflictWritesNothing(t *testing.T) {
	dir := newFakeDirectory()
	tenants := newFakeTenantStore()
	svc := NewService(dir, tenants, nil, nil)

	_, err := svc.Create(context.Background(), "Acme Corp", "first@acme.test", "password-1")
	require.NoError(t, err)
	orgInserts, adminInserts := dir.orgInserts, dir.adminInserts

	_, err = svc.Create(context.Background(), "ACME    CORP", "second@acme.test", "password-2")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, orgInserts, dir.orgInserts)
	assert.Equal(t, adminInserts, dir.adminInserts)
	assert.Len(t, tenants.metadata, 1)
}

func TestCreateRejectsEmptyCanonicalName(t *testing.T) {
	svc := NewService(newFakeDirectory(), newFakeTenantStore(), nil, nil)

	_, err := svc.Create(context.Background(), "!!!", "admin@acme.test", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateRollsBackOnAdminInsertFailure(t *testing.T) {
	dir := newFakeDirectory()
	dir.insertAdminErr = errors.New("write failed")
	tenants := newFakeTenantStore()
	svc := NewService(dir, tenants, nil, nil)

	_, err := svc.Create(context.Background(), "Acme Corp", "admin@acme.test", "s3cret-pass")
	var dep *DependencyError
	require.ErrorAs(t, err, &dep)
	assert.Empty(t, dep.Compensation)

	assert.Empty(t, dir.orgs, "organization record must be compensated away")
	assert.Empty(t, tenants.metadata)
}

func TestCreateRollsBackOnTenantWriteAndEnqueuesCleanup(t *testing.T) {
	dir := newFakeDirectory()
	tenants := newFakeTenantStore()
	tenants.writeErr = errors.New("tenant write failed")
	cleanup := &fakeCleanup{}
	svc := NewService(dir, tenants, cleanup, nil)

	_, err := svc.Create(context.Background(), "Acme Corp", "admin@acme.test", "s3cret-pass")
	var dep *DependencyError
	require.ErrorAs(t, err, &dep)
	assert.Empty(t, dep.Compensation)

	assert.Empty(t, dir.orgs)
	assert.Empty(t, dir.admins)
	require.Len(t, cleanup.jobs, 1)
	assert.Equal(t, "acme_corp", cleanup.jobs[0].CanonicalName)
}

func TestCreateSurfacesCompensationFailure(t *testing.T) {
	dir := newFakeDirectory()
	dir.insertAdminErr = errors.New("write failed")
	dir.deleteOrgErr = errors.New("delete also failed")
	svc := NewService(dir, newFakeTenantStore(), nil, nil)

	_, err := svc.Create(context.Background(), "Acme Corp", "admin@acme.test", "s3cret-pass")
	var dep *DependencyError
	require.ErrorAs(t, err, &dep)
	require.Len(t, dep.Compensation, 1)
	assert.Contains(t, dep.Error(), "rollback incomplete")
}

func TestGet(t *testing.T) {
	dir := newFakeDirectory()
	svc := NewService(dir, newFakeTenantStore(), nil, nil)

	_, err := svc.Create(context.Background(), "Acme Corp", "admin@acme.test", "s3cret-pass")
	require.NoError(t, err)

	org, err := svc.Get(context.Background(), "ACME    CORP")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", org.DisplayName)

	_, err = svc.Get(context.Background(), "No Such Org")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteByNonOwnerLeavesStateUntouched(t *testing.T) {
	dir := newFakeDirectory()
	tenants := newFakeTenantStore()
	svc := NewService(dir, tenants, nil, nil)

	_, err := svc.Create(context.Background(), "Acme Corp", "owner@acme.test", "s3cret-pass")
	require.NoError(t, err)

	err = svc.Delete(context.Background(), "Acme Corp", "intruder@evil.test")
	assert.ErrorIs(t, err, ErrForbidden)

	assert.Len(t, dir.orgs, 1)
	assert.Len(t, dir.admins, 1)
	assert.Contains(t, tenants.metadata, "acme_corp")
	assert.Empty(t, tenants.dropped)
}

func TestDeleteByOwnerRemovesEverything(t *testing.T) {
	dir := newFakeDirectory()
	tenants := newFakeTenantStore()
	svc := NewService(dir, tenants, nil, nil)

	_, err := svc.Create(context.Background(), "Acme Corp", "owner@acme.test", "s3cret-pass")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "Acme Corp", "owner@acme.test"))

	assert.Empty(t, dir.orgs)
	assert.Empty(t, dir.admins)
	assert.Equal(t, []string{"acme_corp"}, tenants.dropped)

	err = svc.Delete(context.Background(), "Acme Corp", "owner@acme.test")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRenameUpdatesDirectoryOnly(t *testing.T) {
	dir := newFakeDirectory()
	tenants := newFakeTenantStore()
	svc := NewService(dir, tenants, nil, nil)

	_, err := svc.Create(context.Background(), "Acme Corp", "owner@acme.test", "s3cret-pass")
	require.NoError(t, err)

	org, err := svc.Rename(context.Background(), "Acme Corp", "Acme Global", "owner@acme.test")
	require.NoError(t, err)
	assert.Equal(t, "Acme Global", org.DisplayName)
	assert.Equal(t, "acme_global", org.CanonicalName)

	// Tenant data stays under the old namespace until migration.
	assert.Contains(t, tenants.metadata, "acme_corp")
	assert.NotContains(t, tenants.metadata, "acme_global")
	assert.Empty(t, tenants.dropped)
}

func TestRenameConflictsWithOtherOrganization(t *testing.T) {
	dir := newFakeDirectory()
	svc := NewService(dir, newFakeTenantStore(), nil, nil)

	_, err := svc.Create(context.Background(), "Acme Corp", "a@acme.test", "s3cret-pass")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "Beta Inc", "b@beta.test", "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.Rename(context.Background(), "Beta Inc", "ACME corp", "b@beta.test")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRenameToSameCanonicalName(t *testing.T) {
	dir := newFakeDirectory()
	svc := NewService(dir, newFakeTenantStore(), nil, nil)

	_, err := svc.Create(context.Background(), "Acme Corp", "owner@acme.test", "s3cret-pass")
	require.NoError(t, err)

	// A cosmetic display-name change is not a conflict with itself.
	org, err := svc.Rename(context.Background(), "Acme Corp", "ACME CORP", "owner@acme.test")
	require.NoError(t, err)
	assert.Equal(t, "ACME CORP", org.DisplayName)
	assert.Equal(t, "acme_corp", org.CanonicalName)
}

func TestRenameAuthorization(t *testing.T) {
	dir := newFakeDirectory()
	svc := NewService(dir, newFakeTenantStore(), nil, nil)

	_, err := svc.Create(context.Background(), "Acme Corp", "owner@acme.test", "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.Rename(context.Background(), "Acme Corp", "Acme Global", "intruder@evil.test")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Rename(context.Background(), "Missing Org", "Whatever Name", "owner@acme.test")
	assert.ErrorIs(t, err, ErrNotFound)
}
