package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/audit"
	"erpcore/internal/tenant"
	"erpcore/internal/vendors/store"
	"erpcore/pkg/domain"
	dErrors "erpcore/pkg/domain-errors"
	"erpcore/pkg/requestcontext"
)

type auditCall struct {
	scope    string
	entityID string
	action   audit.Action
}

type fakeRecorder struct {
	calls []auditCall
}

func (r *fakeRecorder) Record(_ context.Context, tc *tenant.Context, _, entityID string, action audit.Action, _ audit.Changes) {
	r.calls = append(r.calls, auditCall{scope: tc.Scope.String(), entityID: entityID, action: action})
}

func memberCtx(t *testing.T, orgID domain.OrgID, role domain.Role) *tenant.Context {
	t.Helper()
	tc, err := tenant.NewContext(domain.NewUserID(), role, domain.OrgScope(orgID))
	require.NoError(t, err)
	return tc
}

func platformCtx(t *testing.T) *tenant.Context {
	t.Helper()
	tc, err := tenant.NewContext(domain.NewUserID(), domain.RoleSuperAdmin, domain.PlatformScope())
	require.NoError(t, err)
	return tc
}

func testCtx() context.Context {
	return requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func TestTenantSeparation(t *testing.T) {
	// Two organizations each register a vendor under the same name. Neither
	// listing may ever show the other organization's row.
	svc := New(store.NewInMemory())
	orgA := domain.NewOrgID()
	orgB := domain.NewOrgID()
	adminA := memberCtx(t, orgA, domain.RoleAdmin)
	adminB := memberCtx(t, orgB, domain.RoleAdmin)

	createdA, err := svc.Create(testCtx(), adminA, Input{Name: "Acme Supplies"})
	require.NoError(t, err)
	createdB, err := svc.Create(testCtx(), adminB, Input{Name: "Acme Supplies"})
	require.NoError(t, err)
	require.NotEqual(t, createdA.ID, createdB.ID)

	listA, err := svc.List(testCtx(), adminA)
	require.NoError(t, err)
	require.Len(t, listA, 1)
	assert.Equal(t, createdA.ID, listA[0].ID)
	assert.Equal(t, orgA, listA[0].OrganizationID)

	listB, err := svc.List(testCtx(), adminB)
	require.NoError(t, err)
	require.Len(t, listB, 1)
	assert.Equal(t, createdB.ID, listB[0].ID)

	t.Run("foreign vendor by id reads as cross-tenant", func(t *testing.T) {
		_, err := svc.Get(testCtx(), adminA, createdB.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeCrossTenant))
	})

	t.Run("foreign vendor cannot be updated or deleted", func(t *testing.T) {
		_, err := svc.Update(testCtx(), adminA, createdB.ID, Input{Name: "Hijacked"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeCrossTenant))

		err = svc.Delete(testCtx(), adminA, createdB.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeCrossTenant))

		still, err := svc.Get(testCtx(), adminB, createdB.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme Supplies", still.Name)
	})

	t.Run("platform principal sees both rows", func(t *testing.T) {
		all, err := svc.List(testCtx(), platformCtx(t))
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestGuardFloors(t *testing.T) {
	svc := New(store.NewInMemory())
	orgID := domain.NewOrgID()
	admin := memberCtx(t, orgID, domain.RoleAdmin)
	member := memberCtx(t, orgID, domain.RoleUser)

	created, err := svc.Create(testCtx(), admin, Input{Name: "Globex"})
	require.NoError(t, err)

	t.Run("members read but do not mutate", func(t *testing.T) {
		_, err := svc.Get(testCtx(), member, created.ID)
		require.NoError(t, err)

		_, err = svc.List(testCtx(), member)
		require.NoError(t, err)

		_, err = svc.Create(testCtx(), member, Input{Name: "Initech"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientRole))

		_, err = svc.Update(testCtx(), member, created.ID, Input{Name: "Initech"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientRole))

		err = svc.Delete(testCtx(), member, created.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientRole))
	})

	t.Run("platform principals do not get the org mutation floor implicitly", func(t *testing.T) {
		_, err := svc.Create(testCtx(), platformCtx(t), Input{Name: "Initech"})
		assert.Error(t, err)
	})

	t.Run("nil context is rejected outright", func(t *testing.T) {
		_, err := svc.List(testCtx(), nil)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTenantMissing))
	})
}

func TestCreate(t *testing.T) {
	t.Run("owner comes from the context", func(t *testing.T) {
		recorder := &fakeRecorder{}
		svc := New(store.NewInMemory(), WithRecorder(recorder))
		orgID := domain.NewOrgID()
		admin := memberCtx(t, orgID, domain.RoleAdmin)

		v, err := svc.Create(testCtx(), admin, Input{Name: "Globex", Email: "sales@globex.test"})
		require.NoError(t, err)
		assert.Equal(t, orgID, v.OrganizationID)

		require.Len(t, recorder.calls, 1)
		assert.Equal(t, audit.ActionCreate, recorder.calls[0].action)
		assert.Equal(t, orgID.String(), recorder.calls[0].scope)
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		svc := New(store.NewInMemory())
		admin := memberCtx(t, domain.NewOrgID(), domain.RoleAdmin)

		_, err := svc.Create(testCtx(), admin, Input{Name: "   "})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestUpdateAndDelete(t *testing.T) {
	recorder := &fakeRecorder{}
	svc := New(store.NewInMemory(), WithRecorder(recorder))
	orgID := domain.NewOrgID()
	admin := memberCtx(t, orgID, domain.RoleAdmin)

	created, err := svc.Create(testCtx(), admin, Input{Name: "Globex"})
	require.NoError(t, err)

	updated, err := svc.Update(testCtx(), admin, created.ID, Input{Name: "Globex Corp", Email: "ap@globex.test"})
	require.NoError(t, err)
	assert.Equal(t, "Globex Corp", updated.Name)

	require.NoError(t, svc.Delete(testCtx(), admin, created.ID))

	_, err = svc.Get(testCtx(), admin, created.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	var actions []audit.Action
	for _, call := range recorder.calls {
		actions = append(actions, call.action)
	}
	assert.Equal(t, []audit.Action{audit.ActionCreate, audit.ActionUpdate, audit.ActionDelete}, actions)

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := svc.Get(testCtx(), admin, uuid.New())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
