// AngelaMos | 2026
// entity_test.go

package role

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allPermissions = []Permission{Follow, Comment, Write, Moderate, Admin}

func TestPermissionHasMatchesBitmask(t *testing.T) {
	for _, seed := range Seeds {
		for _, p := range allPermissions {
			want := int(seed.Permissions)&int(p) != 0
			assert.Equal(t, want, seed.Permissions.Has(p), "%s/%d", seed.Name, p)
		}
	}
}

func TestPermissionHasRequiresEveryBit(t *testing.T) {
	p := Follow | Comment
	assert.True(t, p.Has(Follow|Comment))
	assert.False(t, p.Has(Follow|Write))
	assert.True(t, p.Has(0))
}

func TestRolePermissionEditing(t *testing.T) {
	r := &Role{Name: "custom"}

	r.AddPermission(Follow)
	r.AddPermission(Comment)
	r.AddPermission(Follow)
	assert.Equal(t, Follow|Comment, r.Permissions)
	assert.True(t, r.HasPermission(Comment))

	r.RemovePermission(Comment)
	r.RemovePermission(Write)
	assert.Equal(t, Follow, r.Permissions)

	r.ResetPermissions()
	assert.Equal(t, Permission(0), r.Permissions)
}

func TestAnonymousPrincipalHoldsNothing(t *testing.T) {
	var anon *Principal

	assert.False(t, anon.IsAuthenticated())
	assert.False(t, anon.IsAdministrator())
	for _, p := range allPermissions {
		assert.False(t, anon.Can(p))
	}
}

func TestPrincipalCan(t *testing.T) {
	mod := &Principal{UserID: 1, Permissions: Follow | Comment | Write | Moderate}

	assert.True(t, mod.IsAuthenticated())
	assert.True(t, mod.Can(Moderate))
	assert.False(t, mod.Can(Admin))
	assert.False(t, mod.IsAdministrator())

	admin := &Principal{UserID: 2, Permissions: Seeds[2].Permissions}
	assert.True(t, admin.IsAdministrator())
}

func TestSeedsTable(t *testing.T) {
	assert.NoError(t, validateSeeds(Seeds))

	byName := map[string]Seed{}
	for _, s := range Seeds {
		byName[s.Name] = s
	}
	assert.Equal(t, Follow|Comment|Write, byName[NameUser].Permissions)
	assert.True(t, byName[NameUser].Default)
	assert.Equal(t, Follow|Comment|Write|Moderate, byName[NameModerator].Permissions)
	assert.Equal(t, Permission(31), byName[NameAdministrator].Permissions)
}
