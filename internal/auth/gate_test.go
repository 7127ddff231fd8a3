package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GTDGit/gtd_admin/internal/models"
)

func TestIdentity_SuperAdminHoldsEverything(t *testing.T) {
	i := &Identity{Role: models.RoleSuperAdmin, Permissions: []string{}}

	assert.True(t, i.IsAdmin())
	assert.True(t, i.HasPermission("manage_settings"))
	assert.True(t, i.HasAnyPermission([]string{"anything"}))
	assert.True(t, i.HasAllPermissions([]string{"a", "b"}))
}

func TestIdentity_ExplicitPermissions(t *testing.T) {
	i := &Identity{Role: models.RoleManager, Permissions: []string{"products.view"}}

	assert.True(t, i.HasPermission("products.view"))
	assert.False(t, i.HasPermission("products.delete"))
	assert.True(t, i.HasAnyPermission([]string{"products.delete", "products.view"}))
	assert.False(t, i.HasAllPermissions([]string{"products.delete", "products.view"}))
	assert.True(t, i.HasAllPermissions(nil))
	assert.False(t, i.HasAnyPermission(nil))
	assert.False(t, i.IsAdmin())
}

func TestIdentity_Nil(t *testing.T) {
	var i *Identity
	assert.False(t, i.IsAdmin())
	assert.False(t, i.HasPermission("x"))
	assert.False(t, i.HasAnyPermission([]string{"x"}))
	assert.False(t, i.HasAllPermissions([]string{"x"}))
}

func TestGuard(t *testing.T) {
	admin := &Identity{Role: models.RoleAdmin, Permissions: []string{models.PermManageProducts}}
	manager := &Identity{Role: models.RoleManager, Permissions: models.PresetFor(models.RoleManager)}
	root := &Identity{Role: models.RoleSuperAdmin}

	tests := []struct {
		name       string
		identity   *Identity
		permission string
		want       Decision
	}{
		{"anonymous", nil, models.PermManageProducts, SignIn},
		{"non admin", manager, models.PermManageProducts, Unauthorized},
		{"admin with permission", admin, models.PermManageProducts, Allow},
		{"admin missing permission", admin, models.PermManageOrders, NoPermission},
		{"admin dashboard", admin, "", Allow},
		{"super admin", root, models.PermManageSettings, Allow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Guard(tt.identity, tt.permission))
		})
	}
	assert.Equal(t, "/sign-in", SignIn.Redirect())
	assert.Equal(t, "/unauthorized", Unauthorized.Redirect())
	assert.Equal(t, "/no-permission", NoPermission.Redirect())
}

func TestVisibleNavigation(t *testing.T) {
	admin := &Identity{Role: models.RoleAdmin, Permissions: []string{models.PermManageOrders}}
	nav := VisibleNavigation(admin)

	ids := make([]string, 0, len(nav))
	for _, n := range nav {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"dashboard", "orders"}, ids)
	assert.Len(t, VisibleNavigation(&Identity{Role: models.RoleSuperAdmin}), len(Navigation))
	assert.Empty(t, VisibleNavigation(nil))
}
