// Package auth holds the console's identity model and permission gate.
// The gate is evaluated from already-loaded identity data and never calls out.
package auth

import (
	"github.com/GTDGit/gtd_admin/internal/models"
)

// Identity is the signed-in user as resolved from the identity token.
type Identity struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	ImageURL    string      `json:"imageUrl,omitempty"`
	Role        models.Role `json:"role"`
	Permissions []string    `json:"permissions"`
}

// IsAdmin reports whether the role is admin or super_admin.
func (i *Identity) IsAdmin() bool {
	if i == nil {
		return false
	}
	return i.Role == models.RoleAdmin || i.Role == models.RoleSuperAdmin
}

func (i *Identity) isSuperAdmin() bool {
	return i != nil && i.Role == models.RoleSuperAdmin
}

func (i *Identity) has(p string) bool {
	for _, own := range i.Permissions {
		if own == p {
			return true
		}
	}
	return false
}

// HasPermission reports whether i holds p. super_admin holds everything.
func (i *Identity) HasPermission(p string) bool {
	if i == nil {
		return false
	}
	return i.isSuperAdmin() || i.has(p)
}

// HasAnyPermission reports whether i holds at least one of ps.
func (i *Identity) HasAnyPermission(ps []string) bool {
	if i == nil {
		return false
	}
	if i.isSuperAdmin() {
		return true
	}
	for _, p := range ps {
		if i.has(p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether i holds every one of ps.
func (i *Identity) HasAllPermissions(ps []string) bool {
	if i == nil {
		return false
	}
	if i.isSuperAdmin() {
		return true
	}
	for _, p := range ps {
		if !i.has(p) {
			return false
		}
	}
	return true
}

// Decision is the outcome of guarding a route.
type Decision int

const (
	Allow Decision = iota
	SignIn
	Unauthorized
	NoPermission
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case SignIn:
		return "sign_in"
	case Unauthorized:
		return "unauthorized"
	case NoPermission:
		return "no_permission"
	default:
		return "unknown"
	}
}

// Redirect returns the console path the browser should be sent to.
func (d Decision) Redirect() string {
	switch d {
	case SignIn:
		return "/sign-in"
	case Unauthorized:
		return "/unauthorized"
	case NoPermission:
		return "/no-permission"
	default:
		return ""
	}
}

// Guard decides access to a route requiring permission (empty = admin only).
func Guard(i *Identity, permission string) Decision {
	switch {
	case i == nil:
		return SignIn
	case !i.IsAdmin():
		return Unauthorized
	case permission != "" && !i.HasPermission(permission):
		return NoPermission
	default:
		return Allow
	}
}

// NavItem is one sidebar entry.
type NavItem struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Path       string `json:"path"`
	Permission string `json:"permission,omitempty"`
}

// Navigation is the full sidebar, in display order.
var Navigation = []NavItem{
	{ID: "dashboard", Label: "Dashboard", Path: "/admin"},
	{ID: "products", Label: "Products", Path: "/admin/products", Permission: models.PermManageProducts},
	{ID: "categories", Label: "Categories", Path: "/admin/categories", Permission: models.PermManageCategories},
	{ID: "brands", Label: "Brands", Path: "/admin/brands", Permission: models.PermManageBrands},
	{ID: "orders", Label: "Orders", Path: "/admin/orders", Permission: models.PermManageOrders},
	{ID: "users", Label: "Users", Path: "/admin/users", Permission: models.PermManageUsers},
	{ID: "admins", Label: "Admins", Path: "/admin/admins", Permission: models.PermManageAdmins},
	{ID: "settings", Label: "Settings", Path: "/admin/settings", Permission: models.PermManageSettings},
}

// VisibleNavigation filters Navigation down to the entries i may open.
func VisibleNavigation(i *Identity) []NavItem {
	out := make([]NavItem, 0, len(Navigation))
	for _, item := range Navigation {
		if Guard(i, item.Permission) == Allow {
			out = append(out, item)
		}
	}
	return out
}
