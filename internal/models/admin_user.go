package models

import "time"

// Role is an administrative role carried in the identity's public metadata.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleSupport    Role = "support"
	RoleManager    Role = "manager"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleSupport, RoleManager, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Permissions gating the console routes.
const (
	PermManageProducts   = "manage_products"
	PermManageCategories = "manage_categories"
	PermManageBrands     = "manage_brands"
	PermManageOrders     = "manage_orders"
	PermManageUsers      = "manage_users"
	PermManageAdmins     = "manage_admins"
	PermManageSettings   = "manage_settings"
)

// AllPermissions lists every console permission.
var AllPermissions = []string{
	PermManageProducts,
	PermManageCategories,
	PermManageBrands,
	PermManageOrders,
	PermManageUsers,
	PermManageAdmins,
	PermManageSettings,
}

// RolePresets are the permission bundles assigned atomically with a role.
var RolePresets = map[Role][]string{
	RoleSupport: {PermManageOrders, PermManageUsers},
	RoleManager: {PermManageProducts, PermManageCategories, PermManageBrands, PermManageOrders},
	RoleAdmin: {
		PermManageProducts, PermManageCategories, PermManageBrands,
		PermManageOrders, PermManageUsers, PermManageSettings,
	},
	RoleSuperAdmin: AllPermissions,
}

// PresetFor returns a copy of the preset permissions for role.
func PresetFor(role Role) []string {
	return append([]string(nil), RolePresets[role]...)
}

// AdminMetadata is the role data stored on an identity-provider user.
type AdminMetadata struct {
	Role        Role       `json:"role,omitempty"`
	Permissions []string   `json:"permissions,omitempty"`
	AssignedAt  *time.Time `json:"assignedAt,omitempty"`
	AssignedBy  string     `json:"assignedBy,omitempty"`
}

// AdminUser is an identity-provider user as listed by the admin endpoints.
type AdminUser struct {
	ID             string         `json:"id"`
	Email          string         `json:"email"`
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`
	PhoneNumber    string         `json:"phoneNumber,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	LastLoginAt    *time.Time     `json:"lastLoginAt,omitempty"`
	PublicMetadata *AdminMetadata `json:"publicMetadata,omitempty"`
}

// Key returns the user id.
func (u AdminUser) Key() string { return u.ID }

// Role returns the metadata role, defaulting to customer.
func (u AdminUser) Role() Role {
	if u.PublicMetadata == nil || u.PublicMetadata.Role == "" {
		return RoleCustomer
	}
	return u.PublicMetadata.Role
}

// AdminAssignment grants a role and permission set to a user.
type AdminAssignment struct {
	UserID      string   `json:"userId"`
	Role        Role     `json:"role"`
	Permissions []string `json:"permissions"`
}

// UserActivity is one audit entry for a user.
type UserActivity struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	IPAddress   string    `json:"ipAddress,omitempty"`
	UserAgent   string    `json:"userAgent,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BulkResult reports per-item outcome of a bulk role operation or import.
type BulkResult struct {
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors"`
}

// Partial reports whether some but not all items failed.
func (r BulkResult) Partial() bool {
	return r.Failed > 0 && r.Successful > 0
}

// AdminStats is the aggregate returned by the admin user stats endpoint.
type AdminStats struct {
	TotalUsers    int `json:"totalUsers"`
	TotalAdmins   int `json:"totalAdmins"`
	RecentSignups int `json:"recentSignups"`
	ActiveUsers   int `json:"activeUsers"`
}
