package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_admin/internal/models"
	"github.com/GTDGit/gtd_admin/internal/utils"
	"github.com/GTDGit/gtd_admin/pkg/catalogapi"
)

// AdminService manages identity-provider users and their admin roles.
type AdminService struct {
	*Resource[models.AdminUser]
	client *catalogapi.Client
}

// NewAdminService constructs an AdminService.
func NewAdminService(client *catalogapi.Client) *AdminService {
	return &AdminService{
		Resource: NewResource[models.AdminUser](client, "admins", "/admin/users"),
		client:   client,
	}
}

// Admins lists users holding an admin role.
func (s *AdminService) Admins(ctx context.Context) ([]models.AdminUser, error) {
	return fetchList[models.AdminUser](ctx, s.client, s.name, s.path+"/admins", nil)
}

// MakeAdmin grants role to userID. Empty permissions take the role preset.
func (s *AdminService) MakeAdmin(ctx context.Context, userID string, role models.Role, permissions []string) (*models.AdminUser, error) {
	if userID == "" {
		return nil, utils.ErrInvalidID
	}
	if err := validateAdminRole(role); err != nil {
		return nil, err
	}
	if len(permissions) == 0 {
		permissions = models.PresetFor(role)
	}
	body := map[string]any{"role": role, "permissions": permissions}
	return s.mutate(ctx, s.client.Post, s.itemPath(userID, "make-admin"), body)
}

// RemoveAdmin revokes the admin role of userID.
func (s *AdminService) RemoveAdmin(ctx context.Context, userID string) (*models.AdminUser, error) {
	if userID == "" {
		return nil, utils.ErrInvalidID
	}
	var raw json.RawMessage
	if err := s.client.Delete(ctx, s.itemPath(userID, "remove-admin"), &raw); err != nil {
		return nil, err
	}
	return decodeOptional[models.AdminUser](raw)
}

// UpdatePermissions replaces the permission set of userID.
func (s *AdminService) UpdatePermissions(ctx context.Context, userID string, permissions []string) (*models.AdminUser, error) {
	if userID == "" {
		return nil, utils.ErrInvalidID
	}
	if permissions == nil {
		permissions = []string{}
	}
	return s.mutate(ctx, s.client.Patch, s.itemPath(userID, "update-permissions"), map[string][]string{"permissions": permissions})
}

// UpdateRole changes the role of userID.
func (s *AdminService) UpdateRole(ctx context.Context, userID string, role models.Role) (*models.AdminUser, error) {
	if userID == "" {
		return nil, utils.ErrInvalidID
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", utils.ErrInvalidRole, role)
	}
	return s.mutate(ctx, s.client.Patch, s.itemPath(userID, "role"), map[string]models.Role{"role": role})
}

// Activity returns the audit trail of userID.
func (s *AdminService) Activity(ctx context.Context, userID string) ([]models.UserActivity, error) {
	if userID == "" {
		return nil, utils.ErrInvalidID
	}
	return fetchList[models.UserActivity](ctx, s.client, "activity", s.itemPath(userID, "activity"), nil)
}

// BulkAssignRoles grants roles in one request. Partial failures are not
// rolled back; the result carries the per-item errors.
func (s *AdminService) BulkAssignRoles(ctx context.Context, assignments []models.AdminAssignment) (*models.BulkResult, error) {
	if len(assignments) == 0 {
		return nil, utils.ErrEmptySelection
	}
	for i, a := range assignments {
		if a.UserID == "" {
			return nil, utils.ErrInvalidID
		}
		if err := validateAdminRole(a.Role); err != nil {
			return nil, err
		}
		if len(a.Permissions) == 0 {
			assignments[i].Permissions = models.PresetFor(a.Role)
		}
	}
	return s.bulk(ctx, s.path+"/bulk-assign-roles", map[string]any{"assignments": assignments})
}

// BulkRemoveAdminRoles revokes admin roles in one request.
func (s *AdminService) BulkRemoveAdminRoles(ctx context.Context, userIDs []string) (*models.BulkResult, error) {
	if err := validateSelection(userIDs); err != nil {
		return nil, err
	}
	return s.bulk(ctx, s.path+"/bulk-remove-admin", map[string]any{"userIds": userIDs})
}

// Stats returns admin user aggregates.
func (s *AdminService) Stats(ctx context.Context) (*models.AdminStats, error) {
	return fetchData[models.AdminStats](ctx, s.client, s.path+"/stats", nil)
}

func (s *AdminService) bulk(ctx context.Context, path string, body any) (*models.BulkResult, error) {
	var raw json.RawMessage
	if err := s.client.Post(ctx, path, body, &raw); err != nil {
		return nil, err
	}
	res, err := decodeItem[models.BulkResult](raw)
	if err != nil {
		return nil, err
	}
	warnPartial(path, res)
	return res, nil
}

type sendFunc func(ctx context.Context, path string, body, out any) error

func (s *AdminService) mutate(ctx context.Context, send sendFunc, path string, body any) (*models.AdminUser, error) {
	var raw json.RawMessage
	if err := send(ctx, path, body, &raw); err != nil {
		return nil, err
	}
	return decodeOptional[models.AdminUser](raw)
}

func validateAdminRole(role models.Role) error {
	if !role.Valid() || role == models.RoleCustomer {
		return fmt.Errorf("%w: %q", utils.ErrInvalidRole, role)
	}
	return nil
}

func warnPartial(op string, res *models.BulkResult) {
	if res == nil || res.Failed == 0 {
		return
	}
	log.Warn().
		Str("operation", op).
		Int("successful", res.Successful).
		Int("failed", res.Failed).
		Strs("errors", res.Errors).
		Msg("Bulk operation partially failed")
}
