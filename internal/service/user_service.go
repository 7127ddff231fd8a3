package service

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/GTDGit/gtd_admin/internal/models"
	"github.com/GTDGit/gtd_admin/internal/utils"
	"github.com/GTDGit/gtd_admin/pkg/catalogapi"
)

// UserInput is the create/update body of a storefront user.
type UserInput struct {
	Email       string          `json:"email"`
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	PhoneNumber string          `json:"phoneNumber,omitempty"`
	UserType    models.UserType `json:"userType"`
	IsActive    bool            `json:"isActive"`
}

// UserService wraps the storefront user endpoints.
type UserService struct {
	*Resource[models.User]
	client *catalogapi.Client
}

// NewUserService constructs a UserService.
func NewUserService(client *catalogapi.Client) *UserService {
	return &UserService{
		Resource: NewResource[models.User](client, "users", "/users"),
		client:   client,
	}
}

// UpdateStatus activates or deactivates user id.
func (s *UserService) UpdateStatus(ctx context.Context, id string, isActive bool) (*models.User, error) {
	if id == "" {
		return nil, utils.ErrInvalidID
	}
	var raw json.RawMessage
	if err := s.client.Patch(ctx, s.itemPath(id, "status"), map[string]bool{"isActive": isActive}, &raw); err != nil {
		return nil, err
	}
	return decodeOptional[models.User](raw)
}

// Stats returns user aggregates.
func (s *UserService) Stats(ctx context.Context) (*models.UserStats, error) {
	return fetchData[models.UserStats](ctx, s.client, s.path+"/stats", nil)
}

// Recent lists the latest sign-ups.
func (s *UserService) Recent(ctx context.Context, limit int) ([]models.User, error) {
	if limit <= 0 {
		limit = catalogapi.DefaultLimit
	}
	return fetchList[models.User](ctx, s.client, s.name, s.path+"/recent", url.Values{"limit": {strconv.Itoa(limit)}})
}

// ResetPassword triggers a password reset email for id.
func (s *UserService) ResetPassword(ctx context.Context, id string) error {
	if id == "" {
		return utils.ErrInvalidID
	}
	return s.client.Post(ctx, s.itemPath(id, "reset-password"), struct{}{}, nil)
}

// SendVerification resends the verification email to id.
func (s *UserService) SendVerification(ctx context.Context, id string) error {
	if id == "" {
		return utils.ErrInvalidID
	}
	return s.client.Post(ctx, s.itemPath(id, "send-verification"), struct{}{}, nil)
}
