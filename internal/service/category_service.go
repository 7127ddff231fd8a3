package service

import (
	"context"
	"encoding/json"

	"github.com/GTDGit/gtd_admin/internal/models"
	"github.com/GTDGit/gtd_admin/internal/utils"
	"github.com/GTDGit/gtd_admin/pkg/catalogapi"
)

// CategoryInput is the create/update body of a category.
type CategoryInput struct {
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Description  string `json:"description,omitempty"`
	ParentID     string `json:"parentId,omitempty"`
	DisplayOrder int    `json:"displayOrder"`
	IsActive     bool   `json:"isActive"`
}

// CategoryService wraps the category endpoints. The category list is not
// paginated by the API.
type CategoryService struct {
	*Resource[models.Category]
	client *catalogapi.Client
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(client *catalogapi.Client) *CategoryService {
	return &CategoryService{
		Resource: NewResource[models.Category](client, "categories", "/categories"),
		client:   client,
	}
}

// All returns the full flat category list.
func (s *CategoryService) All(ctx context.Context) ([]models.Category, error) {
	return fetchList[models.Category](ctx, s.client, s.name, s.path, nil)
}

// Tree returns the categories nested by parent.
func (s *CategoryService) Tree(ctx context.Context) ([]models.Category, error) {
	flat, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return models.BuildCategoryTree(flat), nil
}

// Reorder persists a new display order for sibling categories.
func (s *CategoryService) Reorder(ctx context.Context, orders []models.CategoryOrder) error {
	if len(orders) == 0 {
		return utils.ErrEmptySelection
	}
	for _, o := range orders {
		if o.ID == "" {
			return utils.ErrInvalidID
		}
	}
	return s.client.Patch(ctx, s.path+"/reorder", map[string]any{"categoryOrders": orders}, nil)
}

// UploadIcon validates and uploads the icon of categoryID, returning its URL.
func (s *CategoryService) UploadIcon(ctx context.Context, categoryID string, file catalogapi.FilePart) (string, error) {
	if categoryID == "" {
		return "", utils.ErrInvalidID
	}
	return uploadSingleImage(ctx, s.client, s.path+"/icon", catalogapi.FieldIcon, "categoryId", categoryID, file)
}

func uploadSingleImage(ctx context.Context, client *catalogapi.Client, path, field, idField, id string, file catalogapi.FilePart) (string, error) {
	if err := catalogapi.ValidateImage(&file, catalogapi.MaxLogoBytes); err != nil {
		return "", err
	}
	file.Field = field
	var raw json.RawMessage
	if err := client.Upload(ctx, path, map[string]string{idField: id}, []catalogapi.FilePart{file}, &raw); err != nil {
		return "", err
	}
	return catalogapi.DecodeData[string](raw)
}
