package service

import (
	"context"
	"net/url"

	"github.com/GTDGit/gtd_admin/internal/models"
	"github.com/GTDGit/gtd_admin/internal/utils"
	"github.com/GTDGit/gtd_admin/pkg/catalogapi"
)

// BrandInput is the create/update body of a brand.
type BrandInput struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	CountryOfOrigin string `json:"countryOfOrigin,omitempty"`
	IsActive        bool   `json:"isActive"`
}

// BrandService wraps the brand endpoints under /admin/products/brands.
type BrandService struct {
	*Resource[models.Brand]
	client *catalogapi.Client
}

// NewBrandService constructs a BrandService.
func NewBrandService(client *catalogapi.Client) *BrandService {
	r := NewResource[models.Brand](client, "brands", "/admin/products/brands")
	r.WithListPath(r.Path() + "/all")
	return &BrandService{Resource: r, client: client}
}

// UploadLogo validates and uploads the logo of brandID, returning its URL.
func (s *BrandService) UploadLogo(ctx context.Context, brandID string, file catalogapi.FilePart) (string, error) {
	if brandID == "" {
		return "", utils.ErrInvalidID
	}
	return uploadSingleImage(ctx, s.client, s.path+"/logo", catalogapi.FieldLogo, "brandId", brandID, file)
}

// ByCountry lists brands originating from country.
func (s *BrandService) ByCountry(ctx context.Context, country string) ([]models.Brand, error) {
	if country == "" {
		return nil, utils.ErrInvalidID
	}
	return fetchList[models.Brand](ctx, s.client, s.name, s.path+"/country/"+url.PathEscape(country), nil)
}

// Stats returns the sales summary of brandID.
func (s *BrandService) Stats(ctx context.Context, brandID string) (*models.BrandStats, error) {
	if brandID == "" {
		return nil, utils.ErrInvalidID
	}
	return fetchData[models.BrandStats](ctx, s.client, s.itemPath(brandID, "stats"), nil)
}
