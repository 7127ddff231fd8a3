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

// DefaultLowStockThreshold is used when LowStock is called with 0.
const DefaultLowStockThreshold = 10

// ProductInput is the create/update body of a product. The catalog API
// names the base price "price".
type ProductInput struct {
	Name              string         `json:"name"`
	Slug              string         `json:"slug"`
	Description       string         `json:"description,omitempty"`
	ShortDescription  string         `json:"shortDescription,omitempty"`
	SKU               string         `json:"sku"`
	CategoryID        string         `json:"categoryId"`
	BrandID           string         `json:"brandId,omitempty"`
	BasePrice         float64        `json:"price"`
	UnitOfMeasurement string         `json:"unitOfMeasurement"`
	WeightKg          *float64       `json:"weightKg,omitempty"`
	DimensionsCm      string         `json:"dimensionsCm,omitempty"`
	Specifications    map[string]any `json:"specifications,omitempty"`
	StockQuantity     int            `json:"stockQuantity"`
	MinOrderQuantity  int            `json:"minOrderQuantity"`
	MaxOrderQuantity  *int           `json:"maxOrderQuantity,omitempty"`
	IsActive          bool           `json:"isActive"`
	Featured          bool           `json:"featured"`
}

// ProductService wraps the product endpoints.
type ProductService struct {
	*Resource[models.Product]
	client *catalogapi.Client
}

// NewProductService constructs a ProductService.
func NewProductService(client *catalogapi.Client) *ProductService {
	return &ProductService{
		Resource: NewResource[models.Product](client, "products", "/products"),
		client:   client,
	}
}

// UploadImages validates and uploads images for productID and returns the
// stored image URLs.
func (s *ProductService) UploadImages(ctx context.Context, productID string, files []catalogapi.FilePart) ([]string, error) {
	if productID == "" {
		return nil, utils.ErrInvalidID
	}
	if len(files) == 0 {
		return nil, utils.ErrEmptySelection
	}
	if err := catalogapi.ValidateImages(files, catalogapi.MaxProductImageBytes, catalogapi.MaxProductImages); err != nil {
		return nil, err
	}
	for i := range files {
		files[i].Field = catalogapi.FieldImages
	}
	var raw json.RawMessage
	if err := s.client.Upload(ctx, s.path+"/images", map[string]string{"productId": productID}, files, &raw); err != nil {
		return nil, err
	}
	urls, err := catalogapi.DecodeData[[]string](raw)
	if err != nil {
		return nil, err
	}
	return urls, nil
}

// DeleteImage removes one product image.
func (s *ProductService) DeleteImage(ctx context.Context, imageID string) error {
	if imageID == "" {
		return utils.ErrInvalidID
	}
	return s.client.Delete(ctx, s.path+"/images/"+url.PathEscape(imageID), nil)
}

// SetPrimaryImage flags imageID as the primary image of its product.
func (s *ProductService) SetPrimaryImage(ctx context.Context, imageID string) error {
	if imageID == "" {
		return utils.ErrInvalidID
	}
	return s.client.Patch(ctx, s.path+"/images/"+url.PathEscape(imageID)+"/primary", map[string]bool{"isPrimary": true}, nil)
}

// Import uploads a CSV file and reports the per-row outcome.
func (s *ProductService) Import(ctx context.Context, file catalogapi.FilePart) (*models.BulkResult, error) {
	if len(file.Data) == 0 {
		return nil, catalogapi.ErrEmptyFile
	}
	file.Field = catalogapi.FieldFile
	if file.ContentType == "" {
		file.ContentType = "text/csv"
	}
	var raw json.RawMessage
	if err := s.client.Upload(ctx, s.path+"/import", nil, []catalogapi.FilePart{file}, &raw); err != nil {
		return nil, err
	}
	res, err := decodeItem[models.BulkResult](raw)
	if err != nil {
		return nil, err
	}
	warnPartial("products.import", res)
	return res, nil
}

// LowStock lists products whose stock is under threshold.
func (s *ProductService) LowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	q := url.Values{"threshold": {strconv.Itoa(threshold)}}
	return fetchList[models.Product](ctx, s.client, s.name, s.path+"/low-stock", q)
}

// UpdateStock sets the stock quantity of id.
func (s *ProductService) UpdateStock(ctx context.Context, id string, quantity int) (*models.Product, error) {
	if id == "" {
		return nil, utils.ErrInvalidID
	}
	if quantity < 0 {
		return nil, utils.ErrInvalidQuantity
	}
	var raw json.RawMessage
	if err := s.client.Patch(ctx, s.itemPath(id, "stock"), map[string]int{"quantity": quantity}, &raw); err != nil {
		return nil, err
	}
	return decodeOptional[models.Product](raw)
}

// Categories lists every category, for product form pickers.
func (s *ProductService) Categories(ctx context.Context) ([]models.Category, error) {
	return fetchList[models.Category](ctx, s.client, "categories", "/categories", nil)
}
