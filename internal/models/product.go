package models

import "time"

// UnitsOfMeasurement lists the units a product can be sold in.
var UnitsOfMeasurement = []string{
	"pieces",
	"meters",
	"kilograms",
	"liters",
	"square_meters",
	"cubic_meters",
	"tons",
	"bags",
	"boxes",
	"pallets",
}

// Product is a catalog product as returned by the catalog API.
type Product struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Slug              string           `json:"slug"`
	Description       string           `json:"description,omitempty"`
	ShortDescription  string           `json:"shortDescription,omitempty"`
	SKU               string           `json:"sku"`
	CategoryID        string           `json:"categoryId"`
	BrandID           string           `json:"brandId,omitempty"`
	BasePrice         float64          `json:"basePrice"`
	UnitOfMeasurement string           `json:"unitOfMeasurement"`
	WeightKg          *float64         `json:"weightKg,omitempty"`
	DimensionsCm      string           `json:"dimensionsCm,omitempty"`
	Specifications    map[string]any   `json:"specifications,omitempty"`
	TechnicalData     map[string]any   `json:"technicalData,omitempty"`
	IsActive          bool             `json:"isActive"`
	Featured          bool             `json:"featured"`
	AverageRating     float64          `json:"averageRating"`
	TotalReviews      int              `json:"totalReviews"`
	StockQuantity     int              `json:"stockQuantity"`
	MinOrderQuantity  int              `json:"minOrderQuantity"`
	MaxOrderQuantity  *int             `json:"maxOrderQuantity,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
	Category          *Category        `json:"category,omitempty"`
	Brand             *Brand           `json:"brand,omitempty"`
	Images            []ProductImage   `json:"images,omitempty"`
	Variants          []ProductVariant `json:"variants,omitempty"`
}

// ProductImage is one ordered image of a product.
type ProductImage struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"productId"`
	ImageURL     string    `json:"imageUrl"`
	AltText      string    `json:"altText,omitempty"`
	DisplayOrder int       `json:"displayOrder"`
	IsPrimary    bool      `json:"isPrimary"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ProductVariant is a purchasable variation of a product.
type ProductVariant struct {
	ID              string    `json:"id"`
	ProductID       string    `json:"productId"`
	VariantName     string    `json:"variantName"`
	VariantValue    string    `json:"variantValue"`
	PriceAdjustment float64   `json:"priceAdjustment"`
	StockQuantity   int       `json:"stockQuantity"`
	SKUSuffix       string    `json:"skuSuffix,omitempty"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Key returns the product id.
func (p Product) Key() string { return p.ID }

// PrimaryImage returns the image flagged primary, else the first image.
func (p Product) PrimaryImage() (ProductImage, bool) {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img, true
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0], true
	}
	return ProductImage{}, false
}

// LowStock reports whether stock is below the minimum order quantity.
func (p Product) LowStock() bool {
	return p.StockQuantity < p.MinOrderQuantity
}

// ValidImages reports whether at most one image is flagged primary.
func (p Product) ValidImages() bool {
	primaries := 0
	for _, img := range p.Images {
		if img.IsPrimary {
			primaries++
		}
	}
	return primaries <= 1
}

// WithPrimaryImage returns a copy of images where only imageID is primary.
func WithPrimaryImage(images []ProductImage, imageID string) []ProductImage {
	out := make([]ProductImage, len(images))
	for i, img := range images {
		img.IsPrimary = img.ID == imageID
		out[i] = img
	}
	return out
}
