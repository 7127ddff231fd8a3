package models

import "time"

// Brand is a flat catalog entity.
type Brand struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	LogoURL         string    `json:"logoUrl,omitempty"`
	CountryOfOrigin string    `json:"countryOfOrigin,omitempty"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Key returns the brand id.
func (b Brand) Key() string { return b.ID }

// BrandStats is the per-brand summary returned by the stats endpoint.
type BrandStats struct {
	TotalProducts  int     `json:"totalProducts"`
	ActiveProducts int     `json:"activeProducts"`
	TotalRevenue   float64 `json:"totalRevenue"`
	AverageRating  float64 `json:"averageRating"`
}
