package form

import (
	"context"
	"strings"

	"github.com/GTDGit/gtd_admin/internal/models"
	"github.com/GTDGit/gtd_admin/internal/service"
)

// ProductDraft is the editable state of the product modal.
type ProductDraft struct {
	Name              string   `json:"name" validate:"required,min=2"`
	Slug              string   `json:"slug" validate:"required,slug"`
	Description       string   `json:"description" validate:"required,min=10"`
	ShortDescription  string   `json:"shortDescription" validate:"required,max=200"`
	SKU               string   `json:"sku" validate:"required,sku"`
	CategoryID        string   `json:"categoryId" validate:"required"`
	BrandID           string   `json:"brandId" validate:"required"`
	BasePrice         float64  `json:"basePrice" validate:"gt=0"`
	UnitOfMeasurement string   `json:"unitOfMeasurement" validate:"required"`
	WeightKg          *float64 `json:"weightKg,omitempty" validate:"omitempty,gte=0"`
	DimensionsCm      string   `json:"dimensionsCm,omitempty"`
	StockQuantity     int      `json:"stockQuantity" validate:"gte=0"`
	MinOrderQuantity  int      `json:"minOrderQuantity" validate:"min=1"`
	MaxOrderQuantity  *int     `json:"maxOrderQuantity,omitempty" validate:"omitempty,min=1"`
	IsActive          bool     `json:"isActive"`
	Featured          bool     `json:"featured"`
}

// NewProductDraft returns the create-form defaults.
func NewProductDraft() ProductDraft {
	return ProductDraft{
		UnitOfMeasurement: models.UnitsOfMeasurement[0],
		MinOrderQuantity:  1,
		IsActive:          true,
	}
}

// ProductDraftFrom seeds an edit form from p.
func ProductDraftFrom(p models.Product) ProductDraft {
	return ProductDraft{
		Name:              p.Name,
		Slug:              p.Slug,
		Description:       p.Description,
		ShortDescription:  p.ShortDescription,
		SKU:               p.SKU,
		CategoryID:        p.CategoryID,
		BrandID:           p.BrandID,
		BasePrice:         p.BasePrice,
		UnitOfMeasurement: p.UnitOfMeasurement,
		WeightKg:          p.WeightKg,
		DimensionsCm:      p.DimensionsCm,
		StockQuantity:     p.StockQuantity,
		MinOrderQuantity:  p.MinOrderQuantity,
		MaxOrderQuantity:  p.MaxOrderQuantity,
		IsActive:          p.IsActive,
		Featured:          p.Featured,
	}
}

func (d *ProductDraft) SlugSource() string { return d.Name }
func (d *ProductDraft) SetSlug(s string)   { d.Slug = s }

// Check enforces rules spanning several fields.
func (d *ProductDraft) Check(errs *ValidationError) {
	if d.MaxOrderQuantity != nil && *d.MaxOrderQuantity < d.MinOrderQuantity {
		errs.Add("maxOrderQuantity", "must not be less than the minimum order quantity")
	}
	if d.UnitOfMeasurement != "" && !knownUnit(d.UnitOfMeasurement) {
		errs.Add("unitOfMeasurement", "is not a known unit")
	}
}

// Input converts the draft to the API body.
func (d ProductDraft) Input() service.ProductInput {
	return service.ProductInput{
		Name:              strings.TrimSpace(d.Name),
		Slug:              d.Slug,
		Description:       d.Description,
		ShortDescription:  d.ShortDescription,
		SKU:               strings.ToUpper(d.SKU),
		CategoryID:        d.CategoryID,
		BrandID:           d.BrandID,
		BasePrice:         d.BasePrice,
		UnitOfMeasurement: d.UnitOfMeasurement,
		WeightKg:          d.WeightKg,
		DimensionsCm:      d.DimensionsCm,
		StockQuantity:     d.StockQuantity,
		MinOrderQuantity:  d.MinOrderQuantity,
		MaxOrderQuantity:  d.MaxOrderQuantity,
		IsActive:          d.IsActive,
		Featured:          d.Featured,
	}
}

func knownUnit(u string) bool {
	for _, v := range models.UnitsOfMeasurement {
		if v == u {
			return true
		}
	}
	return false
}

// NewProductForm wires a product form to svc.
func NewProductForm(svc *service.ProductService, onSaved func(*models.Product)) *Controller[ProductDraft, models.Product] {
	return NewController(Options[ProductDraft, models.Product]{
		New:      NewProductDraft,
		FromItem: ProductDraftFrom,
		Save: func(ctx context.Context, id string, d ProductDraft) (*models.Product, error) {
			if id == "" {
				return svc.Create(ctx, d.Input())
			}
			return svc.Update(ctx, id, d.Input())
		},
		OnSaved: onSaved,
	})
}

// CategoryDraft is the editable state of the category modal.
type CategoryDraft struct {
	Name         string `json:"name" validate:"required,min=2"`
	Slug         string `json:"slug" validate:"required,slug"`
	Description  string `json:"description,omitempty"`
	ParentID     string `json:"parentId,omitempty"`
	DisplayOrder int    `json:"displayOrder" validate:"gte=0"`
	IsActive     bool   `json:"isActive"`
}

func (d *CategoryDraft) SlugSource() string { return d.Name }
func (d *CategoryDraft) SetSlug(s string)   { d.Slug = s }

// Input converts the draft to the API body.
func (d CategoryDraft) Input() service.CategoryInput {
	return service.CategoryInput{
		Name:         strings.TrimSpace(d.Name),
		Slug:         d.Slug,
		Description:  d.Description,
		ParentID:     d.ParentID,
		DisplayOrder: d.DisplayOrder,
		IsActive:     d.IsActive,
	}
}

// NewCategoryForm wires a category form to svc. known returns the loaded
// categories, used to reject a parent that would create a cycle.
func NewCategoryForm(svc *service.CategoryService, known func() []models.Category, onSaved func(*models.Category)) *Controller[CategoryDraft, models.Category] {
	return NewController(Options[CategoryDraft, models.Category]{
		New: func() CategoryDraft { return CategoryDraft{IsActive: true} },
		FromItem: func(c models.Category) CategoryDraft {
			return CategoryDraft{
				Name:         c.Name,
				Slug:         c.Slug,
				Description:  c.Description,
				ParentID:     c.ParentID,
				DisplayOrder: c.DisplayOrder,
				IsActive:     c.IsActive,
			}
		},
		Check: func(id string, d CategoryDraft, errs *ValidationError) {
			if d.ParentID == "" {
				return
			}
			if d.ParentID == id || (id != "" && known != nil && models.WouldCreateCycle(known(), id, d.ParentID)) {
				errs.Add("parentId", "would make the category its own ancestor")
			}
		},
		Save: func(ctx context.Context, id string, d CategoryDraft) (*models.Category, error) {
			if id == "" {
				return svc.Create(ctx, d.Input())
			}
			return svc.Update(ctx, id, d.Input())
		},
		OnSaved: onSaved,
	})
}

// BrandDraft is the editable state of the brand modal.
type BrandDraft struct {
	Name            string `json:"name" validate:"required,min=2"`
	Description     string `json:"description,omitempty"`
	CountryOfOrigin string `json:"countryOfOrigin,omitempty"`
	IsActive        bool   `json:"isActive"`
}

// NewBrandForm wires a brand form to svc.
func NewBrandForm(svc *service.BrandService, onSaved func(*models.Brand)) *Controller[BrandDraft, models.Brand] {
	return NewController(Options[BrandDraft, models.Brand]{
		New: func() BrandDraft { return BrandDraft{IsActive: true} },
		FromItem: func(b models.Brand) BrandDraft {
			return BrandDraft{Name: b.Name, Description: b.Description, CountryOfOrigin: b.CountryOfOrigin, IsActive: b.IsActive}
		},
		Save: func(ctx context.Context, id string, d BrandDraft) (*models.Brand, error) {
			in := service.BrandInput{
				Name:            strings.TrimSpace(d.Name),
				Description:     d.Description,
				CountryOfOrigin: d.CountryOfOrigin,
				IsActive:        d.IsActive,
			}
			if id == "" {
				return svc.Create(ctx, in)
			}
			return svc.Update(ctx, id, in)
		},
		OnSaved: onSaved,
	})
}

// OrderStatusDraft is the editable state of the order status modal.
type OrderStatusDraft struct {
	Current        models.OrderStatus `json:"current"`
	Status         models.OrderStatus `json:"status" validate:"required,oneof=pending confirmed processing ready_for_delivery in_transit delivered cancelled"`
	Notes          string             `json:"notes,omitempty"`
	TrackingNumber string             `json:"trackingNumber,omitempty"`
}

// Check rejects transitions the order lifecycle does not allow.
func (d *OrderStatusDraft) Check(errs *ValidationError) {
	if d.Status != "" && d.Current != "" && !d.Current.CanTransitionTo(d.Status) {
		errs.Add("status", "cannot move from "+string(d.Current)+" to "+string(d.Status))
	}
}

// NewOrderStatusForm wires the order status form to svc. Only edit mode is
// meaningful.
func NewOrderStatusForm(svc *service.OrderService, onSaved func(*models.Order)) *Controller[OrderStatusDraft, models.Order] {
	return NewController(Options[OrderStatusDraft, models.Order]{
		New: func() OrderStatusDraft { return OrderStatusDraft{} },
		FromItem: func(o models.Order) OrderStatusDraft {
			return OrderStatusDraft{Current: o.Status}
		},
		Save: func(ctx context.Context, id string, d OrderStatusDraft) (*models.Order, error) {
			return svc.UpdateStatus(ctx, id, d.Current, service.StatusUpdate{
				Status:         d.Status,
				Notes:          d.Notes,
				TrackingNumber: d.TrackingNumber,
			})
		},
		OnSaved: onSaved,
	})
}

// UserDraft is the editable state of the user modal.
type UserDraft struct {
	Email       string          `json:"email" validate:"required,email"`
	FirstName   string          `json:"firstName" validate:"required,min=2"`
	LastName    string          `json:"lastName" validate:"required,min=2"`
	PhoneNumber string          `json:"phoneNumber,omitempty" validate:"omitempty,phone"`
	UserType    models.UserType `json:"userType" validate:"required,oneof=customer admin super_admin"`
	IsActive    bool            `json:"isActive"`
}

// NewUserForm wires a user form to svc.
func NewUserForm(svc *service.UserService, onSaved func(*models.User)) *Controller[UserDraft, models.User] {
	return NewController(Options[UserDraft, models.User]{
		New: func() UserDraft { return UserDraft{UserType: models.UserTypeCustomer, IsActive: true} },
		FromItem: func(u models.User) UserDraft {
			return UserDraft{
				Email:       u.Email,
				FirstName:   u.FirstName,
				LastName:    u.LastName,
				PhoneNumber: u.PhoneNumber,
				UserType:    u.UserType,
				IsActive:    u.IsActive,
			}
		},
		Save: func(ctx context.Context, id string, d UserDraft) (*models.User, error) {
			in := service.UserInput{
				Email:       strings.TrimSpace(strings.ToLower(d.Email)),
				FirstName:   strings.TrimSpace(d.FirstName),
				LastName:    strings.TrimSpace(d.LastName),
				PhoneNumber: d.PhoneNumber,
				UserType:    d.UserType,
				IsActive:    d.IsActive,
			}
			if id == "" {
				return svc.Create(ctx, in)
			}
			return svc.Update(ctx, id, in)
		},
		OnSaved: onSaved,
	})
}
