package models

import "time"

// UserType is the account type stored on a customer record.
type UserType string

const (
	UserTypeCustomer   UserType = "customer"
	UserTypeAdmin      UserType = "admin"
	UserTypeSuperAdmin UserType = "super_admin"
)

// User is a storefront account.
type User struct {
	ID            string           `json:"id"`
	Email         string           `json:"email"`
	FirstName     string           `json:"firstName"`
	LastName      string           `json:"lastName"`
	PhoneNumber   string           `json:"phoneNumber,omitempty"`
	Avatar        string           `json:"avatar,omitempty"`
	UserType      UserType         `json:"userType"`
	IsActive      bool             `json:"isActive"`
	EmailVerified bool             `json:"emailVerified"`
	PhoneVerified bool             `json:"phoneVerified"`
	LastLoginAt   *time.Time       `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	Addresses     []UserAddress    `json:"addresses,omitempty"`
	Preferences   *UserPreferences `json:"preferences,omitempty"`
}

// Key returns the user id.
func (u User) Key() string { return u.ID }

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// UserAddress is a saved billing or shipping address.
type UserAddress struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Type         string    `json:"type"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Company      string    `json:"company,omitempty"`
	AddressLine1 string    `json:"addressLine1"`
	AddressLine2 string    `json:"addressLine2,omitempty"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	PostalCode   string    `json:"postalCode"`
	Country      string    `json:"country"`
	IsDefault    bool      `json:"isDefault"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserPreferences holds notification and locale settings.
type UserPreferences struct {
	Newsletter   bool   `json:"newsletter"`
	Promotions   bool   `json:"promotions"`
	OrderUpdates bool   `json:"orderUpdates"`
	Language     string `json:"language"`
	Currency     string `json:"currency"`
}

// UserStats is the aggregate returned by the user stats endpoint.
type UserStats struct {
	TotalUsers        int            `json:"totalUsers"`
	ActiveUsers       int            `json:"activeUsers"`
	NewUsersThisMonth int            `json:"newUsersThisMonth"`
	UserGrowth        float64        `json:"userGrowth"`
	UserTypeBreakdown map[string]int `json:"userTypeBreakdown"`
}
