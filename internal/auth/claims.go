package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/GTDGit/gtd_admin/internal/models"
	"github.com/GTDGit/gtd_admin/internal/utils"
)

// Claims is the identity token payload. Role data may be top-level or
// nested under public_metadata.
type Claims struct {
	Email          string          `json:"email"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	ImageURL       string          `json:"image_url,omitempty"`
	Role           models.Role     `json:"role,omitempty"`
	Permissions    []string        `json:"permissions,omitempty"`
	PublicMetadata *metadataClaims `json:"public_metadata,omitempty"`
	jwt.RegisteredClaims
}

type metadataClaims struct {
	Role        models.Role `json:"role,omitempty"`
	Permissions []string    `json:"permissions,omitempty"`
}

// Identity maps claims to an Identity; a missing role means customer.
func (c *Claims) Identity() *Identity {
	role, perms := c.Role, c.Permissions
	if c.PublicMetadata != nil {
		if role == "" {
			role = c.PublicMetadata.Role
		}
		if len(perms) == 0 {
			perms = c.PublicMetadata.Permissions
		}
	}
	if role == "" {
		role = models.RoleCustomer
	}
	if perms == nil {
		perms = []string{}
	}
	return &Identity{
		ID:          c.Subject,
		Email:       c.Email,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		ImageURL:    c.ImageURL,
		Role:        role,
		Permissions: perms,
	}
}

// TokenVerifier validates HS256 identity tokens.
type TokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier creates a verifier. An empty issuer disables the issuer check.
func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses token and returns the identity it carries.
func (v *TokenVerifier) Verify(token string) (*Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", utils.ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, utils.ErrInvalidToken
	}
	return claims.Identity(), nil
}

// Sign issues a token for claims. Used by tests and local tooling.
func (v *TokenVerifier) Sign(claims *Claims) (string, error) {
	if v.issuer != "" && claims.Issuer == "" {
		claims.Issuer = v.issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
