package auth

import (
	"github.com/agilestore/agilestore-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	CustomerID uuid.UUID
	Email      string
	Locale     enums.Locale
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to storefront customers.
type AccessTokenClaims struct {
	CustomerID uuid.UUID    `json:"customer_id"`
	Email      string       `json:"email"`
	Locale     enums.Locale `json:"locale,omitempty"`
	jwt.RegisteredClaims
}
