package customers

import (
	"time"

	"github.com/google/uuid"

	"github.com/agilestore/agilestore-backend/pkg/db/models"
	"github.com/agilestore/agilestore-backend/pkg/enums"
)

// RegisterRequest is an explicit signup.
type RegisterRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,min=6,max=32"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Locale   string `json:"locale" validate:"omitempty,oneof=id en"`
}

// LoginRequest carries the credentials for a storefront login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest patches the mutable profile fields.
type UpdateProfileRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,min=2,max=120"`
	Phone    *string `json:"phone" validate:"omitempty,min=6,max=32"`
	Locale   *string `json:"locale" validate:"omitempty,oneof=id en"`
}

// ChangePasswordRequest rotates the password of a logged-in customer.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// ResetRequest starts the forgot-password flow.
type ResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetConfirmRequest completes the forgot-password flow.
type ResetConfirmRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

// SetPasswordRequest claims a guest-created account.
type SetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// RefreshRequest rotates the refresh session.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// CustomerView is the customer shape returned by the API.
type CustomerView struct {
	ID              uuid.UUID    `json:"id"`
	FullName        string       `json:"full_name"`
	Email           string       `json:"email"`
	Phone           string       `json:"phone"`
	Locale          enums.Locale `json:"locale"`
	PasswordPending bool         `json:"password_pending"`
	CreatedAt       time.Time    `json:"created_at"`
}

// AuthResponse is the token pair handed to the storefront.
type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	Customer     CustomerView `json:"customer"`
}

// FromModel maps a customer row into its API shape.
func FromModel(customer *models.Customer) CustomerView {
	return CustomerView{
		ID:              customer.ID,
		FullName:        customer.FullName,
		Email:           customer.Email,
		Phone:           customer.Phone,
		Locale:          customer.Locale,
		PasswordPending: customer.PasswordPending,
		CreatedAt:       customer.CreatedAt,
	}
}
