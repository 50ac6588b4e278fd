package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agilestore/agilestore-backend/pkg/enums"
)

// Customer is a storefront account. Guest checkouts auto-create a customer
// with PasswordPending set until the customer picks a password.
type Customer struct {
	ID              uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	FullName        string       `gorm:"column:full_name;not null"`
	Email           string       `gorm:"column:email;not null;uniqueIndex"`
	Phone           string       `gorm:"column:phone;not null"`
	PasswordHash    *string      `gorm:"column:password_hash"`
	PasswordPending bool         `gorm:"column:password_pending;not null;default:false"`
	Locale          enums.Locale `gorm:"column:locale;not null;default:'id'"`
	CreatedAt       time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}
