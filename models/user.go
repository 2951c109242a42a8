package models

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/freshkart-dev/grocery-api/apperrors"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User rows are written by the identity service; this API only reads them,
// keyed by the email claim of the verified token.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Role      Role      `gorm:"type:VARCHAR(10);default:'USER'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func FindUserByEmail(db *gorm.DB, email string) (*User, error) {
	var user User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, err
	}
	return &user, nil
}
