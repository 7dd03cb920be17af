package model

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrPlaintextPassword is returned by the persistence hooks when a User is
// about to be written without a bcrypt hash in Password.
var ErrPlaintextPassword = errors.New("user password must be a bcrypt hash before it is stored")

type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Email     string    `json:"email" gorm:"size:254;not null;uniqueIndex"`
	Username  string    `json:"username" gorm:"size:150;not null;uniqueIndex"`
	FirstName string    `json:"first_name" gorm:"size:150;not null"`
	LastName  string    `json:"last_name" gorm:"size:150;not null"`
	Password  string    `json:"-" gorm:"size:128;not null"`
	IsAdmin   bool      `json:"is_admin" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	return checkHashed(u.Password)
}

func (u *User) BeforeUpdate(tx *gorm.DB) error {
	if tx.Statement.Changed("Password") {
		return checkHashed(u.Password)
	}
	return nil
}

func checkHashed(password string) error {
	if _, err := bcrypt.Cost([]byte(password)); err != nil {
		return ErrPlaintextPassword
	}
	return nil
}
