package models

import (
	"time"
)

type User struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"size:100;not null" json:"name"`
	PaternalSurname string    `gorm:"size:100;not null" json:"paternal_surname"`
	MaternalSurname *string   `gorm:"size:100" json:"maternal_surname"`
	Username        string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email           string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password        string    `gorm:"not null" json:"-"` // bcrypt hash
	Avatar          *string   `gorm:"size:255" json:"avatar"`
	Phone           *string   `gorm:"size:30" json:"phone"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Profile is the public view of a user embedded in posts and comments.
type Profile struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name"`
	PaternalSurname string  `json:"paternal_surname"`
	MaternalSurname *string `json:"maternal_surname,omitempty"`
	Username        string  `json:"username"`
	Avatar          *string `json:"avatar"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:              u.ID,
		Name:            u.Name,
		PaternalSurname: u.PaternalSurname,
		MaternalSurname: u.MaternalSurname,
		Username:        u.Username,
		Avatar:          u.Avatar,
	}
}
