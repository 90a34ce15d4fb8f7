package user

import (
	"errors"
	"strconv"
	"time"

	userDatamodel "github.com/frahmantamala/asset-management/internal/core/datamodel/user"
)

type User struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Department string    `json:"department,omitempty"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

var ErrNotFound = errors.New("user not found")

func (u *User) IsActiveUser() bool {
	return u.IsActive
}

// Subject is the user id as carried in tokens.
func (u *User) Subject() string {
	return strconv.FormatInt(u.ID, 10)
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Department: u.Department,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
