package postgres

import (
	"errors"
	"strconv"

	userDatamodel "github.com/frahmantamala/asset-management/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(userID int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.Where("id = ? AND is_active = ?", userID, true).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(u *userDatamodel.User) error {
	return r.db.Create(u).Error
}

// GetPasswordForUsername returns the hash and id of an active user.
func (r *UserRepository) GetPasswordForUsername(email string) (string, string, error) {
	u, err := r.GetByEmail(email)
	if err != nil {
		return "", "", err
	}
	if u == nil || !u.IsActive {
		return "", "", errors.New("user not found")
	}
	return u.PasswordHash, strconv.FormatInt(u.ID, 10), nil
}
