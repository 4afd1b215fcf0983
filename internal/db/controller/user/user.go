// Package user provides data access operations for user accounts.
package user

import (
	"errors"

	"gorm.io/gorm"

	"github.com/larder-app/larder/internal/db/models"
)

const (
	usernameQueryPattern          = "username = ?"
	usernameAndMethodQueryPattern = "username = ? AND auth_method = ?"
)

var (
	// ErrUserNotFound is returned when no user matches the query.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameEmpty is returned when attempting to create or look up a user with an empty username.
	ErrUsernameEmpty = errors.New("username cannot be empty")
	// ErrUserAlreadyExists is returned when attempting to create a user whose username is taken.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// GetByUsernameAndMethod retrieves a user by username restricted to one auth
// method. A user with the same username under a different auth method is
// reported as not found.
func GetByUsernameAndMethod(db *gorm.DB, username string, method models.AuthMethod) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if username == "" {
		return nil, ErrUsernameEmpty
	}

	var usr models.User
	result := db.Where(usernameAndMethodQueryPattern, username, method).First(&usr)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}

	return &usr, nil
}

// GetByID retrieves a user by its ID.
func GetByID(db *gorm.DB, id uint64) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var usr models.User
	result := db.First(&usr, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}

	return &usr, nil
}

// GetAll retrieves all users from the database.
func GetAll(db *gorm.DB) ([]models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var users []models.User
	result := db.Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}

	return users, nil
}

// Create creates a new user in the database. The username must be unique
// across all auth methods.
func Create(db *gorm.DB, usr *models.User) error {
	if db == nil {
		return ErrDBNil
	}
	if usr == nil || usr.Username == "" {
		return ErrUsernameEmpty
	}

	// Check if the username is already taken
	var existing models.User
	result := db.Where(usernameQueryPattern, usr.Username).First(&existing)
	if result.Error == nil {
		return ErrUserAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	result = db.Create(usr)
	if result.Error != nil {
		return result.Error
	}

	return nil
}

// Update persists changes to an existing user.
func Update(db *gorm.DB, usr *models.User) error {
	if db == nil {
		return ErrDBNil
	}
	if usr == nil || usr.ID == 0 {
		return ErrUserNotFound
	}

	result := db.Save(usr)
	if result.Error != nil {
		return result.Error
	}

	return nil
}

// SetAdmin updates the admin flag of a user by ID.
func SetAdmin(db *gorm.DB, id uint64, admin bool) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.User{}).Where("id = ?", id).Update("admin", admin)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// Count returns the number of user rows.
func Count(db *gorm.DB) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	var count int64
	result := db.Model(&models.User{}).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}
