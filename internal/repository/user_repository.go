// Package repository holds data access for accounts shared by auth, team
// management and the admin CLI.
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/identity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidInput = errors.New("invalid input")
)

// UserRepository handles database operations for users
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error

	// Donor team queries
	ListDonorMembers(ctx context.Context, donorID string) ([]*models.User, error)
	CountDonorAdmins(ctx context.Context, donorID string) (int64, error)

	GetTotalUserCount(ctx context.Context) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// CreateUser inserts user with its email normalised to lower case
func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil || strings.TrimSpace(user.Email) == "" {
		return ErrInvalidInput
	}
	user.Email = NormalizeEmail(user.Email)
	return r.db.WithContext(ctx).Create(user).Error
}

// GetUser gets a user by ID
func (r *userRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail gets a user by email, case-insensitively
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", NormalizeEmail(email)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser saves every field of user
func (r *userRepository) UpdateUser(ctx context.Context, user *models.User) error {
	if user == nil || user.ID == "" {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Save(user).Error
}

// ListDonorMembers returns the donor's corporate users, admins first
func (r *userRepository) ListDonorMembers(ctx context.Context, donorID string) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Where("donor_id = ? AND role = ?", donorID, string(identity.RoleCorporateUser)).
		Order("donor_role ASC, email ASC").
		Find(&users).Error
	return users, err
}

// CountDonorAdmins counts members holding the donor ADMIN sub-role
func (r *userRepository) CountDonorAdmins(ctx context.Context, donorID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("donor_id = ? AND role = ? AND donor_role = ?", donorID, string(identity.RoleCorporateUser), string(identity.DonorRoleAdmin)).
		Count(&n).Error
	return n, err
}

// GetTotalUserCount counts all accounts
func (r *userRepository) GetTotalUserCount(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

// NormalizeEmail trims and lower-cases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
