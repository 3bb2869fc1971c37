package authorization

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"agenthub_back/httperr"
)

const minPasswordLength = 6

// UserStore executes account persistence operations.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore wraps the shared database handle.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Register creates an account with a bcrypt-hashed password, rejecting
// duplicate usernames and emails.
func (s *UserStore) Register(ctx context.Context, username, email, password string) (User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return User{}, httperr.InvalidInput("username, email and password are required")
	}
	if len(password) < minPasswordLength {
		return User{}, httperr.InvalidInput("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, httperr.Unexpected("failed to hash password", err)
	}

	user := User{Username: username, Email: email, Password: string(hash), Status: "active"}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&User{}).Where("username = ? OR email = ?", username, email).Count(&count).Error; err != nil {
			return httperr.Unexpected("failed to check account", err)
		}
		if count > 0 {
			return httperr.Conflict("username or email already exists")
		}
		if err := tx.Create(&user).Error; err != nil {
			return httperr.Unexpected("failed to create user", err)
		}
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// Authenticate verifies the credentials and returns the account with its
// role name resolved.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, httperr.NotFound("user not found")
		}
		return User{}, httperr.Unexpected("failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return User{}, httperr.InvalidInput("invalid credentials")
	}

	if err := s.attachRoleName(ctx, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// FindByID loads one account with its role name resolved.
func (s *UserStore) FindByID(ctx context.Context, id uint64) (User, error) {
	var user User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, httperr.NotFound("user %d not found", id)
		}
		return User{}, httperr.Unexpected("failed to load user", err)
	}
	if err := s.attachRoleName(ctx, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *UserStore) attachRoleName(ctx context.Context, user *User) error {
	if user.RoleID == nil {
		return nil
	}
	var role Role
	err := s.db.WithContext(ctx).First(&role, "id = ?", *user.RoleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return httperr.Unexpected("failed to resolve user role", err)
	}
	user.RoleName = role.Name
	return nil
}
