package repository

import (
	"context"
	"errors"
	"fmt"

	"templatestore-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	// FindByEmail returns nil when no user exists with the address.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// FindOrCreateByEmail returns the existing user for the address or
	// creates a passwordless USER account. An existing record always wins;
	// no fields on it are overwritten.
	FindOrCreateByEmail(ctx context.Context, email, name string) (*model.User, error)
}

type userRepoImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepoImpl{
		db: db,
	}
}

func (r *userRepoImpl) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepoImpl) FindOrCreateByEmail(ctx context.Context, email, name string) (*model.User, error) {
	existing, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	user := &model.User{
		ID:    uuid.NewString(),
		Email: email,
		Name:  name,
		Role:  model.RoleUser,
	}

	err = r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a race against a concurrent delivery or registration.
		return r.FindByEmail(ctx, email)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}
