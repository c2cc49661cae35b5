package repository

import (
	"context"
	"testing"

	"templatestore-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepo_FindOrCreateByEmail(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user, err := repo.FindOrCreateByEmail(ctx, "a@x.com", "Ada Lovelace")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.Empty(t, user.PasswordHash, "payment-originated accounts are passwordless")

	again, err := repo.FindOrCreateByEmail(ctx, "a@x.com", "A. Different Name")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "Ada Lovelace", again.Name, "existing record wins, no overwrite")

	var count int64
	require.NoError(t, db.Model(&model.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUserRepo_ExistingRegistrationWins(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	// A user who registered before ever buying anything.
	registered := &model.User{
		ID:           "user-1",
		Email:        "b@x.com",
		Name:         "Grace Hopper",
		Role:         model.RoleAdmin,
		PasswordHash: "argon2id$...",
	}
	require.NoError(t, db.Create(registered).Error)

	user, err := repo.FindOrCreateByEmail(ctx, "b@x.com", "G. Hopper")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, model.RoleAdmin, user.Role)
	assert.Equal(t, "argon2id$...", user.PasswordHash)
}
