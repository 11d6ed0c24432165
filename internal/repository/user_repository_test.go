package repository

import (
	"context"
	"testing"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/database"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	db := database.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	donorID := "donor-1"
	admin := &models.User{Email: " Admin@Acme.com ", PasswordHash: "x", Role: "CORPORATE_USER", DonorID: &donorID, DonorRole: "ADMIN"}
	viewer := &models.User{Email: "viewer@acme.com", PasswordHash: "x", Role: "CORPORATE_USER", DonorID: &donorID, DonorRole: "VIEWER"}
	require.NoError(t, repo.CreateUser(ctx, admin))
	require.NoError(t, repo.CreateUser(ctx, viewer))
	assert.Equal(t, "admin@acme.com", admin.Email)

	got, err := repo.GetUserByEmail(ctx, "ADMIN@acme.com")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, got.ID)

	_, err = repo.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.GetUserByEmail(ctx, "nobody@acme.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	members, err := repo.ListDonorMembers(ctx, donorID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "ADMIN", members[0].DonorRole)

	admins, err := repo.CountDonorAdmins(ctx, donorID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), admins)

	got.Name = "Acme Admin"
	require.NoError(t, repo.UpdateUser(ctx, got))
	again, err := repo.GetUser(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Admin", again.Name)

	assert.ErrorIs(t, repo.CreateUser(ctx, nil), ErrInvalidInput)
	assert.ErrorIs(t, repo.UpdateUser(ctx, &models.User{}), ErrInvalidInput)

	total, err := repo.GetTotalUserCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
