package main

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"trimsdesk/internal/docstore"
	"trimsdesk/internal/model"
	"trimsdesk/internal/repository"
)

func TestCreateAdmin(t *testing.T) {
	log, _ := test.NewNullLogger()
	users := repository.NewUserRepository(docstore.NewMemory())
	ctx := context.Background()

	created, err := createAdmin(ctx, users, "boss", "s3cret", log)
	require.NoError(t, err)
	assert.True(t, created)

	u, err := users.FindByUsername(ctx, "boss")
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Role)
	assert.True(t, u.IsApproved)
	assert.NotEqual(t, "s3cret", u.PasswordHash)
	assert.Empty(t, u.LegacyPassword)

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret")))
}

func TestCreateAdmin_EnforcesExisting(t *testing.T) {
	log, _ := test.NewNullLogger()
	users := repository.NewUserRepository(docstore.NewMemory())
	ctx := context.Background()
	require.NoError(t, users.Create(ctx, &model.User{Username: "boss", Role: "user", PasswordHash: "keep"}))

	created, err := createAdmin(ctx, users, "boss", "other", log)
	require.NoError(t, err)
	assert.False(t, created)

	u, err := users.FindByUsername(ctx, "boss")
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Role)
	assert.True(t, u.IsApproved)
	assert.Equal(t, "keep", u.PasswordHash)
}
