//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/MrEthical07/authcore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("AUTHCORE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("AUTHCORE_TEST_DATABASE_URL not set")
	}
	require.NoError(t, Migrate(dsn))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func newUser(t *testing.T) authcore.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	now := time.Now().UTC().Truncate(time.Microsecond)
	return authcore.User{
		ID:           uuid.NewString(),
		Username:     "user-" + suffix,
		Email:        "user-" + suffix + "@example.com",
		PasswordHash: "hash",
		Status:       authcore.AccountActive,
		Roles:        []string{"ROLE_USER"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := newUser(t)

	require.NoError(t, s.Save(ctx, u))
	t.Cleanup(func() { _ = s.Delete(ctx, u.ID) })

	got, err := s.FindByUsername(ctx, u.Username)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.Roles, got.Roles)
	assert.Equal(t, authcore.AccountActive, got.Status)

	u.Status = authcore.AccountLocked
	u.FailedLoginAttempts = 5
	require.NoError(t, s.Save(ctx, u))

	got, err = s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, authcore.AccountLocked, got.Status)
	assert.Equal(t, 5, got.FailedLoginAttempts)

	ok, err := s.ExistsByEmail(ctx, "USER"+u.Email[4:])
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStoreUniqueViolations(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := newUser(t)
	require.NoError(t, s.Save(ctx, u))
	t.Cleanup(func() { _ = s.Delete(ctx, u.ID) })

	dup := newUser(t)
	dup.Username = u.Username
	assert.ErrorIs(t, s.Save(ctx, dup), authcore.ErrUsernameTaken)

	dup = newUser(t)
	dup.Email = u.Email
	assert.ErrorIs(t, s.Save(ctx, dup), authcore.ErrEmailTaken)
}

func TestStoreNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, authcore.ErrUserNotFound)
	assert.ErrorIs(t, s.Delete(ctx, uuid.NewString()), authcore.ErrUserNotFound)

	_, err = s.FindByCode(ctx, "ROLE_MISSING")
	assert.ErrorIs(t, err, authcore.ErrRoleNotFound)

	r, err := s.FindByCode(ctx, "ROLE_USER")
	require.NoError(t, err)
	assert.Equal(t, "User", r.Name)
}
