package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"calendasync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUserService_GetByID(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		id      string
		setup   func(*fakeUserRepo)
		wantErr error
		anyErr  bool
	}{
		{
			name: "found",
			id:   "user-1",
			setup: func(r *fakeUserRepo) {
				r.add(&domain.User{ID: "user-1", Email: "alice@example.com"})
			},
		},
		{
			name:    "missing",
			id:      "nope",
			setup:   func(*fakeUserRepo) {},
			wantErr: domain.ErrUserNotFound,
		},
		{
			name:   "repository failure",
			id:     "user-1",
			setup:  func(r *fakeUserRepo) { r.getErr = errors.New("db down") },
			anyErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeUserRepo()
			tt.setup(repo)
			u, err := NewUserService(repo, &fakePasswordHasher{salt: "s"}).GetByID(ctx, tt.id)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				require.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.id, u.ID)
			}
		})
	}
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	newSvc := func() (domain.UserService, *fakeUserRepo) {
		repo := newFakeUserRepo()
		repo.add(&domain.User{ID: "user-1", Email: "alice@example.com", Salt: "old", PasswordHash: "old-hash"})
		repo.add(&domain.User{ID: "user-2", Email: "bob@example.com"})
		svc := NewUserService(repo, &fakePasswordHasher{salt: "new"})
		svc.(*userService).now = func() time.Time { return now }
		return svc, repo
	}

	t.Run("change email", func(t *testing.T) {
		svc, repo := newSvc()
		u, err := svc.Update(ctx, "user-1", domain.UserPatch{Email: strPtr(" Alice2@Example.com")})
		require.NoError(t, err)
		assert.Equal(t, "alice2@example.com", u.Email)
		assert.Equal(t, "old-hash", u.PasswordHash)
		assert.Equal(t, now, u.UpdatedAt)
		_, ok := repo.byEmail["alice2@example.com"]
		assert.True(t, ok)
	})

	t.Run("change password", func(t *testing.T) {
		svc, _ := newSvc()
		u, err := svc.Update(ctx, "user-1", domain.UserPatch{Password: strPtr(strongPassword)})
		require.NoError(t, err)
		assert.Equal(t, "new", u.Salt)
		assert.Equal(t, "hash-new-"+strongPassword, u.PasswordHash)
	})

	t.Run("invalid fields", func(t *testing.T) {
		svc, _ := newSvc()
		_, err := svc.Update(ctx, "user-1", domain.UserPatch{Email: strPtr("bad"), Password: strPtr("weak")})
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.True(t, ve.Has("email"))
		assert.True(t, ve.Has("password"))
	})

	t.Run("email taken", func(t *testing.T) {
		svc, _ := newSvc()
		_, err := svc.Update(ctx, "user-1", domain.UserPatch{Email: strPtr("bob@example.com")})
		require.ErrorIs(t, err, domain.ErrDuplicateEmail)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, _ := newSvc()
		_, err := svc.Update(ctx, "ghost", domain.UserPatch{Email: strPtr("g@example.com")})
		require.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}
