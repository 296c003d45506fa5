package service

import (
	"context"
	"testing"

	"challengearena/internal/common"
	"challengearena/internal/common/security"
	"challengearena/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	t.Run("creates profile without a role and returns a token", func(t *testing.T) {
		repo := newFakeProfileRepo()
		svc := NewAuthService(repo)

		resp, err := svc.Signup(context.Background(), SignupRequest{
			FullName: "Ada Lovelace",
			Email:    "  Ada@Example.COM ",
			Password: "supersecret",
		})
		require.NoError(t, err)

		assert.Equal(t, "ada@example.com", resp.Profile.Email)
		assert.Empty(t, resp.Profile.Role)
		assert.Empty(t, resp.Profile.HashedPassword)
		assert.NotEmpty(t, resp.Token)

		stored, err := repo.FindByEmail(context.Background(), "ada@example.com")
		require.NoError(t, err)
		assert.True(t, security.CheckPasswordHash("supersecret", stored.HashedPassword))
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		svc := NewAuthService(newFakeProfileRepo())
		_, err := svc.Signup(context.Background(), SignupRequest{
			FullName: "Ada", Email: "ada@example.com", Password: "short",
		})
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		svc := NewAuthService(newFakeProfileRepo())
		_, err := svc.Signup(context.Background(), SignupRequest{
			FullName: "Ada", Email: "not-an-email", Password: "supersecret",
		})
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		svc := NewAuthService(newFakeProfileRepo())
		_, err := svc.Signup(context.Background(), SignupRequest{Email: "ada@example.com"})
		assert.ErrorIs(t, err, common.ErrBadRequest)
	})

	t.Run("duplicate email surfaces as conflict", func(t *testing.T) {
		repo := newFakeProfileRepo()
		svc := NewAuthService(repo)
		req := SignupRequest{FullName: "Ada", Email: "ada@example.com", Password: "supersecret"}

		_, err := svc.Signup(context.Background(), req)
		require.NoError(t, err)
		_, err = svc.Signup(context.Background(), req)
		assert.ErrorIs(t, err, common.ErrConflict)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	repo := newFakeProfileRepo()
	svc := NewAuthService(repo)

	signedUp, err := svc.Signup(ctx, SignupRequest{
		FullName: "Grace Hopper", Email: "grace@example.com", Password: "compilers",
	})
	require.NoError(t, err)

	t.Run("valid credentials return profile and token", func(t *testing.T) {
		resp, err := svc.Login(ctx, LoginRequest{Email: "grace@example.com", Password: "compilers"})
		require.NoError(t, err)
		assert.Equal(t, signedUp.Profile.ID, resp.Profile.ID)
		assert.Empty(t, resp.Profile.HashedPassword)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginRequest{Email: "grace@example.com", Password: "wrong-one"})
		assert.ErrorIs(t, err, common.ErrUnauthorized)
	})

	t.Run("unknown email is unauthorized, not not-found", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "whatever"})
		assert.ErrorIs(t, err, common.ErrUnauthorized)
		assert.NotErrorIs(t, err, common.ErrNotFound)
	})
}

func TestSelectRole(t *testing.T) {
	ctx := context.Background()

	newProfile := func(repo *fakeProfileRepo) *model.Profile {
		return repo.add(model.Profile{ID: "u1", FullName: "Ada", Email: "ada@example.com"})
	}

	t.Run("participant role is persisted and token reissued with role claim", func(t *testing.T) {
		repo := newFakeProfileRepo()
		newProfile(repo)
		svc := NewProfileService(repo)

		resp, err := svc.SelectRole(ctx, "u1", SelectRoleRequest{Role: model.RoleParticipant})
		require.NoError(t, err)
		assert.Equal(t, model.RoleParticipant, resp.Profile.Role)
		assert.NotEmpty(t, resp.Token)

		token, err := security.TokenAuth.Decode(resp.Token)
		require.NoError(t, err)
		role, ok := token.Get("role")
		require.True(t, ok)
		assert.Equal(t, model.RoleParticipant, role)
	})

	t.Run("company role requires a company name", func(t *testing.T) {
		repo := newFakeProfileRepo()
		newProfile(repo)
		svc := NewProfileService(repo)

		_, err := svc.SelectRole(ctx, "u1", SelectRoleRequest{Role: model.RoleCompany})
		assert.ErrorIs(t, err, common.ErrValidation)

		resp, err := svc.SelectRole(ctx, "u1", SelectRoleRequest{Role: model.RoleCompany, CompanyName: "Acme AI"})
		require.NoError(t, err)
		require.NotNil(t, resp.Profile.CompanyName)
		assert.Equal(t, "Acme AI", *resp.Profile.CompanyName)
	})

	t.Run("role cannot be changed once set", func(t *testing.T) {
		repo := newFakeProfileRepo()
		newProfile(repo)
		svc := NewProfileService(repo)

		_, err := svc.SelectRole(ctx, "u1", SelectRoleRequest{Role: model.RoleParticipant})
		require.NoError(t, err)
		_, err = svc.SelectRole(ctx, "u1", SelectRoleRequest{Role: model.RoleCompany, CompanyName: "Acme AI"})
		assert.ErrorIs(t, err, common.ErrConflict)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		repo := newFakeProfileRepo()
		newProfile(repo)
		svc := NewProfileService(repo)

		_, err := svc.SelectRole(ctx, "u1", SelectRoleRequest{Role: "admin"})
		assert.ErrorIs(t, err, common.ErrValidation)
	})
}

func TestUpdateMe(t *testing.T) {
	ctx := context.Background()
	repo := newFakeProfileRepo()
	repo.add(model.Profile{ID: "u1", FullName: "Ada", Email: "ada@example.com"})
	svc := NewProfileService(repo)

	avatar := "https://cdn.example.com/ada.png"
	updated, err := svc.UpdateMe(ctx, "u1", UpdateProfileRequest{FullName: "Ada L.", AvatarURL: &avatar})
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", updated.FullName)
	require.NotNil(t, updated.AvatarURL)
	assert.Equal(t, avatar, *updated.AvatarURL)

	_, err = svc.UpdateMe(ctx, "u1", UpdateProfileRequest{FullName: "   "})
	assert.ErrorIs(t, err, common.ErrValidation)
}
