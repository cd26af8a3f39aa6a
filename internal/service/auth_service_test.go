package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edumark/smis-api/internal/models"
	appErrors "github.com/edumark/smis-api/pkg/errors"
)

type mockUserRepo struct {
	users map[string]*models.User
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func newAuthFixture(t *testing.T) (*AuthService, *mockUserRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "teacher@school.ug", FullName: "Okware Peter", PasswordHash: string(hash), Role: models.RoleTeacher, Active: true},
	}}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "smis-api",
	})
	return svc, repo
}

func TestAuthLoginIssuesValidToken(t *testing.T) {
	svc, _ := newAuthFixture(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@school.ug", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, "u1", res.User.ID)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	assert.Equal(t, "smis-api", claims.Issuer)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@school.ug", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@school.ug", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	svc, repo := newAuthFixture(t)
	repo.users["u1"].Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@school.ug", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthValidateTokenRejectsTampered(t *testing.T) {
	svc, _ := newAuthFixture(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@school.ug", Password: "password"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(res.AccessToken + "x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthMe(t *testing.T) {
	svc, _ := newAuthFixture(t)

	info, err := svc.Me(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "teacher@school.ug", info.Email)

	_, err = svc.Me(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
