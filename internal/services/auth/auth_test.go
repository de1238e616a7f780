package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lexserve/lexserve-backend/internal/lib/jwt"
	"github.com/lexserve/lexserve-backend/internal/lib/password"
	"github.com/lexserve/lexserve-backend/internal/models"
	"github.com/lexserve/lexserve-backend/internal/storage"
)

// MockUserRepository реализует интерфейс UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if res := args.Get(0); res != nil {
		return res.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestMaker() jwt.Maker {
	return jwt.NewJWTMaker("test_secret_key", 15*time.Minute)
}

func TestRegister_HashesPasswordAndAssignsUserRole(t *testing.T) {
	repo := new(MockUserRepository)

	repo.On("RegisterUser", mock.Anything, mock.MatchedBy(func(user models.User) bool {
		// Пароль хранится только в виде bcrypt-хэша.
		return user.Role == models.RoleUser &&
			user.PasswordHash != "secret123" &&
			password.CompareHash(user.PasswordHash, "secret123") == nil
	})).Return("uid-1", nil)

	svc := NewAuthService(repo, newTestMaker())
	uid, err := svc.Register(context.Background(), "u@example.com", "testuser", "secret123")

	require.NoError(t, err)
	assert.Equal(t, "uid-1", uid)
	repo.AssertExpectations(t)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	repo := new(MockUserRepository)

	repo.On("RegisterUser", mock.Anything, mock.Anything).Return("", storage.ErrUserExists)

	svc := NewAuthService(repo, newTestMaker())
	_, err := svc.Register(context.Background(), "u@example.com", "testuser", "secret123")

	require.ErrorIs(t, err, storage.ErrUserExists)
}

func TestLogin_Success(t *testing.T) {
	repo := new(MockUserRepository)

	hash, err := password.GetHash("secret123")
	require.NoError(t, err)
	repo.On("GetUserByUsername", mock.Anything, "testuser").
		Return(&models.User{UID: "uid-1", Username: "testuser", PasswordHash: hash, Role: models.RoleStaff}, nil)

	maker := newTestMaker()
	svc := NewAuthService(repo, maker)
	token, role, err := svc.Login(context.Background(), "testuser", "secret123")

	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, role)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "testuser", claims.Username)
	assert.Equal(t, "staff", claims.Role)
	assert.Equal(t, "uid-1", claims.UserUID)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := new(MockUserRepository)

	hash, err := password.GetHash("secret123")
	require.NoError(t, err)
	repo.On("GetUserByUsername", mock.Anything, "testuser").
		Return(&models.User{UID: "uid-1", Username: "testuser", PasswordHash: hash, Role: models.RoleUser}, nil)

	svc := NewAuthService(repo, newTestMaker())
	_, _, err = svc.Login(context.Background(), "testuser", "wrong")

	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	repo := new(MockUserRepository)

	repo.On("GetUserByUsername", mock.Anything, "ghost").Return(nil, storage.ErrNotFound)

	svc := NewAuthService(repo, newTestMaker())
	_, _, err := svc.Login(context.Background(), "ghost", "secret123")

	// Неизвестный пользователь неотличим от неверного пароля.
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
