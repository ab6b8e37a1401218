package user

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/dailywork/domain"
)

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	return userArg(args, 0), args.Error(1)
}

func (m *mockUsers) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	return userArg(args, 0), args.Error(1)
}

func (m *mockUsers) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	return userArg(args, 0), args.Error(1)
}

func (m *mockUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockUsers) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *mockUsers) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	args := m.Called(ctx, user)
	return userArg(args, 0), args.Error(1)
}

func userArg(args mock.Arguments, i int) *domain.User {
	if u, ok := args.Get(i).(*domain.User); ok {
		return u
	}
	return nil
}

// plainHasher keeps tests fast; bcrypt itself is covered separately.
type plainHasher struct{ err error }

func (h plainHasher) Hash(password string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + password, nil
}

func (h plainHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

var (
	ctx   = context.Background()
	alice = domain.Registration{Username: "alice", Email: "alice@example.com", Password: "s3cret!"}
)

func TestRegisterCreatesUserWithHashedPassword(t *testing.T) {
	users := new(mockUsers)
	users.On("ExistsByEmail", ctx, alice.Email).Return(false, nil)
	users.On("ExistsByUsername", ctx, alice.Username).Return(false, nil)
	users.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.Username == alice.Username && u.Email == alice.Email && u.PasswordHash == "hashed:s3cret!"
	})).Return(&domain.User{ID: "u-1", Username: alice.Username}, nil)

	res, err := New(users, plainHasher{}, nil).Register(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, msgRegistered, res.Message)
	assert.Nil(t, res.Result)
	users.AssertExpectations(t)
}

func TestRegisterDeclinesTakenEmail(t *testing.T) {
	users := new(mockUsers)
	users.On("ExistsByEmail", ctx, alice.Email).Return(true, nil)

	res, err := New(users, plainHasher{}, nil).Register(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, domain.ErrEmailTaken.Message, res.Message)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegisterDeclinesTakenUsername(t *testing.T) {
	users := new(mockUsers)
	users.On("ExistsByEmail", ctx, alice.Email).Return(false, nil)
	users.On("ExistsByUsername", ctx, alice.Username).Return(true, nil)

	res, err := New(users, plainHasher{}, nil).Register(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, domain.ErrUsernameTaken.Message, res.Message)
}

func TestRegisterRaceOnUniqueConstraint(t *testing.T) {
	users := new(mockUsers)
	users.On("ExistsByEmail", ctx, alice.Email).Return(false, nil)
	users.On("ExistsByUsername", ctx, alice.Username).Return(false, nil)
	users.On("Create", ctx, mock.Anything).
		Return(nil, fmt.Errorf("insert user: %w", domain.ErrEmailTaken))

	res, err := New(users, plainHasher{}, nil).Register(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, domain.ErrEmailTaken.Message, res.Message)
}

func TestRegisterEmptyCreateResultIsDeclined(t *testing.T) {
	users := new(mockUsers)
	users.On("ExistsByEmail", ctx, alice.Email).Return(false, nil)
	users.On("ExistsByUsername", ctx, alice.Username).Return(false, nil)
	users.On("Create", ctx, mock.Anything).Return(nil, nil)

	res, err := New(users, plainHasher{}, nil).Register(ctx, alice)
	require.NoError(t, err)
	assert.False(t, res.Succeeded())
	assert.Equal(t, msgRegisterFailed, res.Message)
}

func TestRegisterStorageFailures(t *testing.T) {
	boom := errors.New("pool closed")

	t.Run("email check", func(t *testing.T) {
		users := new(mockUsers)
		users.On("ExistsByEmail", ctx, alice.Email).Return(false, boom)

		_, err := New(users, plainHasher{}, nil).Register(ctx, alice)
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("create", func(t *testing.T) {
		users := new(mockUsers)
		users.On("ExistsByEmail", ctx, alice.Email).Return(false, nil)
		users.On("ExistsByUsername", ctx, alice.Username).Return(false, nil)
		users.On("Create", ctx, mock.Anything).Return(nil, boom)

		_, err := New(users, plainHasher{}, nil).Register(ctx, alice)
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))
		assert.Equal(t, msgRegisterFailed, domain.PublicMessage(err))
	})

	t.Run("hashing", func(t *testing.T) {
		users := new(mockUsers)
		users.On("ExistsByEmail", ctx, alice.Email).Return(false, nil)
		users.On("ExistsByUsername", ctx, alice.Username).Return(false, nil)

		_, err := New(users, plainHasher{err: boom}, nil).Register(ctx, alice)
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestFindReturnsNilForMissingUser(t *testing.T) {
	users := new(mockUsers)
	users.On("FindByUsername", ctx, "ghost").Return(nil, domain.ErrUserNotFound)
	users.On("FindByEmail", ctx, "ghost@example.com").Return(nil, domain.ErrUserNotFound)
	dir := New(users, plainHasher{}, nil)

	found, err := dir.FindByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = dir.FindByEmail(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindWrapsLookupFailure(t *testing.T) {
	users := new(mockUsers)
	users.On("FindByEmail", ctx, "a@b.c").Return(nil, errors.New("timeout"))

	_, err := New(users, plainHasher{}, nil).FindByEmail(ctx, "a@b.c")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))
	assert.Equal(t, "user lookup by email failed", domain.PublicMessage(err))
}

func TestExistsByEmail(t *testing.T) {
	users := new(mockUsers)
	users.On("ExistsByEmail", ctx, "alice@example.com").Return(true, nil)

	exists, err := New(users, plainHasher{}, nil).ExistsByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAuthenticate(t *testing.T) {
	stored := &domain.User{ID: "u-1", Username: "alice", Email: "alice@example.com", PasswordHash: "hashed:s3cret!"}

	t.Run("by username", func(t *testing.T) {
		users := new(mockUsers)
		users.On("FindByUsername", ctx, "alice").Return(stored, nil)

		got, err := New(users, plainHasher{}, nil).Authenticate(ctx, "alice", "s3cret!")
		require.NoError(t, err)
		assert.Equal(t, "u-1", got.ID)
	})

	t.Run("falls back to email", func(t *testing.T) {
		users := new(mockUsers)
		users.On("FindByUsername", ctx, "alice@example.com").Return(nil, domain.ErrUserNotFound)
		users.On("FindByEmail", ctx, "alice@example.com").Return(stored, nil)

		got, err := New(users, plainHasher{}, nil).Authenticate(ctx, "alice@example.com", "s3cret!")
		require.NoError(t, err)
		assert.Equal(t, "u-1", got.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		users := new(mockUsers)
		users.On("FindByUsername", ctx, "alice").Return(stored, nil)

		_, err := New(users, plainHasher{}, nil).Authenticate(ctx, "alice", "guess")
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
	})

	t.Run("unknown login", func(t *testing.T) {
		users := new(mockUsers)
		users.On("FindByUsername", ctx, "bob").Return(nil, domain.ErrUserNotFound)

		_, err := New(users, plainHasher{}, nil).Authenticate(ctx, "bob", "x")
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
		users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	})
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.NoError(t, h.Compare(hash, "correct horse"))
	assert.Error(t, h.Compare(hash, "battery staple"))

	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).Cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(99).Cost)
}
