// Package user implements registration and lookup of accounts.
package user

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/dailywork/domain"
	"github.com/fastygo/dailywork/pkg/logger"
	"github.com/fastygo/dailywork/repository"
)

const (
	msgRegistered     = "registration succeeded"
	msgRegisterFailed = "registration failed"
)

var errInvalidCredentials = domain.NewError(domain.ErrCodeUnauthorized, "invalid username or password")

// Directory registers users and resolves them by username or email.
type Directory struct {
	users  repository.UserRepository
	hasher PasswordHasher
	logger *zap.Logger
}

func New(users repository.UserRepository, hasher PasswordHasher, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hasher == nil {
		hasher = NewBcryptHasher(0)
	}
	return &Directory{
		users:  users,
		hasher: hasher,
		logger: logger,
	}
}

// ExistsByEmail reports whether the email is already registered.
func (d *Directory) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	exists, err := d.users.ExistsByEmail(ctx, email)
	if err != nil {
		logger.WithRequestID(ctx, d.logger).Error("email uniqueness check failed", zap.Error(err))
		return false, domain.InternalFault("email uniqueness check failed", err)
	}
	return exists, nil
}

// Register creates an account. A taken email or username is a declined
// result, not an error.
func (d *Directory) Register(ctx context.Context, reg domain.Registration) (domain.Result, error) {
	log := logger.WithRequestID(ctx, d.logger)

	taken, err := d.ExistsByEmail(ctx, reg.Email)
	if err != nil {
		return domain.Result{}, err
	}
	if taken {
		return domain.Declined(http.StatusBadRequest, domain.ErrEmailTaken.Message), nil
	}

	taken, err = d.users.ExistsByUsername(ctx, reg.Username)
	if err != nil {
		log.Error("username uniqueness check failed", zap.Error(err))
		return domain.Result{}, domain.InternalFault(msgRegisterFailed, err)
	}
	if taken {
		return domain.Declined(http.StatusBadRequest, domain.ErrUsernameTaken.Message), nil
	}

	hash, err := d.hasher.Hash(reg.Password)
	if err != nil {
		log.Error("password hashing failed", zap.Error(err))
		return domain.Result{}, domain.InternalFault(msgRegisterFailed, err)
	}

	created, err := d.users.Create(ctx, &domain.User{
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: hash,
	})
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		return domain.Declined(http.StatusBadRequest, domain.ErrEmailTaken.Message), nil
	case errors.Is(err, domain.ErrUsernameTaken):
		return domain.Declined(http.StatusBadRequest, domain.ErrUsernameTaken.Message), nil
	case err != nil:
		log.Error("user creation failed", zap.String("username", reg.Username), zap.Error(err))
		return domain.Result{}, domain.InternalFault(msgRegisterFailed, err)
	case created == nil:
		return domain.Declined(http.StatusBadRequest, msgRegisterFailed), nil
	}

	log.Info("user registered", zap.String("user_id", created.ID))
	return domain.OK(msgRegistered, nil), nil
}

// FindByUsername returns nil without error when no user matches.
func (d *Directory) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return d.find(ctx, "username", username, d.users.FindByUsername)
}

// FindByEmail returns nil without error when no user matches.
func (d *Directory) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return d.find(ctx, "email", email, d.users.FindByEmail)
}

// Authenticate resolves a login (username, or email when it looks like one)
// and checks the password against the stored hash.
func (d *Directory) Authenticate(ctx context.Context, login, password string) (*domain.User, error) {
	found, err := d.FindByUsername(ctx, login)
	if err != nil {
		return nil, err
	}
	if found == nil && strings.Contains(login, "@") {
		if found, err = d.FindByEmail(ctx, login); err != nil {
			return nil, err
		}
	}
	if found == nil {
		return nil, errInvalidCredentials
	}
	if err := d.hasher.Compare(found.PasswordHash, password); err != nil {
		return nil, errInvalidCredentials
	}
	return found, nil
}

func (d *Directory) find(
	ctx context.Context,
	field, value string,
	lookup func(context.Context, string) (*domain.User, error),
) (*domain.User, error) {
	found, err := lookup(ctx, value)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.WithRequestID(ctx, d.logger).Error("user lookup failed", zap.String("by", field), zap.Error(err))
		return nil, domain.InternalFault("user lookup by "+field+" failed", err)
	}
	return found, nil
}
