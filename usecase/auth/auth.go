// Package auth issues and verifies login sessions. A session lives in Redis;
// the bearer token is an HS256 JWT naming the user and the session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/dailywork/domain"
	"github.com/fastygo/dailywork/pkg/logger"
	"github.com/fastygo/dailywork/repository"
)

const (
	msgLoggedIn  = "login succeeded"
	msgLoggedOut = "logout succeeded"

	defaultSessionTTL = 24 * time.Hour
)

var errInvalidToken = domain.NewError(domain.ErrCodeUnauthorized, "invalid or expired token")

// Authenticator resolves credentials to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, login, password string) (*domain.User, error)
}

type Config struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
}

// Claims is the JWT body.
type Claims struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Grant is returned by a successful login.
type Grant struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

type UseCase struct {
	users    Authenticator
	sessions repository.SessionRepository
	cfg      Config
	now      func() time.Time
	logger   *zap.Logger
}

func New(users Authenticator, sessions repository.SessionRepository, cfg Config, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger,
	}
}

// Login checks credentials, opens a session and signs a token for it.
func (uc *UseCase) Login(ctx context.Context, login, password string) (domain.Result, error) {
	log := logger.WithRequestID(ctx, uc.logger)

	user, err := uc.users.Authenticate(ctx, login, password)
	if err != nil {
		return domain.Result{}, err
	}

	session, err := uc.CreateSession(ctx, user.ID)
	if err != nil {
		log.Error("session creation failed", zap.String("user_id", user.ID), zap.Error(err))
		return domain.Result{}, domain.InternalFault("login failed", err)
	}

	token, err := uc.sign(session)
	if err != nil {
		_ = uc.sessions.Delete(ctx, session.ID)
		log.Error("token signing failed", zap.String("user_id", user.ID), zap.Error(err))
		return domain.Result{}, domain.InternalFault("login failed", err)
	}

	log.Info("user logged in", zap.String("user_id", user.ID), zap.String("session_id", session.ID))
	return domain.OK(msgLoggedIn, Grant{
		Token:     token,
		SessionID: session.ID,
		UserID:    user.ID,
		Username:  user.Username,
		ExpiresAt: session.ExpiresAt,
	}), nil
}

// Logout revokes the session. Revoking an unknown session succeeds.
func (uc *UseCase) Logout(ctx context.Context, sessionID string) (domain.Result, error) {
	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		logger.WithRequestID(ctx, uc.logger).Error("session revoke failed", zap.String("session_id", sessionID), zap.Error(err))
		return domain.Result{}, domain.InternalFault("logout failed", err)
	}
	return domain.OK(msgLoggedOut, nil), nil
}

func (uc *UseCase) CreateSession(ctx context.Context, userID string) (*domain.Session, error) {
	now := uc.now().UTC()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.cfg.SessionTTL),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ValidateSession requires the session to exist, be unexpired and belong to
// userID. Expired sessions are removed on sight.
func (uc *UseCase) ValidateSession(ctx context.Context, sessionID, userID string) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, errInvalidToken
	}
	if err != nil {
		return nil, domain.InternalFault("session lookup failed", err)
	}
	if session.IsExpired(uc.now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, errInvalidToken
	}
	if !session.BelongsTo(userID) {
		return nil, errInvalidToken
	}
	return session, nil
}

// Verify parses a bearer token and validates the session it names.
func (uc *UseCase) Verify(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := uc.parse(token)
	if err != nil {
		logger.WithRequestID(ctx, uc.logger).Debug("token rejected", zap.Error(err))
		return nil, errInvalidToken
	}
	return uc.ValidateSession(ctx, claims.SessionID, claims.UserID)
}

func (uc *UseCase) sign(session *domain.Session) (string, error) {
	claims := Claims{
		UserID:    session.UserID,
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    uc.cfg.Issuer,
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(uc.cfg.Secret))
}

func (uc *UseCase) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(uc.cfg.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.UserID == "" || claims.SessionID == "" {
		return nil, errors.New("incomplete claims")
	}
	return claims, nil
}
