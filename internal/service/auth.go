package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/and161185/tokenstall/internal/crypto"
	"github.com/and161185/tokenstall/internal/errs"
	"github.com/and161185/tokenstall/internal/limiter"
	"github.com/and161185/tokenstall/internal/model"
	"github.com/and161185/tokenstall/internal/repository"
)

// AuthService issues marketplace identities and access tokens.
type AuthService interface {
	// Register creates a new account with secure password hashing.
	Register(ctx context.Context, username, password string) (userID uuid.UUID, err error)
	// LoginWithIP applies rate-limiting and authenticates the account.
	LoginWithIP(ctx context.Context, username, password, ip string) (tokens model.Tokens, user model.User, err error)
}

type AuthServiceImpl struct {
	users     repository.UserRepository
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, signKey []byte, accessTTL time.Duration, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, signKey: signKey, accessTTL: accessTTL, lim: lim}
}

// Register creates a new account record with a per-user salt. The account id
// doubles as the token-ledger identity.
func (s *AuthServiceImpl) Register(ctx context.Context, username, password string) (uuid.UUID, error) {
	if username == "" || password == "" {
		return uuid.Nil, errors.New("empty username/password")
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	saltAuth, err := pkgcrypto.RandBytes(16)
	if err != nil {
		return uuid.Nil, err
	}
	pwdHash := pkgcrypto.HashPassword([]byte(password), saltAuth)

	u := &model.User{
		ID:       uid,
		Username: username,
		PwdHash:  pwdHash,
		SaltAuth: saltAuth,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return uuid.Nil, err
	}
	return uid, nil
}

// LoginWithIP authenticates with rate limiting by (username, ip).
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, username, password, ip string) (model.Tokens, model.User, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, username, ipHash)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	if !allowed {
		return model.Tokens{}, model.User{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), u.SaltAuth, u.PwdHash) {
		// Record failure; if threshold reached, report the lockout instead.
		if blocked, _, ferr := s.lim.Failure(ctx, username, ipHash); ferr == nil && blocked {
			return model.Tokens{}, model.User{}, errs.ErrRateLimited
		}
		// lookup errors are masked as unauthorized to hide account existence
		return model.Tokens{}, model.User{}, errs.ErrUnauthorized
	}

	// Success: reset counters (best-effort).
	_ = s.lim.Success(ctx, username, ipHash)

	access, exp, err := s.issueAccessToken(u.ID)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return model.Tokens{AccessToken: access, ExpiresAt: exp}, *u, nil
}

// issueAccessToken creates a signed HS256 JWT for the given subject.
func (s *AuthServiceImpl) issueAccessToken(userID uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.accessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	return signed, exp, err
}
