package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/confbook/booking-service/internal/errs"
	"github.com/confbook/booking-service/internal/model"
	"github.com/confbook/booking-service/internal/repository"
	"github.com/confbook/booking-service/pkg/auth"
)

const tokenTTL = 24 * time.Hour

type AuthService struct {
	log   *zap.Logger
	repo  repository.UserRepository
	clock Clock
}

func NewAuthService(repo repository.UserRepository, log *zap.Logger) *AuthService {
	return &AuthService{
		log:   log,
		repo:  repo,
		clock: RealClock{},
	}
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, errors.Wrap(err, "hash password")
	}
	return s.repo.Create(ctx, req.Username, string(hash), model.RoleUser)
}

// Authorize checks the stored credential and issues a signed HS256 token
// carrying the username and role.
func (s *AuthService) Authorize(ctx context.Context, req model.AuthRequest) (string, error) {
	user, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", errs.ErrCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", errs.ErrCredentials
	}

	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.clock.Now().Add(tokenTTL)),
		},
	}
	claims.Profile.Username = user.Username
	claims.Profile.Role = user.Role

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(auth.JWTKey)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

func (s *AuthService) GetUser(ctx context.Context, username string) (model.User, error) {
	if username == "" {
		return model.User{}, errs.ErrUserName
	}
	return s.repo.GetByUsername(ctx, username)
}
