package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	apperrors "studytracker/backend/internal/errors"
	"studytracker/backend/internal/model"
	"studytracker/backend/internal/repository"
)

const tokenIssuer = "studytracker"

var errBadCredentials = apperrors.Unauthorized("invalid email or password")

type AuthService struct {
	userRepo  *repository.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	parser    *jwt.Parser
	now       func() time.Time
	log       *zap.Logger
}

type AuthResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func NewAuthService(
	userRepo *repository.UserRepository,
	jwtSecret string,
	tokenTTL time.Duration,
	log *zap.Logger,
) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(tokenIssuer),
			jwt.WithExpirationRequired(),
		),
		now: time.Now,
		log: log.Named("auth"),
	}
}

// Register creates an account and signs a token for it. Emails are matched
// case-insensitively.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, *apperrors.APIError) {
	email = model.NormalizeEmail(email)
	if apiErr := invalid("invalid credentials", model.ValidateCredentials(email, password)); apiErr != nil {
		return nil, apiErr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error("hash password", zap.Error(err))
		return nil, apperrors.Internal("failed to secure password")
	}

	now := s.now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.userRepo.Create(ctx, &user)
	if errors.Is(err, repository.ErrConflict) {
		return nil, apperrors.Conflict("email_exists", "email already registered", nil)
	}
	if err != nil {
		s.log.Error("create user", zap.Error(err))
		return nil, apperrors.Internal("failed to create user")
	}

	s.log.Info("user registered", zap.String("user_id", user.ID))
	return s.result(user)
}

// Login answers the same 401 for an unknown email and a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, *apperrors.APIError) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.BadRequest("invalid_credentials", "email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		s.log.Error("query user", zap.Error(err))
		return nil, apperrors.Internal("failed to query user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, errBadCredentials
	}
	return s.result(*user)
}

// ParseToken returns the user id in the subject of a valid, unexpired token.
func (s *AuthService) ParseToken(tokenString string) (string, *apperrors.APIError) {
	var claims jwt.RegisteredClaims
	_, err := s.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", apperrors.Unauthorized("invalid token")
	}
	if claims.Subject == "" {
		return "", apperrors.Unauthorized("invalid token subject")
	}
	return claims.Subject, nil
}

func (s *AuthService) result(user model.User) (*AuthResult, *apperrors.APIError) {
	now := s.now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   user.ID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		s.log.Error("sign token", zap.Error(err))
		return nil, apperrors.Internal("failed to sign token")
	}
	return &AuthResult{Token: signed, User: user}, nil
}
