package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/talentdesk/backoffice/internal"
	"github.com/talentdesk/backoffice/internal/store"
)

// Service handles account creation and admin session auth against the
// remote store's accounts collection.
type Service struct {
	gateway        store.Gateway
	tokenGenerator TokenGenerator
	logger         *slog.Logger
	bcryptCost     int
}

func NewService(gateway store.Gateway, tokenGen TokenGenerator, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		gateway:        gateway,
		tokenGenerator: tokenGen,
		logger:         logger,
		bcryptCost:     bcryptCost,
	}
}

// CreateAccount registers credentials and returns the stable identity key
// that the caller uses as the employee record key. An existing account for
// the same email is a distinct conflict, not a generic failure.
func (s *Service) CreateAccount(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", internal.NewValidationError("email and password are required", internal.ErrCodeValidationFailed)
	}

	existing, err := s.findByEmail(ctx, email)
	if err != nil {
		s.logger.Error("account lookup failed", "error", err)
		return "", err
	}
	if existing != "" {
		s.logger.Warn("account creation rejected, email already in use")
		return "", internal.ErrEmailAlreadyInUse
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	account := Account{
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().Format(time.RFC3339),
	}

	key, err := s.gateway.Push(ctx, accountsPath, account)
	if err != nil {
		s.logger.Error("account creation failed", "error", err)
		return "", internal.NewExternalError("Could not create account", internal.ErrCodeStoreUnavailable, err)
	}

	s.logger.Info("account created", "account_key", key)

	return key, nil
}

// DeleteAccount removes stored credentials when their owning record goes away.
func (s *Service) DeleteAccount(ctx context.Context, key string) error {
	if err := s.gateway.Delete(ctx, store.Join(accountsPath, key)); err != nil {
		return internal.NewExternalError("Could not delete account", internal.ErrCodeStoreUnavailable, err)
	}
	return nil
}

// Authenticate validates credentials and returns a token pair.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (Tokens, error) {
	if err := dto.Validate(); err != nil {
		return Tokens{}, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	entries, err := s.gateway.GetRange(ctx, accountsPath, store.Query{
		OrderBy:      "email",
		EqualTo:      &dto.Email,
		LimitToFirst: 1,
	})
	if err != nil {
		s.logger.Error("credential lookup failed", "error", err)
		return Tokens{}, internal.NewExternalError("Could not reach account store", internal.ErrCodeStoreUnavailable, err)
	}
	if len(entries) == 0 {
		return Tokens{}, internal.ErrInvalidCredentials
	}

	var account Account
	if err := decodeAccount(entries[0], &account); err != nil {
		return Tokens{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(dto.Password)); err != nil {
		return Tokens{}, internal.ErrInvalidCredentials
	}

	return s.issueTokens(entries[0].Key, account.Email)
}

// RefreshTokens validates a refresh token and rotates the pair.
func (s *Service) RefreshTokens(refreshToken string) (Tokens, error) {
	claims, err := s.tokenGenerator.ValidateToken(refreshToken)
	if err != nil {
		return Tokens{}, err
	}
	return s.issueTokens(claims.UserID, claims.Email)
}

// ValidateAccessToken validates an access token and returns its claims.
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString)
}

func (s *Service) issueTokens(userID, email string) (Tokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(userID, email)
	if err != nil {
		return Tokens{}, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(userID, email)
	if err != nil {
		return Tokens{}, fmt.Errorf("generate refresh token: %w", err)
	}
	return Tokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (string, error) {
	entries, err := s.gateway.GetRange(ctx, accountsPath, store.Query{
		OrderBy:      "email",
		EqualTo:      &email,
		LimitToFirst: 1,
	})
	if err != nil {
		return "", internal.NewExternalError("Could not reach account store", internal.ErrCodeStoreUnavailable, err)
	}
	if len(entries) == 0 {
		return "", nil
	}
	return entries[0].Key, nil
}

func decodeAccount(entry store.Entry, account *Account) error {
	if err := json.Unmarshal(entry.Value, account); err != nil {
		return internal.NewInternalError("Malformed account record", err)
	}
	return nil
}

// GenerateAccessToken creates a new access token.
func (j *JWTTokenGenerator) GenerateAccessToken(userID, email string) (string, error) {
	return j.sign(userID, email, j.AccessTokenTTL, j.AccessTokenSecret)
}

// GenerateRefreshToken creates a new refresh token.
func (j *JWTTokenGenerator) GenerateRefreshToken(userID, email string) (string, error) {
	return j.sign(userID, email, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) sign(userID, email string, ttl time.Duration, secret []byte) (string, error) {
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates a JWT token and returns claims.
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		// Refresh tokens are recognizable by their longer lifetime.
		if claims, ok := token.Claims.(*Claims); ok {
			if time.Until(claims.ExpiresAt.Time) > j.AccessTokenTTL {
				return j.RefreshTokenSecret, nil
			}
		}
		return j.AccessTokenSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, internal.ErrInvalidToken
}
