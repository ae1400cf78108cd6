package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	// ErrDeviceMismatch is returned when a trust token is presented
	// from a device other than the one it was bound to
	ErrDeviceMismatch = errors.New("trust token device mismatch")
)

// Claims represents access/refresh token claims. Role is stamped by
// the identity subsystem and drives admin route gating.
type Claims struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Role   string    `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TrustClaims represents a long-lived biometric trust token bound to a
// device id
type TrustClaims struct {
	UserID   uuid.UUID `json:"userId"`
	Email    string    `json:"email"`
	DeviceID string    `json:"deviceId"`
	jwt.RegisteredClaims
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service issues and validates the core's tokens
type Service struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	trustExpiry   time.Duration
}

// NewService creates a new JWT service
func NewService(secret string, accessExpiry, refreshExpiry, trustExpiry time.Duration) *Service {
	return &Service{
		secret:        []byte(secret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		trustExpiry:   trustExpiry,
	}
}

// GenerateTokenPair generates access and refresh tokens
func (s *Service) GenerateTokenPair(userID uuid.UUID, email, role string) (*TokenPair, error) {
	accessToken, err := s.generateToken(userID, email, role, s.accessExpiry)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(userID, email, role, s.refreshExpiry)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ValidateToken validates an access/refresh token
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, s.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateTrustToken issues a device-bound token that authorizes
// biometric login and biometric transfer gating
func (s *Service) GenerateTrustToken(userID uuid.UUID, email, deviceID string) (string, error) {
	now := time.Now()
	claims := &TrustClaims{
		UserID:   userID,
		Email:    email,
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.trustExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateTrustToken validates a biometric trust token against the
// expected user email and device id. Expired, malformed or rebound
// tokens are all rejected.
func (s *Service) ValidateTrustToken(tokenString, email, deviceID string) (*TrustClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TrustClaims{}, s.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*TrustClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Email != email {
		return nil, ErrInvalidToken
	}
	if claims.DeviceID != deviceID {
		return nil, ErrDeviceMismatch
	}
	return claims, nil
}

func (s *Service) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrInvalidToken
	}
	return s.secret, nil
}

func (s *Service) generateToken(userID uuid.UUID, email, role string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
