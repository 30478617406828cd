package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"atlantic-photo/internal/model"
)

var signingMethods = map[string]jwt.SigningMethod{
	"HS256": jwt.SigningMethodHS256,
	"HS384": jwt.SigningMethodHS384,
	"HS512": jwt.SigningMethodHS512,
}

type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// TokenService issues and decodes HMAC-signed bearer tokens whose purpose
// is carried in the scope claim.
type TokenService struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(secret string, algorithm string, accessTTL time.Duration, refreshTTL time.Duration) (*TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	method, ok := signingMethods[strings.ToUpper(algorithm)]
	if !ok {
		return nil, fmt.Errorf("unsupported jwt algorithm %q", algorithm)
	}

	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}

	return &TokenService{
		secret:     []byte(secret),
		method:     method,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

func (s *TokenService) Issue(subject string, scope string, ttl time.Duration) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", scope, err)
	}
	return signed, nil
}

// IssuePair issues a fresh access and refresh token for subject.
func (s *TokenService) IssuePair(subject string) (model.TokenPair, error) {
	access, err := s.Issue(subject, model.ScopeAccessToken, s.accessTTL)
	if err != nil {
		return model.TokenPair{}, err
	}

	refresh, err := s.Issue(subject, model.ScopeRefreshToken, s.refreshTTL)
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

// Decode verifies signature, expiry and scope and returns the subject.
// Every failure wraps model.ErrInvalidToken.
func (s *TokenService) Decode(token string, expectedScope string) (string, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrInvalidToken, err)
	}

	if claims.Scope != expectedScope {
		return "", fmt.Errorf("%w: scope %q, want %q", model.ErrInvalidToken, claims.Scope, expectedScope)
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: missing subject", model.ErrInvalidToken)
	}

	return claims.Subject, nil
}
