package auth

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/rifayetuxbd/craftshop-api/internal/config"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// TokenKind selects which key and default TTL a token is issued and
// verified with. The four kinds are fully independent: a token of one kind
// never verifies as another.
type TokenKind string

const (
	TokenAccess            TokenKind = "access"
	TokenRefresh           TokenKind = "refresh"
	TokenEmailVerification TokenKind = "email-verification"
	TokenPasswordReset     TokenKind = "password-reset"
)

// TokenClaims is the payload carried inside a token. DisplayName is set on
// access/refresh tokens, Code on verification/reset tokens.
type TokenClaims struct {
	Email       string
	DisplayName string
	Code        string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// TokenService issues and verifies PASETO v4.local tokens, one symmetric
// key per kind. Pure crypto: nothing is persisted here.
type TokenService struct {
	keys map[TokenKind]paseto.V4SymmetricKey
	ttls map[TokenKind]time.Duration
}

func NewTokenService(cfg config.TokenConfig) (*TokenService, error) {
	keys := make(map[TokenKind]paseto.V4SymmetricKey, 4)
	for kind, raw := range map[TokenKind][]byte{
		TokenAccess:            cfg.AccessKey,
		TokenRefresh:           cfg.RefreshKey,
		TokenEmailVerification: cfg.EmailVerificationKey,
		TokenPasswordReset:     cfg.PasswordResetKey,
	} {
		key, err := paseto.V4SymmetricKeyFromBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("bad %s token key: %w", kind, err)
		}
		keys[kind] = key
	}

	return &TokenService{
		keys: keys,
		ttls: map[TokenKind]time.Duration{
			TokenAccess:            cfg.AccessTTL,
			TokenRefresh:           cfg.RefreshTTL,
			TokenEmailVerification: cfg.EmailVerificationTTL,
			TokenPasswordReset:     cfg.PasswordResetTTL,
		},
	}, nil
}

// Issue creates a signed token of the given kind with its default TTL.
func (s *TokenService) Issue(kind TokenKind, claims TokenClaims) (string, error) {
	key, ok := s.keys[kind]
	if !ok {
		return "", fmt.Errorf("unknown token kind %q", kind)
	}

	now := time.Now()
	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(s.ttls[kind]))
	token.SetString("email", claims.Email)
	if claims.DisplayName != "" {
		token.SetString("display_name", claims.DisplayName)
	}
	if claims.Code != "" {
		token.SetString("code", claims.Code)
	}

	return token.V4Encrypt(key, nil), nil
}

// Verify checks a token against the key of the given kind and returns its
// claims. Expiry is reported as ErrTokenExpired; every other failure
// (wrong key, wrong kind, malformed token) as ErrInvalidToken.
func (s *TokenService) Verify(kind TokenKind, tokenStr string) (*TokenClaims, error) {
	key, ok := s.keys[kind]
	if !ok {
		return nil, fmt.Errorf("unknown token kind %q", kind)
	}

	parser := paseto.NewParser()
	token, err := parser.ParseV4Local(key, tokenStr, nil)
	if err != nil {
		// The parser checks expiration by default; distinguish expired
		// from invalid
		if errors.Is(err, &paseto.RuleError{}) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	email, err := token.GetString("email")
	if err != nil {
		return nil, ErrInvalidToken
	}
	issuedAt, err := token.GetIssuedAt()
	if err != nil {
		return nil, ErrInvalidToken
	}
	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims := &TokenClaims{
		Email:     email,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}
	// Optional per-kind fields
	if displayName, err := token.GetString("display_name"); err == nil {
		claims.DisplayName = displayName
	}
	if code, err := token.GetString("code"); err == nil {
		claims.Code = code
	}

	return claims, nil
}
