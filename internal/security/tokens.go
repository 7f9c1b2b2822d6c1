package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Sentinel errors returned by Verify. The request gate maps each to a
// distinct 401 reason.
var (
	// ErrTokenMalformed is returned when the token cannot be parsed at all.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenSignature is returned when the signature does not verify against
	// the process secret, or the token was signed with an unexpected method.
	ErrTokenSignature = errors.New("token signature invalid")
	// ErrTokenExpired is returned when the token's expiry has passed.
	ErrTokenExpired = errors.New("token expired")
)

// TokenType tags a session token as access or refresh.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// SessionClaims is the wire shape of a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"typ"`
	Fresh     bool      `json:"fresh"`
}

// TokenClaims is the decoded result of a successful Verify.
type TokenClaims struct {
	UserID    int64
	Type      TokenType
	Fresh     bool
	JTI       string
	ExpiresAt time.Time
}

// TokenProvider issues and verifies HMAC-signed (HS256) session tokens.
// Each token carries the user id (sub), a type tag, a freshness flag, and a
// unique jti used as the revocation key.
type TokenProvider struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenProvider returns a TokenProvider signing with the given process-wide secret.
// accessTTL applies to access tokens, refreshTTL to refresh tokens.
func NewTokenProvider(secret []byte, issuer string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		secret:     secret,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Issue produces a signed token for userID with a freshly generated jti.
// The freshness flag is only meaningful on access tokens; it is forced false
// on refresh tokens so a refresh-derived chain can never mint a fresh token.
// Returns the token string, its jti, and expiration time.
func (p *TokenProvider) Issue(userID int64, typ TokenType, fresh bool) (token, jti string, expiresAt time.Time, err error) {
	jti, err = generateJTI()
	if err != nil {
		return "", "", time.Time{}, err
	}
	ttl := p.accessTTL
	if typ == TokenTypeRefresh {
		ttl = p.refreshTTL
		fresh = false
	}
	now := time.Now().UTC()
	expiresAt = now.Add(ttl)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TokenType: typ,
		Fresh:     fresh,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = t.SignedString(p.secret)
	return token, jti, expiresAt, err
}

// Verify parses and validates a token (signature, expiry, issuer) and returns
// its decoded claims. Expiry is checked at second granularity with no clock
// skew grace window. Fails with ErrTokenMalformed, ErrTokenSignature, or
// ErrTokenExpired.
func (p *TokenProvider) Verify(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenSignature
		}
		return p.secret, nil
	}, jwt.WithIssuer(p.issuer), jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrTokenSignature
		}
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenSignature
	}
	if claims.TokenType != TokenTypeAccess && claims.TokenType != TokenTypeRefresh {
		return nil, ErrTokenMalformed
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrTokenMalformed
	}
	return &TokenClaims{
		UserID:    userID,
		Type:      claims.TokenType,
		Fresh:     claims.Fresh,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
