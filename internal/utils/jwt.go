package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for stored token values
	"encoding/hex"  // hex encoding
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Token kind values carried in the JWT "type" claim. They match the
// token row types persisted by the repository layer.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// SignedToken is a signed JWT together with its expiration instant.
// Access tokens travel in the Authorization header; refresh tokens are
// returned to the client once and stored server-side only as a SHA-256
// hash.
type SignedToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// TokenClaims is the decoded, validated content of an access or refresh
// token.
type TokenClaims struct {
	UserID uint64
	Kind   string
}

var errInvalidToken = errors.New("invalid token")

// NewAccessToken signs an HS256 JWT of kind "access" for a user. Claims:
// subject (sub), type, expiration (exp) and issued at (iat).
func NewAccessToken(secret string, userID uint64, ttlMin int) (SignedToken, error) {
	return newSigned(secret, userID, KindAccess, time.Duration(ttlMin)*time.Minute)
}

// NewRefreshToken signs an HS256 JWT of kind "refresh" for a user.
func NewRefreshToken(secret string, userID uint64, ttlDays int) (SignedToken, error) {
	return newSigned(secret, userID, KindRefresh, time.Duration(ttlDays)*24*time.Hour)
}

func newSigned(secret string, userID uint64, kind string, ttl time.Duration) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  userID,
		"type": kind,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// ParseToken verifies signature and expiry of a token and returns its
// claims. Tokens signed with anything but HMAC are rejected.
func ParseToken(secret, raw string) (TokenClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return TokenClaims{}, errInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, errInvalidToken
	}
	sub, ok := claims["sub"].(float64)
	if !ok || sub < 0 {
		return TokenClaims{}, errInvalidToken
	}
	kind, _ := claims["type"].(string)
	return TokenClaims{UserID: uint64(sub), Kind: kind}, nil
}

// NewOpaqueToken returns a cryptographically secure random token (raw)
// and its expiration. Used for activation and password reset links where
// the value only needs to match a stored hash, not carry claims.
func NewOpaqueToken(ttl time.Duration) (SignedToken, error) {
	raw, err := randomHex(32) // 32 bytes -> 64 hex chars
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: raw, Exp: time.Now().UTC().Add(ttl)}, nil
}

// HashTokenRaw returns the SHA-256 hash of a raw token as a hex string.
// Storing only the hash keeps a leaked database from yielding usable
// tokens.
func HashTokenRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
