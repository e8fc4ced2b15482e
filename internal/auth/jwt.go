package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is the fixed issuer embedded in every token this service signs.
const Issuer = "beemstream"

// Leeway is the clock-skew tolerance applied when checking token time bounds.
const Leeway = 2 * time.Second

// notBeforeGrace is the offset between issuance and the not-before claim.
const notBeforeGrace = 2 * time.Second

// ErrInvalidToken is returned for every decode failure: bad signature, wrong
// issuer, expired, not yet valid, or malformed. Callers must not surface the
// sub-reason to the client.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the signed session payload. The same structure serves access and
// refresh tokens; only the requested duration differs.
type Claims struct {
	jwt.RegisteredClaims
}

// Subject returns the claim subject (the username).
func (c *Claims) Subject() string {
	return c.RegisteredClaims.Subject
}

// Codec builds and parses signed session claims.
type Codec struct {
	secret []byte
}

// NewCodec creates a token codec signing with the given symmetric secret.
// An empty secret is a programmer error and is rejected outright.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("token codec: secret must not be empty")
	}
	return &Codec{secret: []byte(secret)}, nil
}

// Issue builds claims for the subject with exp = now + duration and
// nbf = now + a small grace, then signs them with HMAC-SHA-512. Each token
// carries a random jti, so two tokens issued for the same subject in the
// same second still differ on the wire.
func (c *Codec) Issue(subject string, duration time.Duration) (*Claims, string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(notBeforeGrace)),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}

	return claims, signed, nil
}

// Decode verifies signature, issuer, expiry, and not-before in one pass.
// Any failure is reported as ErrInvalidToken.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithLeeway(Leeway),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// RemainingValidity returns exp - now. The result may be negative under
// clock skew; callers clamp to zero before using it as a cookie max-age.
func (c *Codec) RemainingValidity(claims *Claims) time.Duration {
	if claims.ExpiresAt == nil {
		return 0
	}
	return time.Until(claims.ExpiresAt.Time)
}
