package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims identifies the user a session token was issued to.
type SessionClaims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 session tokens with a shared secret.
type Issuer struct {
	secret    []byte
	expiresIn time.Duration
	now       func() time.Time
}

func NewIssuer(secret string, expiresIn time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), expiresIn: expiresIn, now: time.Now}
}

// CreateToken signs a token for userID carrying iat and exp.
func (i *Issuer) CreateToken(userID string) (string, error) {
	now := i.now()
	claims := SessionClaims{
		ID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiresIn)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// ParseToken verifies signature and expiry. Errors wrap the jwt sentinel errors
// so the error normalizer can tell an expired token from an invalid one.
func (i *Issuer) ParseToken(tokenString string) (*SessionClaims, error) {
	claims := new(SessionClaims)
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: id", jwt.ErrTokenRequiredClaimMissing)
	}
	if claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: iat", jwt.ErrTokenRequiredClaimMissing)
	}
	return claims, nil
}
