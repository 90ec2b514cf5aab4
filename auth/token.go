package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"greenmag/domain"
	"greenmag/errs"
)

// DefaultTTL is the validity window of an issued credential.
const DefaultTTL = 7 * 24 * time.Hour

// claims is the credential payload. Role is fixed at issuance.
type claims struct {
	jwt.RegisteredClaims
	UserID int         `json:"userId"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
}

// Tokens issues and verifies signed bearer credentials.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens returns a Tokens signing with secret. A zero ttl means DefaultTTL.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tokens{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a credential for user that expires after the configured ttl.
func (t *Tokens) Issue(user *domain.User) (string, error) {
	now := t.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", errs.Internal(fmt.Errorf("sign token: %w", err))
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns the identity it
// carries. Every failure is reported as EUNAUTHORIZED; Verify has no side effects.
func (t *Tokens) Verify(token string) (*domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errs.Errorf(errs.EUNAUTHORIZED, "A credential is required.")
	}

	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(tok *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}
	if c.UserID <= 0 || !c.Role.Valid() {
		return nil, errs.Errorf(errs.EUNAUTHORIZED, "The credential is invalid.")
	}
	return &domain.Identity{
		UserID: c.UserID,
		Email:  c.Email,
		Role:   c.Role,
	}, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return errs.Errorf(errs.EUNAUTHORIZED, "The credential has expired.")
	}
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		return errs.Errorf(errs.EUNAUTHORIZED, "The credential signature is invalid.")
	}
	return errs.Errorf(errs.EUNAUTHORIZED, "The credential is invalid.")
}

// BearerToken extracts the credential from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
