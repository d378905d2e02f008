// Package auth issues and verifies access tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

var (
	// ErrTokenExpired is returned for a well-signed token past its exp claim.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenInvalid covers every other verification failure.
	ErrTokenInvalid = errors.New("invalid token")
)

// Issuer signs HS256 access tokens whose subject is the user id.
type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewIssuer returns an Issuer for the shared secret.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("empty signing secret")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &Issuer{key: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed compact token for userID.
func (i *Issuer) Issue(userID int64) (string, error) {
	now := i.now()
	tok, err := jwt.NewBuilder().
		Subject(strconv.FormatInt(userID, 10)).
		IssuedAt(now).
		Expiration(now.Add(i.ttl)).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), i.key))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

// Verify checks signature and expiry and returns the user id.
func (i *Issuer) Verify(token string) (int64, error) {
	tok, err := jwt.ParseString(token,
		jwt.WithKey(jwa.HS256(), i.key),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(i.now)),
	)
	if err != nil {
		if errors.Is(err, jwt.TokenExpiredError()) {
			return 0, ErrTokenExpired
		}
		return 0, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	sub, ok := tok.Subject()
	if !ok {
		return 0, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: subject %q", ErrTokenInvalid, sub)
	}
	return id, nil
}
