package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domaintoken "github.com/NordCoder/Authgate/internal/domain/token"
)

var (
	ErrMalformed = errors.New("token malformed")
	ErrSignature = errors.New("token signature invalid")
	ErrExpired   = errors.New("token expired")
)

// Claims is the payload carried by every issued token. The json field names
// keep wire compatibility with clients that already parse the old payloads.
type Claims struct {
	Kind domaintoken.Kind `json:"type"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens under a single process-wide secret and a
// pinned HMAC algorithm. It is stateless and safe for concurrent use.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
	parser *jwt.Parser
}

func NewCodec(secret []byte, algorithm string, now func() time.Time) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty signing secret")
	}
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not symmetric", algorithm)
	}
	if now == nil {
		now = time.Now
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithTimeFunc(now),
		jwt.WithExpirationRequired(),
	)
	return &Codec{secret: secret, method: method, parser: parser}, nil
}

func (c *Codec) Encode(claims Claims) (string, error) {
	s, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Decode verifies the signature and then the registered claims; a forged
// token fails on the signature even when it is also expired. No claim is
// trusted unless the signature verified.
func (c *Codec) Decode(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := c.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, ErrSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	default:
		return nil, ErrMalformed
	}
}

// NewJTI returns a fresh 256-bit random token identifier.
func NewJTI() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
