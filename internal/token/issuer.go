package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domaintoken "github.com/NordCoder/Authgate/internal/domain/token"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Issued is one freshly minted token together with the claims the caller
// needs without re-decoding it.
type Issued struct {
	Token     string
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ExpiresIn int64 // seconds
}

type IssuerConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

// Issuer mints access/refresh token pairs. Every call generates a new jti;
// tokens are never renewed in place.
type Issuer struct {
	codec      *Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(codec *Codec, cfg IssuerConfig) *Issuer {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Issuer{
		codec:      codec,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
	}
}

func (i *Issuer) Access(subject string) (*Issued, error) {
	return i.issue(subject, domaintoken.KindAccess, i.accessTTL)
}

func (i *Issuer) Refresh(subject string) (*Issued, error) {
	return i.issue(subject, domaintoken.KindRefresh, i.refreshTTL)
}

func (i *Issuer) issue(subject string, kind domaintoken.Kind, ttl time.Duration) (*Issued, error) {
	jti, err := NewJTI()
	if err != nil {
		return nil, fmt.Errorf("gen jti: %w", err)
	}
	now := i.now()
	exp := now.Add(ttl)
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	raw, err := i.codec.Encode(claims)
	if err != nil {
		return nil, fmt.Errorf("issue %s token: %w", kind, err)
	}
	return &Issued{
		Token:     raw,
		JTI:       jti,
		IssuedAt:  now,
		ExpiresAt: exp,
		ExpiresIn: int64(ttl / time.Second),
	}, nil
}
