package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	domaintoken "github.com/NordCoder/Authgate/internal/domain/token"
	"github.com/NordCoder/Authgate/internal/domain/user"
	"github.com/NordCoder/Authgate/internal/obs"
	pg "github.com/NordCoder/Authgate/internal/repository/postgres"
	"github.com/NordCoder/Authgate/internal/token"
)

var (
	// ErrInvalidCredentials deliberately covers both unknown-user and
	// wrong-password so the login surface cannot be used for username
	// enumeration.
	ErrInvalidCredentials = errors.New("incorrect username or password")

	// ErrRevocationUnavailable means the blacklist could not be consulted.
	// Callers must fail closed: an unverifiable token is a rejected token.
	ErrRevocationUnavailable = errors.New("revocation store unavailable")
)

type Reason string

const (
	ReasonMissingToken    Reason = "missing_token"
	ReasonInvalidToken    Reason = "invalid_token"
	ReasonWrongTokenType  Reason = "wrong_token_type"
	ReasonRevoked         Reason = "revoked"
	ReasonUnknownSubject  Reason = "unknown_subject"
	ReasonInactiveAccount Reason = "inactive_account"
)

// UnauthorizedError preserves the failure kind for logs and metrics while
// the transport layer collapses it into one generic client message.
type UnauthorizedError struct {
	Reason Reason
	Err    error
}

func (e *UnauthorizedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unauthorized (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("unauthorized (%s)", e.Reason)
}

func (e *UnauthorizedError) Unwrap() error { return e.Err }

func reject(reason Reason, cause error) *UnauthorizedError {
	obs.TokenRejections.WithLabelValues(string(reason)).Inc()
	return &UnauthorizedError{Reason: reason, Err: cause}
}

type TokenPair struct {
	Access  *token.Issued
	Refresh *token.Issued
}

// Usecase binds the credential store, the token machinery and the
// revocation store into the login/refresh/logout/resolve flows.
type Usecase struct {
	users   user.Repo
	revoked domaintoken.RevocationStore
	codec   *token.Codec
	issuer  *token.Issuer
}

func NewUsecase(users user.Repo, revoked domaintoken.RevocationStore, codec *token.Codec, issuer *token.Issuer) *Usecase {
	return &Usecase{users: users, revoked: revoked, codec: codec, issuer: issuer}
}

// Login verifies the credentials and mints a fresh access/refresh pair.
func (u *Usecase) Login(ctx context.Context, username, password string) (*user.User, *TokenPair, error) {
	rec, err := u.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			obs.Logins.WithLabelValues("failure").Inc()
			return nil, nil, ErrInvalidCredentials
		}
		// A store outage is not a credential failure; let the transport
		// answer 500 instead of hinting "wrong password".
		return nil, nil, fmt.Errorf("credential lookup: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		obs.Logins.WithLabelValues("failure").Inc()
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := u.issuePair(rec.Username)
	if err != nil {
		return nil, nil, err
	}
	obs.Logins.WithLabelValues("success").Inc()
	return rec, pair, nil
}

func (u *Usecase) issuePair(subject string) (*TokenPair, error) {
	access, err := u.issuer.Access(subject)
	if err != nil {
		return nil, fmt.Errorf("issue access: %w", err)
	}
	refresh, err := u.issuer.Refresh(subject)
	if err != nil {
		return nil, fmt.Errorf("issue refresh: %w", err)
	}
	obs.TokensIssued.WithLabelValues(string(domaintoken.KindAccess)).Inc()
	obs.TokensIssued.WithLabelValues(string(domaintoken.KindRefresh)).Inc()
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated and the blacklist is not consulted;
// logout only revokes access tokens under the current policy.
func (u *Usecase) Refresh(ctx context.Context, raw string) (*token.Issued, error) {
	if raw == "" {
		return nil, reject(ReasonMissingToken, nil)
	}
	claims, err := u.codec.Decode(raw)
	if err != nil {
		return nil, reject(ReasonInvalidToken, err)
	}
	if claims.Kind != domaintoken.KindRefresh {
		return nil, reject(ReasonWrongTokenType, nil)
	}
	access, err := u.issuer.Access(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("issue access: %w", err)
	}
	obs.TokensIssued.WithLabelValues(string(domaintoken.KindAccess)).Inc()
	return access, nil
}

// Logout records the access token's jti in the blacklist and reports any
// storage failure to the caller; a logout that did not durably revoke the
// token must not look successful.
func (u *Usecase) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return reject(ReasonMissingToken, nil)
	}
	claims, err := u.codec.Decode(raw)
	if err != nil {
		return reject(ReasonInvalidToken, err)
	}
	if claims.Kind != domaintoken.KindAccess {
		return reject(ReasonWrongTokenType, nil)
	}
	rec := &domaintoken.RevocationRecord{
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := u.revoked.Revoke(ctx, rec); err != nil {
		return fmt.Errorf("record revocation: %w", err)
	}
	obs.Revocations.Inc()
	return nil
}

// Resolve turns a bearer token into the authenticated principal. The check
// order is fixed: signature/expiry first (cheap rejection, no I/O for
// forged tokens), then kind, then the blacklist, then the principal lookup
// and its active flag.
func (u *Usecase) Resolve(ctx context.Context, raw string) (*user.User, error) {
	if raw == "" {
		return nil, reject(ReasonMissingToken, nil)
	}
	claims, err := u.codec.Decode(raw)
	if err != nil {
		return nil, reject(ReasonInvalidToken, err)
	}
	if claims.Kind != domaintoken.KindAccess {
		return nil, reject(ReasonWrongTokenType, nil)
	}

	revoked, err := u.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRevocationUnavailable, err)
	}
	if revoked {
		return nil, reject(ReasonRevoked, nil)
	}

	rec, err := u.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			return nil, reject(ReasonUnknownSubject, nil)
		}
		return nil, fmt.Errorf("principal lookup: %w", err)
	}
	if !rec.IsActive {
		return nil, reject(ReasonInactiveAccount, nil)
	}
	return rec, nil
}
