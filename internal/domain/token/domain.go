package token

import (
	"time"
)

// Kind distinguishes the two classes of tokens the service issues.
// A token must only be accepted by the endpoint class matching its kind.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

func (k Kind) Valid() bool {
	return k == KindAccess || k == KindRefresh
}

// RevocationRecord marks a single issued token as revoked for the rest of
// its natural lifetime. ExpiresAt is copied from the token's exp claim so
// the record can be garbage-collected once the token would have expired
// anyway.
type RevocationRecord struct {
	ID        int64
	JTI       string
	ExpiresAt time.Time
	CreatedAt time.Time
}
