package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	domaintoken "github.com/NordCoder/Authgate/internal/domain/token"
	"github.com/NordCoder/Authgate/internal/domain/user"
	pg "github.com/NordCoder/Authgate/internal/repository/postgres"
)

type domainRecord = domaintoken.RevocationRecord

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]*user.User // by username
	err    error                 // forced error for lookups
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*user.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.Username]; ok {
		return pg.ErrConflict
	}
	f.nextID++
	u.ID = f.nextID
	cp := *u
	f.users[u.Username] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pg.ErrNotFound
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[username]
	if !ok {
		return nil, pg.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) add(t *testing.T, username, password string, active bool) *user.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	u := &user.User{
		Name:         username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		IsActive:     active,
	}
	if err := f.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

type fakeRevocations struct {
	mu        sync.Mutex
	revoked   map[string]time.Time // jti -> expires_at
	revokeErr error
	lookupErr error
	lookups   int
}

func newFakeRevocations() *fakeRevocations {
	return &fakeRevocations{revoked: make(map[string]time.Time)}
}

func (f *fakeRevocations) Revoke(_ context.Context, rec *domainRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked[rec.JTI] = rec.ExpiresAt
	return nil
}

func (f *fakeRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.lookupErr != nil {
		return false, f.lookupErr
	}
	_, ok := f.revoked[jti]
	return ok, nil
}

func (f *fakeRevocations) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for jti, exp := range f.revoked {
		if !exp.After(now) {
			delete(f.revoked, jti)
			n++
		}
	}
	return n, nil
}
