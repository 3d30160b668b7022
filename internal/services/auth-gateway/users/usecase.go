package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/NordCoder/Authgate/internal/domain/user"
	pg "github.com/NordCoder/Authgate/internal/repository/postgres"
)

var (
	ErrUsernameTaken = errors.New("username already registered")
	ErrWeakPassword  = errors.New("password is too weak")
)

type Usecase struct {
	users user.Repo
}

func NewUsecase(users user.Repo) *Usecase {
	return &Usecase{users: users}
}

func (u *Usecase) Register(ctx context.Context, name, username, email, password string) (*user.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	rec := &user.User{
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := u.users.Create(ctx, rec); err != nil {
		if errors.Is(err, pg.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return rec, nil
}
