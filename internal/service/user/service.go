package user

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/grupobacar/helpdesk/internal/apperr"
	"github.com/grupobacar/helpdesk/internal/model"
	"github.com/grupobacar/helpdesk/pkg/auth"
)

// Directory looks up users for credential checks.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type Service struct {
	users     Directory
	jwtSecret string
}

func NewService(users Directory, jwtSecret string) *Service {
	return &Service{
		users:     users,
		jwtSecret: jwtSecret,
	}
}

// Login checks credentials and returns a signed token embedding the
// user id and role. Invalid email and invalid password are reported
// identically.
func (s *Service) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	if email == "" || password == "" {
		return "", nil, apperr.Validation("email and password are required")
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", nil, apperr.ErrAuth
		}
		return "", nil, apperr.Persistence(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, apperr.ErrAuth
	}

	token, err := auth.GenerateToken(u.ID, u.Role, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	return token, u, nil
}
