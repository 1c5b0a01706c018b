package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"medilinko/internal/model"
	"medilinko/internal/repository"
	"medilinko/internal/utils"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// TokenIssuer signs session tokens
type TokenIssuer interface {
	Sign(recordID, role string) (string, error)
}

// AuthService provides authentication related services
type AuthService interface {
	Login(ctx context.Context, email, password string) (*model.User, string, error)
}

type authService struct {
	userRepo   repository.UserRepository
	sessions   TokenIssuer
	adminEmail string
}

// NewAuthService creates a new AuthService. The user whose email equals
// adminEmail receives the admin role in its token.
func NewAuthService(userRepo repository.UserRepository, sessions TokenIssuer, adminEmail string) AuthService {
	return &authService{
		userRepo:   userRepo,
		sessions:   sessions,
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
	}
}

// Login authenticates a user and returns a JWT token
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.TrimSpace(email)
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil || user.PasswordHash == "" { // records without a password cannot log in
		return nil, "", ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	role := user.EffectiveRole()
	if s.adminEmail != "" && strings.ToLower(email) == s.adminEmail {
		role = model.RoleAdmin
		log.Printf("INFO: User %s logged in as ADMIN via ADMIN_EMAIL.", user.ID)
	}

	token, err := s.sessions.Sign(user.ID, role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, nil
}
