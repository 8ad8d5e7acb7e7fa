package services

import (
	"github.com/lopataa/schoolshop/config"
	"github.com/lopataa/schoolshop/pkg/auth"
)

// AuthService authenticates the admin surface. There is a single admin
// identity; the credential is either a bcrypt hash (preferred) or the
// legacy shared token, whichever is configured.
type AuthService struct{}

func NewAuthService() *AuthService {
	return &AuthService{}
}

// Login verifies the admin password and issues a short-lived JWT.
func (s *AuthService) Login(password string) (string, error) {
	if !s.verify(password) {
		return "", ErrUnauthorized
	}
	return auth.GenerateAdminToken()
}

func (s *AuthService) verify(password string) bool {
	if hash := config.AdminPasswordHash(); hash != "" {
		return auth.CheckPassword(hash, password)
	}
	return auth.ConstantTimeEquals(password, config.AdminToken())
}
