package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lopataa/schoolshop/config"
	"github.com/lopataa/schoolshop/pkg/auth"
)

func TestLoginIssuesValidToken(t *testing.T) {
	svc := NewAuthService()

	token, err := svc.Login(config.AdminToken())
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc := NewAuthService()

	_, err := svc.Login("definitely-wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Login("")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
