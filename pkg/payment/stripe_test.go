package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnconfiguredProviderRefusesCalls(t *testing.T) {
	p := NewStripeProvider("", "usd")
	ctx := context.Background()

	_, err := p.CreateSession(ctx, CreateParams{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = p.RetrieveSession(ctx, "cs_test_123")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
