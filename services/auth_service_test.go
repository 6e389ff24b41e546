package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewAuthService(nil, nil, nil, "test-secret")

	token, err := svc.GenerateToken("ext-123")
	require.NoError(t, err)

	sub, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ext-123", sub)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(nil, nil, nil, "test-secret")

	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestValidateTokenRejectsForeignKey(t *testing.T) {
	issuer := NewAuthService(nil, nil, nil, "secret-a")
	verifier := NewAuthService(nil, nil, nil, "secret-b")

	token, err := issuer.GenerateToken("ext-123")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGenerateOTPFourDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := generateOTP()
		require.Len(t, code, 4)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9')
		}
	}
}
