package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJWTSecretReadPerCall(t *testing.T) {
	// The key may only appear in the environment after .env is loaded in
	// main, long past package init. It must be read when used, not captured.
	t.Setenv("JWT_SECRET", "first-key")
	assert.Equal(t, []byte("first-key"), jwtSecret())

	t.Setenv("JWT_SECRET", "rotated-key")
	assert.Equal(t, []byte("rotated-key"), jwtSecret())
}
