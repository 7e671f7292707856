//go:build e2e

package authtest

import (
	"testing"
	"time"

	"bookingbot-engine/internal/domain/identity"
	"bookingbot-engine/internal/pkg/config"
	"bookingbot-engine/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// MintToken signs a tenant-scoped bearer token with the test JWT secret.
// Tokens are issued out of band in this system (there is no login
// endpoint), so tests mint them the same way an operator console would.
func MintToken(t *testing.T, cfg config.JWTConfig, tenantID uuid.UUID, role identity.Role) string {
	t.Helper()

	duration, err := time.ParseDuration(cfg.Duration)
	require.NoError(t, err, "invalid JWT duration in test config")

	token, err := jwt.NewService(cfg.Secret, duration).GenerateToken(tenantID, role)
	require.NoError(t, err, "failed to mint test token")
	return token
}
