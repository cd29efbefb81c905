package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACKeyRoundTrip(t *testing.T) {
	t.Setenv("API_MASTER_SECRET", "test-secret")

	key := GenerateHMACKey("team-rota")
	userID, err := VerifyHMACKey(key)
	require.NoError(t, err)
	assert.Equal(t, "team-rota", userID)
}

func TestHMACKeyTamperDetected(t *testing.T) {
	t.Setenv("API_MASTER_SECRET", "test-secret")

	key := GenerateHMACKey("team-rota")
	signature := key[len("team-rota."):]
	_, err := VerifyHMACKey("other-team." + signature)
	assert.Error(t, err)

	_, err = VerifyHMACKey("no-signature")
	assert.Error(t, err)
}
