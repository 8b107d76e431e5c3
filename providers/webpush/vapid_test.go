package webpush

import (
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKeyPair(t *testing.T) (string, string) {
	t.Helper()

	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	return base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		base64.RawURLEncoding.EncodeToString(key.Bytes())
}

func TestParseVapidKeys(t *testing.T) {
	public, private := generateKeyPair(t)

	keys, err := ParseVapidKeys(public, private)
	require.NoError(t, err)

	assert.Equal(t, public, keys.PublicKeyB64)
	assert.NotNil(t, keys.PrivateKey)
}

func TestParseVapidKeysRejectsGarbage(t *testing.T) {
	public, private := generateKeyPair(t)

	_, err := ParseVapidKeys("AAAA", private)
	assert.Error(t, err)

	_, err = ParseVapidKeys(public, "AAAA")
	assert.Error(t, err)
}

func TestVapidTokenClaims(t *testing.T) {
	public, private := generateKeyPair(t)

	keys, err := ParseVapidKeys(public, private)
	require.NoError(t, err)

	token, err := keys.Token("https://push.example.net/send/abc123", "mailto:admin@focusboard.app", 12*time.Hour)
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		require.IsType(t, &jwt.SigningMethodECDSA{}, token.Method)
		return keys.PublicKey, nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "https://push.example.net", claims["aud"])
	assert.Equal(t, "mailto:admin@focusboard.app", claims["sub"])
	assert.Greater(t, int64(claims["exp"].(float64)), time.Now().Unix())
}
