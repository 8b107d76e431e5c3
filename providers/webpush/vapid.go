package webpush

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"errors"
	"math/big"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	errInvalidPublicKey  = errors.New("vapid public key is not an uncompressed P-256 point")
	errInvalidPrivateKey = errors.New("vapid private key is not a 32 byte P-256 scalar")
)

// VapidKeys is the server's Web Push signing identity. PublicKeyB64 is the
// exact string handed to browsers during subscription registration.
type VapidKeys struct {
	PublicKey    *ecdsa.PublicKey
	PrivateKey   *ecdsa.PrivateKey
	PublicKeyB64 string
}

// ParseVapidKeys decodes a URL-safe base64 keypair: the public key as a
// 65 byte uncompressed point, the private key as the raw 32 byte scalar.
func ParseVapidKeys(publicKey, privateKey string) (*VapidKeys, error) {
	rawPublic, err := base64.RawURLEncoding.DecodeString(publicKey)
	if err != nil {
		return nil, err
	}

	curve := elliptic.P256()
	x, y := elliptic.Unmarshal(curve, rawPublic)
	if x == nil {
		return nil, errInvalidPublicKey
	}

	rawPrivate, err := base64.RawURLEncoding.DecodeString(privateKey)
	if err != nil {
		return nil, err
	}
	if len(rawPrivate) != 32 {
		return nil, errInvalidPrivateKey
	}

	pub := &ecdsa.PublicKey{Curve: curve, X: x, Y: y}

	return &VapidKeys{
		PublicKey: pub,
		PrivateKey: &ecdsa.PrivateKey{
			PublicKey: *pub,
			D:         new(big.Int).SetBytes(rawPrivate),
		},
		PublicKeyB64: base64.RawURLEncoding.EncodeToString(rawPublic),
	}, nil
}

// Token signs a VAPID authorization token for the push service hosting the
// given endpoint. The audience is the endpoint's origin, never its full path.
func (k *VapidKeys) Token(endpoint, subject string, ttl time.Duration) (string, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	return jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"aud": parsed.Scheme + "://" + parsed.Host,
		"exp": now.Add(ttl).Unix(),
		"sub": subject,
	}).SignedString(k.PrivateKey)
}
