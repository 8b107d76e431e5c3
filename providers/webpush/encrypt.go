package webpush

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// RFC 8291 fixes the record size at a single record; 4096 leaves room for
// the 16 byte tag, the delimiter and the 86 byte content header.
const (
	recordSize   = 4096
	maxPlaintext = recordSize - 103
)

var errPayloadTooLarge = errors.New("push payload exceeds the single-record limit")

// encryptPayload seals the payload for one subscription per RFC 8291
// (aes128gcm content encoding). p256dh and auth are the URL-safe base64 keys
// the browser produced at subscribe time.
func encryptPayload(p256dh, auth string, plaintext []byte) ([]byte, error) {
	if len(plaintext) > maxPlaintext {
		return nil, errPayloadTooLarge
	}

	rawClientPublic, err := base64.RawURLEncoding.DecodeString(p256dh)
	if err != nil {
		return nil, err
	}

	authSecret, err := base64.RawURLEncoding.DecodeString(auth)
	if err != nil {
		return nil, err
	}

	clientPublic, err := ecdh.P256().NewPublicKey(rawClientPublic)
	if err != nil {
		return nil, err
	}

	serverKey, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	serverPublic := serverKey.PublicKey().Bytes()

	sharedSecret, err := serverKey.ECDH(clientPublic)
	if err != nil {
		return nil, err
	}

	// IKM = HKDF(auth_secret, ecdh_secret, "WebPush: info" || 0 || ua_public || as_public)
	keyInfo := append([]byte("WebPush: info\x00"), rawClientPublic...)
	keyInfo = append(keyInfo, serverPublic...)
	ikm := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, sharedSecret, authSecret, keyInfo), ikm); err != nil {
		return nil, err
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	contentKey := make([]byte, 16)
	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, salt, []byte("Content-Encoding: aes128gcm\x00")), contentKey); err != nil {
		return nil, err
	}

	nonce := make([]byte, 12)
	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, salt, []byte("Content-Encoding: nonce\x00")), nonce); err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(contentKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	// Single record: plaintext, then the last-record delimiter.
	record := append(append([]byte{}, plaintext...), 0x02)
	sealed := gcm.Seal(nil, nonce, record, nil)

	// Content header: salt, record size, key id length, server public key.
	body := make([]byte, 0, 16+4+1+len(serverPublic)+len(sealed))
	body = append(body, salt...)
	body = binary.BigEndian.AppendUint32(body, recordSize)
	body = append(body, byte(len(serverPublic)))
	body = append(body, serverPublic...)
	body = append(body, sealed...)

	return body, nil
}
