package main

import (
	"crypto/ecdh"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

// Prints a fresh VAPID keypair and JWT RSA keypair in the env layout the
// server expects.
func main() {
	vapidKey, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}

	fmt.Println("VAPID_PUBLIC_KEY=" + base64.RawURLEncoding.EncodeToString(vapidKey.PublicKey().Bytes()))
	fmt.Println("VAPID_PRIVATE_KEY=" + base64.RawURLEncoding.EncodeToString(vapidKey.Bytes()))

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}

	privatePem := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(rsaKey),
	})
	publicDer, err := x509.MarshalPKIXPublicKey(&rsaKey.PublicKey)
	if err != nil {
		panic(err)
	}
	publicPem := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicDer,
	})

	fmt.Println("JWT_PRIVATE_KEY=" + base64.URLEncoding.EncodeToString(privatePem))
	fmt.Println("JWT_PUBLIC_KEY=" + base64.URLEncoding.EncodeToString(publicPem))
}
