package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
)

// Signer produces signature bits over a covered byte range.
type Signer interface {
	// Public returns the verification key.
	Public() crypto.PublicKey
	// Sign computes the signature over covered.
	Sign(covered []byte) ([]byte, error)
}

// rsaSigner signs with an RSA key, PKCS#1 v1.5 over SHA-256.
type rsaSigner struct {
	key *rsa.PrivateKey
}

// NewRsaSigner creates a signer using an RSA key.
func NewRsaSigner(key *rsa.PrivateKey) Signer {
	return &rsaSigner{key: key}
}

func (s *rsaSigner) Public() crypto.PublicKey {
	return &s.key.PublicKey
}

func (s *rsaSigner) Sign(covered []byte) ([]byte, error) {
	digest := sha256.Sum256(covered)
	return rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
}

// eccSigner signs with an ECDSA key, ASN.1 over SHA-256.
type eccSigner struct {
	key *ecdsa.PrivateKey
}

// NewEccSigner creates a signer using an ECDSA key.
func NewEccSigner(key *ecdsa.PrivateKey) Signer {
	return &eccSigner{key: key}
}

func (s *eccSigner) Public() crypto.PublicKey {
	return &s.key.PublicKey
}

func (s *eccSigner) Sign(covered []byte) ([]byte, error) {
	digest := sha256.Sum256(covered)
	return ecdsa.SignASN1(rand.Reader, s.key, digest[:])
}
