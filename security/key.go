// Package security covers the key handling the client core needs:
// decoding and digesting public keys, verifying ContentObject
// signatures, and the signing side used by the tools and tests to
// produce verifiable objects.
package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"

	"github.com/ccnx/ccn-go/ccnb"
)

// DecodePublicKey parses a DER-encoded (PKIX) public key, the form
// keys travel in on the wire.
func DecodePublicKey(der []byte) (crypto.PublicKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	return key, nil
}

// EncodePublicKey renders a public key in its wire (PKIX DER) form.
func EncodePublicKey(pub crypto.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("encode public key: %w", err)
	}
	return der, nil
}

// KeyDigest is the SHA-256 of a key's wire form, the index used by
// the key cache and the PublisherPublicKeyDigest field.
func KeyDigest(der []byte) []byte {
	sum := sha256.Sum256(der)
	return sum[:]
}

// PublicKeyDigest is KeyDigest over the encoded form of pub.
func PublicKeyDigest(pub crypto.PublicKey) ([]byte, error) {
	der, err := EncodePublicKey(pub)
	if err != nil {
		return nil, err
	}
	return KeyDigest(der), nil
}

// VerifySignature checks the object's signature over its signed
// portion with the given public key. It returns false for a well
// formed but wrong signature, and an error only when the object or
// key is unusable.
func VerifySignature(msg []byte, pco *ccnb.ParsedContentObject, pub crypto.PublicKey) (bool, error) {
	sig, err := pco.SignatureBits(msg)
	if err != nil {
		return false, err
	}
	digest := sha256.Sum256(msg[pco.SignedB:pco.SignedE])
	switch key := pub.(type) {
	case *rsa.PublicKey:
		return rsa.VerifyPKCS1v15(key, crypto.SHA256, digest[:], sig) == nil, nil
	case *ecdsa.PublicKey:
		return ecdsa.VerifyASN1(key, digest[:], sig), nil
	default:
		return false, fmt.Errorf("unsupported public key type %T", pub)
	}
}
