package security_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/ccnx/ccn-go/ccnb"
	"github.com/ccnx/ccn-go/security"
	"github.com/stretchr/testify/require"
)

func signers(t *testing.T) map[string]security.Signer {
	eccKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return map[string]security.Signer{
		"ecdsa": security.NewEccSigner(eccKey),
		"rsa":   security.NewRsaSigner(rsaKey),
	}
}

func TestSignAndVerifyContentObject(t *testing.T) {
	name, err := ccnb.NameFromURI("/a/x")
	require.NoError(t, err)

	for kind, signer := range signers(t) {
		t.Run(kind, func(t *testing.T) {
			msg, err := security.SignContentObject(name, []byte("payload"), signer, security.ContentOptions{})
			require.NoError(t, err)

			var comps []int
			pco, err := ccnb.ParseContentObject(msg, &comps)
			require.NoError(t, err)
			require.Len(t, comps, 3)

			ok, err := security.VerifySignature(msg, pco, signer.Public())
			require.NoError(t, err)
			require.True(t, ok)

			// tampering with the payload must break the signature
			bad := append([]byte{}, msg...)
			bad[pco.SignedE-2] ^= 0xff
			pcoBad, err := ccnb.ParseContentObject(bad, nil)
			require.NoError(t, err)
			ok, err = security.VerifySignature(bad, pcoBad, signer.Public())
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestPublisherDigestMatchesKeyDigest(t *testing.T) {
	name, err := ccnb.NameFromURI("/a")
	require.NoError(t, err)
	for _, signer := range signers(t) {
		msg, err := security.SignContentObject(name, nil, signer, security.ContentOptions{})
		require.NoError(t, err)
		pco, err := ccnb.ParseContentObject(msg, nil)
		require.NoError(t, err)

		want, err := security.PublicKeyDigest(signer.Public())
		require.NoError(t, err)
		got, err := pco.PublisherKeyDigest(msg)
		require.NoError(t, err)
		require.Equal(t, want, got)
		require.Len(t, got, 32)
	}
}

func TestSignKeyObject(t *testing.T) {
	name, err := ccnb.NameFromURI("/keys/k")
	require.NoError(t, err)
	signer := signers(t)["ecdsa"]

	msg, err := security.SignKeyObject(name, signer)
	require.NoError(t, err)
	pco, err := ccnb.ParseContentObject(msg, nil)
	require.NoError(t, err)

	typ, ok := ccnb.GetContentType(pco)
	require.True(t, ok)
	require.Equal(t, ccnb.ContentTypeKey, typ)

	der, err := pco.ContentValue(msg)
	require.NoError(t, err)
	pub, err := security.DecodePublicKey(der)
	require.NoError(t, err)
	ok, err = security.VerifySignature(msg, pco, pub)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEmbeddedKeyLocator(t *testing.T) {
	name, err := ccnb.NameFromURI("/a/x")
	require.NoError(t, err)
	signer := signers(t)["ecdsa"]

	msg, err := security.SignContentObject(name, []byte("p"), signer,
		security.ContentOptions{EmbedKey: true})
	require.NoError(t, err)
	pco, err := ccnb.ParseContentObject(msg, nil)
	require.NoError(t, err)
	require.Greater(t, pco.KeyLocatorE, pco.KeyLocatorB)

	der, err := ccnb.RefTaggedBlob(ccnb.DTagKey, msg, pco.KeyCertKeyNameB, pco.KeyCertKeyNameE)
	require.NoError(t, err)
	want, err := security.EncodePublicKey(signer.Public())
	require.NoError(t, err)
	require.Equal(t, want, der)
}

func TestKeyNameLocator(t *testing.T) {
	name, err := ccnb.NameFromURI("/a/x")
	require.NoError(t, err)
	keyName, err := ccnb.NameFromURI("/keys/k")
	require.NoError(t, err)
	signer := signers(t)["ecdsa"]
	pub, err := security.PublicKeyDigest(signer.Public())
	require.NoError(t, err)

	msg, err := security.SignContentObject(name, []byte("p"), signer,
		security.ContentOptions{KeyName: keyName, KeyNamePub: pub})
	require.NoError(t, err)
	pco, err := ccnb.ParseContentObject(msg, nil)
	require.NoError(t, err)
	require.Equal(t, keyName, msg[pco.KeyNameNameB:pco.KeyNameNameE])

	got, err := ccnb.RefTaggedBlob(ccnb.DTagPublisherPublicKeyDigest, msg, pco.KeyNamePubB, pco.KeyNamePubE)
	require.NoError(t, err)
	require.Equal(t, pub, got)
}
