package security

import (
	"fmt"

	"github.com/ccnx/ccn-go/ccnb"
)

// ContentOptions selects the SignedInfo fields of a built object.
// At most one key locator form applies: EmbedKey wins over KeyName.
type ContentOptions struct {
	// Type of the object; zero means DATA.
	Type ccnb.ContentType
	// EmbedKey carries the signer's public key inline in the
	// locator.
	EmbedKey bool
	// KeyName, when non-empty, is an encoded Name element for a
	// KeyName locator.
	KeyName []byte
	// KeyNamePub optionally restricts the KeyName locator to a
	// publisher key digest.
	KeyNamePub []byte
}

// SignContentObject builds and signs a complete ContentObject.
// name is an encoded Name element; content is the payload. The
// publisher digest is derived from the signer's public key, which
// is also what verification keys are cached under.
func SignContentObject(name, content []byte, signer Signer, opts ContentOptions) ([]byte, error) {
	keyDer, err := EncodePublicKey(signer.Public())
	if err != nil {
		return nil, err
	}

	// Signed portion: Name, SignedInfo, Content.
	signed := append([]byte{}, name...)
	signed = ccnb.AppendDTag(signed, ccnb.DTagSignedInfo)
	signed = ccnb.AppendTaggedBlob(signed, ccnb.DTagPublisherPublicKeyDigest, KeyDigest(keyDer))
	if opts.Type != 0 && opts.Type != ccnb.ContentTypeData {
		t := opts.Type
		signed = ccnb.AppendTaggedBlob(signed, ccnb.DTagType,
			[]byte{byte(t >> 16), byte(t >> 8), byte(t)})
	}
	switch {
	case opts.EmbedKey:
		signed = ccnb.AppendDTag(signed, ccnb.DTagKeyLocator)
		signed = ccnb.AppendTaggedBlob(signed, ccnb.DTagKey, keyDer)
		signed = ccnb.AppendCloser(signed)
	case len(opts.KeyName) > 0:
		signed = ccnb.AppendDTag(signed, ccnb.DTagKeyLocator)
		signed = ccnb.AppendDTag(signed, ccnb.DTagKeyName)
		signed = append(signed, opts.KeyName...)
		if len(opts.KeyNamePub) > 0 {
			signed = ccnb.AppendTaggedBlob(signed, ccnb.DTagPublisherPublicKeyDigest, opts.KeyNamePub)
		}
		signed = ccnb.AppendCloser(signed)
		signed = ccnb.AppendCloser(signed)
	}
	signed = ccnb.AppendCloser(signed) // SignedInfo
	signed = ccnb.AppendTaggedBlob(signed, ccnb.DTagContent, content)

	sig, err := signer.Sign(signed)
	if err != nil {
		return nil, fmt.Errorf("sign content object: %w", err)
	}

	out := ccnb.AppendDTag(nil, ccnb.DTagContentObject)
	out = ccnb.AppendDTag(out, ccnb.DTagSignature)
	out = ccnb.AppendTaggedBlob(out, ccnb.DTagSignatureBits, sig)
	out = ccnb.AppendCloser(out)
	out = append(out, signed...)
	return ccnb.AppendCloser(out), nil
}

// SignKeyObject builds a KEY ContentObject publishing the signer's
// own public key under the given name.
func SignKeyObject(name []byte, signer Signer) ([]byte, error) {
	keyDer, err := EncodePublicKey(signer.Public())
	if err != nil {
		return nil, err
	}
	return SignContentObject(name, keyDer, signer, ContentOptions{Type: ccnb.ContentTypeKey})
}
