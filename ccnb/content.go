package ccnb

import (
	"bytes"
	"crypto/sha256"
)

// ContentType is the 3-byte content type code point carried in
// SignedInfo.
type ContentType uint32

const (
	ContentTypeData ContentType = 0x0C04C0
	ContentTypeEncr ContentType = 0x10D091
	ContentTypeGone ContentType = 0x18E344
	ContentTypeKey  ContentType = 0x28463F
	ContentTypeLink ContentType = 0x2C834A
	ContentTypeNack ContentType = 0x34008A
)

// ParsedContentObject records the offsets of a ContentObject's
// regions within the message it was parsed from. Element grammar:
//
//	ContentObject( Signature( SignatureBits ),
//	               Name( Component* ),
//	               SignedInfo( PublisherPublicKeyDigest,
//	                           Type?, KeyLocator? ),
//	               Content )
//
// The signature covers [SignedB, SignedE): Name through Content.
// KeyCertKeyName spans whichever of Key, Certificate or KeyName sits
// inside the locator; KeyNameName and KeyNamePub are the sub-ranges
// of a KeyName locator, empty otherwise.
type ParsedContentObject struct {
	Type ContentType

	SigBitsB, SigBitsE             int
	SignedB, SignedE               int
	NameB, NameE                   int
	PubDigestB, PubDigestE         int
	KeyLocatorB, KeyLocatorE       int
	KeyCertKeyNameB, KeyCertKeyNameE int
	KeyNameNameB, KeyNameNameE     int
	KeyNamePubB, KeyNamePubE       int
	ContentB, ContentE             int
	E                              int

	digest []byte
}

// ParseContentObject parses one ContentObject element at the start
// of msg. comps is handled as in ParseInterest.
func ParseContentObject(msg []byte, comps *[]int) (*ParsedContentObject, error) {
	d := NewBufDecoder(msg)
	pco := &ParsedContentObject{Type: ContentTypeData}
	if comps != nil {
		*comps = (*comps)[:0]
	}
	if !d.MatchDTag(DTagContentObject) {
		return nil, ErrFormat{What: "not a ContentObject", At: 0}
	}
	d.Advance()

	if !d.MatchDTag(DTagSignature) {
		return nil, ErrFormat{What: "missing Signature", At: d.Pos()}
	}
	d.Advance()
	pco.SigBitsB = d.Pos()
	if !d.MatchDTag(DTagSignatureBits) {
		return nil, ErrFormat{What: "missing SignatureBits", At: d.Pos()}
	}
	d.SkipElement()
	pco.SigBitsE = d.Pos()
	d.CheckClose()

	pco.SignedB = d.Pos()
	pco.NameB = d.Pos()
	if _, err := parseNameInto(d, comps); err != nil {
		return nil, err
	}
	pco.NameE = d.Pos()

	if !d.MatchDTag(DTagSignedInfo) {
		return nil, ErrFormat{What: "missing SignedInfo", At: d.Pos()}
	}
	d.Advance()
	pco.PubDigestB = d.Pos()
	if !d.MatchDTag(DTagPublisherPublicKeyDigest) {
		return nil, ErrFormat{What: "missing PublisherPublicKeyDigest", At: d.Pos()}
	}
	d.SkipElement()
	pco.PubDigestE = d.Pos()

	if d.MatchDTag(DTagType) {
		d.Advance()
		blob, ok := d.MatchBlob()
		if !ok || len(blob) != 3 {
			return nil, ErrFormat{What: "bad Type", At: d.Pos()}
		}
		pco.Type = ContentType(blob[0])<<16 | ContentType(blob[1])<<8 | ContentType(blob[2])
		d.Advance()
		d.CheckClose()
	}

	pco.KeyLocatorB = d.Pos()
	pco.KeyLocatorE = d.Pos()
	if d.MatchDTag(DTagKeyLocator) {
		d.Advance()
		pco.KeyCertKeyNameB = d.Pos()
		switch {
		case d.MatchDTag(DTagKey), d.MatchDTag(DTagCertificate):
			d.SkipElement()
			pco.KeyCertKeyNameE = d.Pos()
		case d.MatchDTag(DTagKeyName):
			d.Advance()
			pco.KeyNameNameB = d.Pos()
			if _, err := parseNameInto(d, nil); err != nil {
				return nil, err
			}
			pco.KeyNameNameE = d.Pos()
			pco.KeyNamePubB = d.Pos()
			pco.KeyNamePubE = d.Pos()
			if d.MatchDTag(DTagPublisherPublicKeyDigest) {
				d.SkipElement()
				pco.KeyNamePubE = d.Pos()
			}
			d.CheckClose()
			pco.KeyCertKeyNameE = d.Pos()
		default:
			return nil, ErrFormat{What: "bad KeyLocator", At: d.Pos()}
		}
		d.CheckClose()
		pco.KeyLocatorE = d.Pos()
	}
	d.CheckClose()

	pco.ContentB = d.Pos()
	if !d.MatchDTag(DTagContent) {
		return nil, ErrFormat{What: "missing Content", At: d.Pos()}
	}
	d.SkipElement()
	pco.ContentE = d.Pos()
	pco.SignedE = d.Pos()

	d.CheckClose()
	if !d.Ok() {
		return nil, ErrFormat{What: "bad ContentObject", At: d.Pos()}
	}
	pco.E = d.Pos()
	return pco, nil
}

// Digest returns the SHA-256 of the whole encoded object, computing
// it on first use.
func (pco *ParsedContentObject) Digest(msg []byte) []byte {
	if pco.digest == nil {
		sum := sha256.Sum256(msg[:pco.E])
		pco.digest = sum[:]
	}
	return pco.digest
}

// PublisherKeyDigest extracts the publisher's key digest blob.
func (pco *ParsedContentObject) PublisherKeyDigest(msg []byte) ([]byte, error) {
	return RefTaggedBlob(DTagPublisherPublicKeyDigest, msg, pco.PubDigestB, pco.PubDigestE)
}

// ContentValue extracts the payload blob.
func (pco *ParsedContentObject) ContentValue(msg []byte) ([]byte, error) {
	return RefTaggedBlob(DTagContent, msg, pco.ContentB, pco.ContentE)
}

// SignatureBits extracts the signature blob.
func (pco *ParsedContentObject) SignatureBits(msg []byte) ([]byte, error) {
	return RefTaggedBlob(DTagSignatureBits, msg, pco.SigBitsB, pco.SigBitsE)
}

// GetContentType validates the object's type against the known
// taxonomy; ok is false for any other code point.
func GetContentType(pco *ParsedContentObject) (ContentType, bool) {
	switch pco.Type {
	case ContentTypeData, ContentTypeEncr, ContentTypeGone,
		ContentTypeKey, ContentTypeLink, ContentTypeNack:
		return pco.Type, true
	}
	return 0, false
}

// ContentMatchesInterest decides whether a ContentObject satisfies
// an Interest: the first PrefixComps components of the Interest name
// must equal the corresponding ContentObject name components, with
// the component one past the end of the content name standing for
// the implicit digest; and a publisher digest in the Interest, if
// any, must equal the object's. ccomps and icomps are the component
// index buffers produced by the respective parses.
func ContentMatchesInterest(content []byte, pco *ParsedContentObject, ccomps []int,
	interest []byte, pi *ParsedInterest, icomps []int) bool {
	if len(ccomps) == 0 || len(icomps) == 0 {
		return false
	}
	ccount := len(ccomps) - 1
	k := pi.PrefixComps
	if k > len(icomps)-1 {
		return false
	}
	for i := 0; i < k; i++ {
		ic := interest[icomps[i]:icomps[i+1]]
		switch {
		case i < ccount:
			cc := content[ccomps[i]:ccomps[i+1]]
			if !bytes.Equal(ic, cc) {
				return false
			}
		case i == ccount && i == k-1:
			if !bytes.Equal(ic, AppendNameComponent(nil, pco.Digest(content))) {
				return false
			}
		default:
			return false
		}
	}
	if pi.PublisherB < pi.PublisherE {
		want, err := RefTaggedBlob(DTagPublisherPublicKeyDigest, interest, pi.PublisherB, pi.PublisherE)
		if err != nil {
			return false
		}
		have, err := pco.PublisherKeyDigest(content)
		if err != nil || !bytes.Equal(want, have) {
			return false
		}
	}
	return true
}
