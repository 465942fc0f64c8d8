package client

import (
	"crypto"
	"fmt"

	"github.com/ccnx/ccn-go/ccnb"
	"github.com/ccnx/ccn-go/security"
)

// keyLookupResult classifies locateKey outcomes.
type keyLookupResult int

const (
	keyFound keyLookupResult = iota
	keyFetchNeeded
	keyUnusable
)

// cacheKey inserts a KEY ContentObject's public key into the key
// cache, indexed by the digest of the whole object and by the digest
// of the key itself, which is what publisher digests carry. Non-KEY
// objects are ignored.
func (h *Handle) cacheKey(msg []byte, pco *ccnb.ParsedContentObject) error {
	if t, ok := ccnb.GetContentType(pco); !ok || t != ccnb.ContentTypeKey {
		return nil
	}
	digest := pco.Digest(msg)
	e, isNew := h.keys.seek(digest)
	if !isNew {
		return nil
	}
	value, err := pco.ContentValue(msg)
	if err != nil {
		h.keys.remove(digest)
		return h.noteErr(fmt.Errorf("%w: key object without content: %v", ErrInvalid, err))
	}
	pub, err := security.DecodePublicKey(value)
	if err != nil {
		h.keys.remove(digest)
		return h.noteErr(fmt.Errorf("%w: undecodable key object: %v", ErrInvalid, err))
	}
	e.val = pub
	if ke, isNew := h.keys.seek(security.KeyDigest(value)); isNew {
		ke.val = pub
	}
	return nil
}

// locateKey tries to produce the public key needed to verify a
// ContentObject. The key may be cached under the publisher digest,
// or embedded in the object's locator; a KeyName locator means it
// has to be fetched. Certificate locators are not implemented and
// fall through to unusable, as in the original engine.
func (h *Handle) locateKey(msg []byte, pco *ccnb.ParsedContentObject) (crypto.PublicKey, keyLookupResult) {
	pkeyid, err := pco.PublisherKeyDigest(msg)
	if err != nil {
		h.noteErr(fmt.Errorf("%w: no publisher key digest: %v", ErrInvalid, err))
		return nil, keyUnusable
	}
	if e := h.keys.lookup(pkeyid); e != nil {
		return e.val, keyFound
	}
	if pco.KeyLocatorB == pco.KeyLocatorE {
		return nil, keyUnusable
	}
	d := ccnb.NewBufDecoder(msg[pco.KeyCertKeyNameB:pco.KeyCertKeyNameE])
	switch {
	case d.MatchDTag(ccnb.DTagKeyName):
		return nil, keyFetchNeeded
	case d.MatchDTag(ccnb.DTagKey):
		dkey, err := ccnb.RefTaggedBlob(ccnb.DTagKey, msg, pco.KeyCertKeyNameB, pco.KeyCertKeyNameE)
		if err != nil {
			h.noteErr(fmt.Errorf("%w: bad embedded key: %v", ErrInvalid, err))
			return nil, keyUnusable
		}
		pub, err := security.DecodePublicKey(dkey)
		if err != nil {
			h.noteErr(fmt.Errorf("%w: undecodable embedded key: %v", ErrInvalid, err))
			return nil, keyUnusable
		}
		e, isNew := h.keys.seek(security.KeyDigest(dkey))
		if isNew {
			e.val = pub
		} else {
			// the digest lookup above would have found it
			h.noteErr(fmt.Errorf("%w: embedded key already cached", ErrInternal))
		}
		return pub, keyFound
	case d.MatchDTag(ccnb.DTagCertificate):
		h.noteErr(fmt.Errorf("%w: certificate locators are not implemented", ErrInvalid))
	}
	return nil, keyUnusable
}

// initiateKeyFetch suspends the triggering interest until its
// publisher's key arrives and expresses a fresh Interest on the
// locator's KeyName. Without a KeyName there is nothing to ask,
// though the key may still arrive piggy-backed on other traffic.
func (h *Handle) initiateKeyFetch(msg []byte, pco *ccnb.ParsedContentObject, trigger *expressedInterest) error {
	if trigger != nil {
		if pkeyid, err := pco.PublisherKeyDigest(msg); err == nil {
			trigger.wantedPub = append(trigger.wantedPub[:0], pkeyid...)
		}
		trigger.target = 0
	}
	if pco.KeyNameNameE <= pco.KeyNameNameB {
		return fmt.Errorf("%w: key locator carries no KeyName", ErrInvalid)
	}
	keyName := msg[pco.KeyNameNameB:pco.KeyNameNameE]
	var templ []byte
	if pco.KeyNamePubB < pco.KeyNamePubE {
		templ = ccnb.AppendDTag(nil, ccnb.DTagInterest)
		templ = ccnb.AppendName(templ)
		templ = append(templ, msg[pco.KeyNamePubB:pco.KeyNamePubE]...)
		templ = ccnb.AppendCloser(templ)
	}
	return h.ExpressInterest(keyName, -1, &Closure{F: handleKey}, templ)
}

// handleKey is the upcall behind key-fetch interests. It has
// nothing to do on arrival: the dispatcher caches keys as they flow
// by. Timeouts are not retried.
func handleKey(c *Closure, kind UpcallKind, info *UpcallInfo) UpcallRes {
	switch kind {
	case UpcallFinal, UpcallInterestTimedOut, UpcallContent, UpcallContentUnverified:
		return UpcallResultOk
	default:
		return UpcallResultErr
	}
}

// checkPubArrival revives an interest that was waiting for a
// publisher key which has since been cached.
func (h *Handle) checkPubArrival(i *expressedInterest) {
	if i.wantedPub == nil {
		return
	}
	if h.keys.lookup(i.wantedPub) != nil {
		i.wantedPub = nil
		i.target = 1
		h.refreshInterest(i)
	}
}
