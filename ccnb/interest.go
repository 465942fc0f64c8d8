package ccnb

import (
	"strconv"

	"github.com/ccnx/ccn-go/types/optional"
)

// ParsedInterest records the offsets of an Interest's regions within
// the message it was parsed from. Element grammar:
//
//	Interest( Name( Component* ),
//	          NameComponentCount?, PublisherPublicKeyDigest?,
//	          Scope?, Nonce?, InterestLifetime? )
//
// Offsets are half-open byte ranges. NonceB is where a Nonce element
// starts or would start, so that [ComponentCountE, NonceB) always
// spans the publisher and scope region, and [OtherB, OtherE) spans
// the lifetime region.
type ParsedInterest struct {
	PrefixComps int

	NameB, NameE           int
	ComponentCountE        int
	PublisherB, PublisherE int
	Scope                  optional.Optional[uint64]
	NonceB, NonceE         int
	OtherB, OtherE         int
	E                      int
}

// ParseInterest parses one Interest element at the start of msg.
// If comps is non-nil it is filled with the offset of each Component
// token plus one final entry for the boundary after the last
// component; a name of n components yields n+1 entries.
func ParseInterest(msg []byte, comps *[]int) (*ParsedInterest, error) {
	d := NewBufDecoder(msg)
	pi := &ParsedInterest{PrefixComps: -1}
	if comps != nil {
		*comps = (*comps)[:0]
	}
	if !d.MatchDTag(DTagInterest) {
		return nil, ErrFormat{What: "not an Interest", At: 0}
	}
	d.Advance()

	pi.NameB = d.Pos()
	n, err := parseNameInto(d, comps)
	if err != nil {
		return nil, err
	}
	pi.NameE = d.Pos()

	pi.ComponentCountE = d.Pos()
	if d.MatchDTag(DTagNameComponentCount) {
		d.Advance()
		s, ok := d.MatchUData()
		if !ok {
			return nil, ErrFormat{What: "bad NameComponentCount", At: d.Pos()}
		}
		v, cerr := strconv.Atoi(s)
		if cerr != nil || v < 0 {
			return nil, ErrFormat{What: "bad NameComponentCount", At: d.Pos()}
		}
		pi.PrefixComps = v
		d.Advance()
		d.CheckClose()
		pi.ComponentCountE = d.Pos()
	}
	if pi.PrefixComps < 0 || pi.PrefixComps > n {
		pi.PrefixComps = n
	}

	pi.PublisherB = d.Pos()
	pi.PublisherE = d.Pos()
	if d.MatchDTag(DTagPublisherPublicKeyDigest) {
		d.SkipElement()
		pi.PublisherE = d.Pos()
	}

	if d.MatchDTag(DTagScope) {
		d.Advance()
		if s, ok := d.MatchUData(); ok {
			if v, cerr := strconv.ParseUint(s, 10, 64); cerr == nil {
				pi.Scope = optional.Some(v)
			}
			d.Advance()
		}
		d.CheckClose()
	}

	pi.NonceB = d.Pos()
	pi.NonceE = d.Pos()
	if d.MatchDTag(DTagNonce) {
		d.SkipElement()
		pi.NonceE = d.Pos()
	}

	pi.OtherB = d.Pos()
	pi.OtherE = d.Pos()
	if d.MatchDTag(DTagInterestLifetime) {
		d.SkipElement()
		pi.OtherE = d.Pos()
	}

	d.CheckClose()
	if !d.Ok() {
		return nil, ErrFormat{What: "bad Interest", At: d.Pos()}
	}
	pi.E = d.Pos()
	return pi, nil
}

// parseNameInto consumes a Name element, appending component token
// offsets (absolute within the decoder's buffer) plus the trailing
// boundary to comps. Returns the component count.
func parseNameInto(d *BufDecoder, comps *[]int) (int, error) {
	if !d.MatchDTag(DTagName) {
		return 0, ErrFormat{What: "missing Name", At: d.Pos()}
	}
	d.Advance()
	n := 0
	for d.MatchDTag(DTagComponent) {
		if comps != nil {
			*comps = append(*comps, d.Pos())
		}
		d.Advance()
		if _, ok := d.MatchBlob(); ok {
			d.Advance()
		}
		d.CheckClose()
		n++
	}
	if comps != nil {
		*comps = append(*comps, d.Pos())
	}
	d.CheckClose()
	if !d.Ok() {
		return 0, ErrFormat{What: "bad Name", At: d.Pos()}
	}
	return n, nil
}
