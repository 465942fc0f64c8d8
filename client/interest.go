package client

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ccnx/ccn-go/ccnb"
	"github.com/ccnx/ccn-go/log"
)

// checkNamebuf validates an encoded Name element and returns the
// byte offset of the end of the prefix holding prefixComps
// components, or -1. prefixComps < 0 takes the whole name as the
// prefix. With omitPossibleDigest, a trailing 36-byte component at
// the very end of the buffer is treated as an implicit digest and
// excluded.
func (h *Handle) checkNamebuf(name []byte, prefixComps int, omitPossibleDigest bool) int {
	if len(name) < 2 {
		return -1
	}
	d := ccnb.NewBufDecoder(name)
	i := 0
	ans, prevAns := 0, 0
	if d.MatchDTag(ccnb.DTagName) {
		d.Advance()
		ans = d.Pos()
		prevAns = ans
		for d.MatchDTag(ccnb.DTagComponent) {
			d.Advance()
			if _, ok := d.MatchBlob(); ok {
				d.Advance()
			}
			d.CheckClose()
			i++
			if prefixComps < 0 || i <= prefixComps {
				prevAns = ans
				ans = d.Pos()
			}
		}
		d.CheckClose()
	} else {
		return -1
	}
	if !d.Ok() || ans < prefixComps {
		return -1
	}
	if omitPossibleDigest && ans == prevAns+36 && ans == len(name)-1 {
		return prevAns
	}
	return ans
}

// constructInterest builds the encoded Interest: the name, the
// component count when requested, and the template's publisher and
// trailing regions spliced in. Returns nil when the template does
// not parse.
func (h *Handle) constructInterest(name []byte, prefixComps int, templ []byte) []byte {
	c := ccnb.AppendDTag(nil, ccnb.DTagInterest)
	c = append(c, name...)
	if prefixComps >= 0 {
		c = ccnb.AppendTaggedUData(c, ccnb.DTagNameComponentCount, strconv.Itoa(prefixComps))
	}
	if templ != nil {
		pi, err := ccnb.ParseInterest(templ, nil)
		if err != nil {
			h.noteErr(fmt.Errorf("%w: bad interest template: %v", ErrInvalid, err))
			return nil
		}
		c = append(c, templ[pi.ComponentCountE:pi.NonceB]...)
		if pi.OtherE > pi.OtherB {
			c = append(c, templ[pi.OtherB:pi.OtherE]...)
		}
	}
	return ccnb.AppendCloser(c)
}

// ExpressInterest registers and sends an Interest for name. The
// handler is shared with the registry until the interest retires,
// at which point it receives FINAL on the last reference. A
// template Interest, when given, contributes its publisher, scope
// and lifetime regions.
func (h *Handle) ExpressInterest(name []byte, prefixComps int, action *Closure, templ []byte) error {
	prefixend := h.checkNamebuf(name, prefixComps, true)
	if prefixend < 0 {
		return h.noteErr(fmt.Errorf("%w: bad interest name", ErrInvalid))
	}
	// Only the prefix components form the registry key, to make
	// prefix lookups cheap at dispatch.
	e, isNew := h.interestsByPrefix.seek(name[1:prefixend])
	if isNew {
		e.val = &interestsByPrefix{}
	}
	interest := &expressedInterest{magic: interestMagic}
	interest.interestMsg = h.constructInterest(name, prefixComps, templ)
	if len(interest.interestMsg) == 0 {
		return h.noteErr(fmt.Errorf("%w: interest construction failed", ErrInvalid))
	}
	h.replaceHandler(&interest.action, action)
	interest.target = 1
	interest.next = e.val.list
	e.val.list = interest
	h.refreshInterest(interest)
	return nil
}

// refreshInterest sends the stored Interest bytes again if fewer
// than the target number are outstanding.
func (h *Handle) refreshInterest(i *expressedInterest) {
	if i.magic != interestMagic {
		gripe(i)
		return
	}
	if i.outstanding < i.target {
		if _, err := h.put(i.interestMsg); err == nil {
			i.outstanding++
			if h.now.IsZero() {
				h.now = h.timer.Now()
			}
			i.lasttime = h.now
		}
	}
}

// ageInterest retires or refreshes one interest according to its
// age. An interest older than its lifetime counts as expired; the
// handler is told and decides whether to re-express. The handle's
// next-wakeup estimate shrinks to the earliest expiry seen.
func (h *Handle) ageInterest(i *expressedInterest) {
	if i.magic != interestMagic {
		gripe(i)
	}
	firstcall := i.lasttime.IsZero()
	if i.lasttime.Add(30 * time.Second).Before(h.now) {
		// cap the age; anything this old is expired regardless
		i.outstanding = 0
		i.lasttime = h.now.Add(-30 * time.Second)
	}
	delta := h.now.Sub(i.lasttime).Microseconds()
	if delta >= interestLifetimeMicros {
		i.outstanding = 0
		delta = 0
	} else if delta < 0 {
		delta = 0
	}
	if interestLifetimeMicros-delta < h.refreshUs {
		h.refreshUs = interestLifetimeMicros - delta
	}
	i.lasttime = h.now.Add(-time.Duration(delta) * time.Microsecond)
	if i.target > 0 && i.outstanding == 0 {
		ures := UpcallResultReexpress
		if !firstcall {
			comps := h.obtainComps()
			pi, err := ccnb.ParseInterest(i.interestMsg, &comps)
			if err == nil {
				info := &UpcallInfo{
					H:             h,
					Interest:      pi,
					InterestComps: comps,
					InterestMsg:   i.interestMsg,
				}
				ures = i.action.F(i.action, UpcallInterestTimedOut, info)
				if i.magic != interestMagic {
					gripe(i)
				}
			} else {
				log.Error(h, "expressed interest has been corrupted", "err", err)
				ures = UpcallResultErr
			}
			h.releaseComps(comps)
		}
		if ures == UpcallResultReexpress {
			h.refreshInterest(i)
		} else {
			i.target = 0
		}
	}
}
