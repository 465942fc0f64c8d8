package client

import (
	"github.com/ccnx/ccn-go/ccnb"
	"github.com/ccnx/ccn-go/security"
)

// dispatchMessage routes one complete inbound frame through the
// registered upcalls. Interests walk the filter registry longest
// prefix first; ContentObjects walk the interest registry the same
// way, gated through key lookup and signature verification.
// Handlers run on the loop thread and may re-enter registration
// calls, so the running depth is raised for the duration.
func (h *Handle) dispatchMessage(msg []byte) {
	h.running++
	defer func() { h.running-- }()

	info := &UpcallInfo{H: h}
	comps := h.obtainComps()
	defer func() { h.releaseComps(comps) }()

	if pi, err := ccnb.ParseInterest(msg, &comps); err == nil {
		// This message is an Interest.
		info.Interest = pi
		info.InterestComps = comps
		info.InterestMsg = msg
		kind := UpcallInterest
		if len(comps) > 0 {
			keystart := comps[0]
			for i := len(comps) - 1; i >= 0; i-- {
				e := h.interestFilters.lookup(msg[keystart:comps[i]])
				if e == nil {
					continue
				}
				info.MatchedComps = i
				ures := e.val.action.F(e.val.action, kind, info)
				if ures == UpcallResultInterestConsumed {
					kind = UpcallConsumedInterest
				}
			}
		}
		return
	}

	// This message should be a ContentObject.
	var ccomps []int
	pco, err := ccnb.ParseContentObject(msg, &ccomps)
	if err != nil {
		return
	}
	info.Content = pco
	info.ContentComps = ccomps
	info.ContentMsg = msg
	if len(ccomps) == 0 {
		return
	}
	keystart := ccomps[0]
	for i := len(ccomps) - 1; i >= 0; i-- {
		e := h.interestsByPrefix.lookup(msg[keystart:ccomps[i]])
		if e == nil {
			continue
		}
		for interest := e.val.list; interest != nil; interest = interest.next {
			if interest.magic != interestMagic {
				gripe(interest)
			}
			if interest.target <= 0 || interest.outstanding <= 0 {
				continue
			}
			pi, perr := ccnb.ParseInterest(interest.interestMsg, &comps)
			if perr != nil {
				continue
			}
			if !ccnb.ContentMatchesInterest(msg, pco, ccomps, interest.interestMsg, pi, comps) {
				continue
			}
			if t, ok := ccnb.GetContentType(pco); ok && t == ccnb.ContentTypeKey {
				h.cacheKey(msg, pco)
			}
			var kind UpcallKind
			pub, res := h.locateKey(msg, pco)
			if res == keyFound {
				good, _ := security.VerifySignature(msg, pco, pub)
				if good {
					kind = UpcallContent
				} else {
					kind = UpcallContentBad
				}
			} else {
				kind = UpcallContentUnverified
			}
			interest.outstanding--
			info.Interest = pi
			info.InterestComps = comps
			info.InterestMsg = interest.interestMsg
			info.MatchedComps = i
			ures := interest.action.F(interest.action, kind, info)
			if interest.magic != interestMagic {
				gripe(interest)
			}
			switch {
			case ures == UpcallResultReexpress:
				h.refreshInterest(interest)
			case ures == UpcallResultVerify && kind == UpcallContentUnverified:
				h.initiateKeyFetch(msg, pco, interest)
			default:
				interest.target = 0
				interest.interestMsg = nil
				h.replaceHandler(&interest.action, nil)
			}
		}
	}
}
