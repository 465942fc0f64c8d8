package client

import (
	"crypto"

	"github.com/ccnx/ccn-go/ccnb"
)

// simpleGetData is the state behind Get's closure.
type simpleGetData struct {
	closure Closure
	result  []byte
	pco     *ccnb.ParsedContentObject
	comps   []int
	done    bool
}

func handleSimpleIncomingContent(c *Closure, kind UpcallKind, info *UpcallInfo) UpcallRes {
	md := c.Data.(*simpleGetData)
	switch kind {
	case UpcallFinal:
		return UpcallResultOk
	case UpcallInterestTimedOut:
		if c.IntData != 0 {
			return UpcallResultReexpress
		}
		return UpcallResultOk
	case UpcallContent, UpcallContentUnverified:
	default:
		return UpcallResultErr
	}
	md.result = append([]byte{}, info.ContentMsg[:info.Content.E]...)
	pco := *info.Content
	md.pco = &pco
	md.comps = append([]int{}, info.ContentComps...)
	md.done = true
	info.H.SetRunTimeout(0)
	return UpcallResultOk
}

// Get fetches a single matching ContentObject, blocking until one
// arrives or timeoutMs passes. When h is nil, or when the call is
// made from inside an upcall of a running handle, a fresh shadow
// handle is connected for the duration; it borrows the caller's key
// cache so verification state is shared, and gives it back before
// being destroyed. Returns the encoded object, its parse, and its
// name component index.
func Get(h *Handle, name []byte, prefixComps int, templ []byte, timeoutMs int) ([]byte, *ccnb.ParsedContentObject, []int, error) {
	origH := h
	var savedKeys *hashTable[crypto.PublicKey]
	if h == nil || h.running != 0 {
		if origH != nil {
			h = NewHandleWithConfig(origH.cfg)
		} else {
			h = NewHandle()
		}
		if origH != nil {
			// Dad, can I borrow the keys?
			savedKeys = h.keys
			h.keys = origH.keys
		}
		if _, err := h.Connect(""); err != nil {
			if savedKeys != nil {
				h.keys = savedKeys
			}
			h.Destroy()
			return nil, nil, nil, err
		}
	}
	md := &simpleGetData{}
	md.closure = Closure{F: handleSimpleIncomingContent, Data: md, IntData: 1}

	err := h.ExpressInterest(name, prefixComps, &md.closure, templ)
	if err == nil {
		err = h.Run(timeoutMs)
	}
	md.closure.IntData = 0

	if h != origH {
		if savedKeys != nil {
			h.keys = savedKeys
		}
		h.Destroy()
	}
	if err != nil {
		return nil, nil, nil, err
	}
	if !md.done {
		return nil, nil, nil, ErrTimeout
	}
	return md.result, md.pco, md.comps, nil
}
