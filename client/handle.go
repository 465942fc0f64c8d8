// Package client implements the CCN client protocol engine: a
// Handle owning one stream connection to the local forwarding
// daemon, registries of expressed Interests and served Interest
// filters, a key cache with on-demand key fetching, and a
// single-threaded event loop that drives refresh, timeout and
// dispatch. All upcalls run on the loop thread; handlers may
// re-enter the handle's registration calls but not Run.
//
// The queued outbound buffer is capped at 1 MiB; a Put that would
// exceed the cap fails rather than growing without bound.
package client

import (
	"crypto"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ccnx/ccn-go/ccnb"
	"github.com/ccnx/ccn-go/log"
)

const interestMagic = 0x7059e5f4

// interestLifetime is how long an expressed Interest stays
// outstanding before the ageing sweep takes it down.
const interestLifetime = 4 * time.Second

const interestLifetimeMicros = int64(interestLifetime / time.Microsecond)

// UpcallKind tells a handler why it is being called.
type UpcallKind int

const (
	// UpcallFinal is the last call a handler ever receives.
	UpcallFinal UpcallKind = iota
	// UpcallInterest delivers an incoming Interest to a filter.
	UpcallInterest
	// UpcallConsumedInterest delivers an Interest a prior filter
	// already consumed.
	UpcallConsumedInterest
	// UpcallContent delivers a verified ContentObject.
	UpcallContent
	// UpcallInterestTimedOut reports an expired Interest.
	UpcallInterestTimedOut
	// UpcallContentUnverified delivers content whose key is not yet
	// available.
	UpcallContentUnverified
	// UpcallContentBad delivers content that failed verification.
	UpcallContentBad
)

// UpcallRes is a handler's verdict.
type UpcallRes int

const (
	UpcallResultErr              UpcallRes = -1
	UpcallResultOk               UpcallRes = 0
	UpcallResultReexpress        UpcallRes = 1
	UpcallResultInterestConsumed UpcallRes = 2
	UpcallResultVerify           UpcallRes = 3
)

// UpcallFunc is the handler signature.
type UpcallFunc func(c *Closure, kind UpcallKind, info *UpcallInfo) UpcallRes

// Closure bundles a handler with its state. Closures are shared by
// reference count; when the last registration drops, the handler
// receives exactly one FINAL upcall.
type Closure struct {
	F       UpcallFunc
	Data    any
	IntData int

	refcount int
}

// UpcallInfo is the transient record passed to handlers. Slices
// reference buffers owned by the handle and are only valid for the
// duration of the upcall.
type UpcallInfo struct {
	H *Handle

	Interest      *ccnb.ParsedInterest
	InterestComps []int
	InterestMsg   []byte

	Content      *ccnb.ParsedContentObject
	ContentComps []int
	ContentMsg   []byte

	// MatchedComps is the number of name components that matched
	// during dispatch.
	MatchedComps int
}

// expressedInterest is one outstanding request, linked into its
// prefix bucket.
type expressedInterest struct {
	magic       uint32
	lasttime    time.Time
	action      *Closure
	interestMsg []byte
	target      int
	outstanding int
	wantedPub   []byte
	next        *expressedInterest
}

// interestsByPrefix is a prefix bucket: the interests sharing one
// registry key.
type interestsByPrefix struct {
	list *expressedInterest
}

// interestFilter is one served prefix.
type interestFilter struct {
	action *Closure
}

// Handle is the process-local client context. A Handle belongs to
// exactly one goroutine; nothing here is locked.
type Handle struct {
	cfg   Config
	timer Timer

	sock        int
	inbuf       []byte
	decoder     ccnb.SkeletonDecoder
	outbuf      []byte
	outbufIndex int

	interestsByPrefix *hashTable[*interestsByPrefix]
	interestFilters   *hashTable[*interestFilter]
	keys              *hashTable[crypto.PublicKey]

	scratchComps []int

	now       time.Time
	timeout   int
	refreshUs int64

	err     error
	errSite string

	running int
	tap     *os.File
}

// NewHandle creates a disconnected handle configured from the
// environment (CCN_DEBUG, CCN_TAP, CCN_LOCAL_PORT).
func NewHandle() *Handle {
	return NewHandleWithConfig(DefaultConfig())
}

// NewHandleWithConfig creates a disconnected handle with explicit
// settings.
func NewHandleWithConfig(cfg Config) *Handle {
	h := &Handle{
		cfg:               cfg,
		timer:             SystemTimer{},
		sock:              -1,
		interestsByPrefix: newHashTable[*interestsByPrefix](),
		interestFilters:   newHashTable[*interestFilter](),
		keys:              newHashTable[crypto.PublicKey](),
	}
	if cfg.TapPrefix != "" {
		now := time.Now()
		name := fmt.Sprintf("%s-%d-%d-%d", cfg.TapPrefix,
			os.Getpid(), now.Unix(), now.Nanosecond()/1000)
		tap, err := os.OpenFile(name, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o700)
		if err != nil {
			h.noteErr(fmt.Errorf("%w: unable to open tap file: %v", ErrIO, err))
		} else {
			h.tap = tap
			log.Info(h, "tap capture enabled", "file", name)
		}
	}
	return h
}

func (h *Handle) String() string {
	return "ccn-client"
}

// LastError returns the most recently noted error and the source
// site that noted it.
func (h *Handle) LastError() (error, string) {
	return h.err, h.errSite
}

// Perror reports the last error on standard error.
func (h *Handle) Perror(msg string) {
	fmt.Fprintf(os.Stderr, "%s[%d] - error %v: %s\n",
		h.errSite, os.Getpid(), h.err, msg)
}

// noteErr records err and its noting site on the handle.
func (h *Handle) noteErr(err error) error {
	if _, file, line, ok := runtime.Caller(1); ok {
		h.errSite = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	h.err = err
	if h.cfg.Verbose {
		log.Error(h, "error noted", "err", err, "site", h.errSite)
	}
	return err
}

// replaceHandler swaps *dst for src, adjusting reference counts and
// delivering FINAL when the old handler's count reaches zero.
func (h *Handle) replaceHandler(dst **Closure, src *Closure) {
	old := *dst
	if src == old {
		return
	}
	if src != nil {
		src.refcount++
	}
	*dst = src
	if old != nil {
		old.refcount--
		if old.refcount == 0 {
			old.F(old, UpcallFinal, &UpcallInfo{H: h})
		}
	}
}

func gripe(i *expressedInterest) {
	log.Error(nil, "BOTCH - expressed interest has bad magic value", "interest", fmt.Sprintf("%p", i))
}

// destroyInterest retires one interest, releasing its handler, and
// returns the next list element.
func (h *Handle) destroyInterest(i *expressedInterest) *expressedInterest {
	next := i.next
	if i.magic != interestMagic {
		gripe(i)
		return nil
	}
	h.replaceHandler(&i.action, nil)
	i.interestMsg = nil
	i.wantedPub = nil
	i.magic = 0
	return next
}

// checkInterests walks a bucket list verifying sentinels.
func checkInterests(list *expressedInterest) {
	for ie := list; ie != nil; ie = ie.next {
		if ie.magic != interestMagic {
			gripe(ie)
			panic("expressed interest list is corrupt")
		}
	}
}

// cleanInterestsByPrefix drops retired interests from a bucket.
func (h *Handle) cleanInterestsByPrefix(entry *interestsByPrefix) {
	checkInterests(entry.list)
	ip := &entry.list
	for ie := entry.list; ie != nil; {
		next := ie.next
		if ie.action == nil {
			h.destroyInterest(ie)
		} else {
			*ip = ie
			ip = &ie.next
		}
		ie = next
	}
	*ip = nil
	checkInterests(entry.list)
}

// cleanAllInterests sweeps retired interests and empty buckets.
func (h *Handle) cleanAllInterests() {
	for _, e := range h.interestsByPrefix.entries() {
		entry := e.val
		h.cleanInterestsByPrefix(entry)
		if entry.list == nil {
			h.interestsByPrefix.remove(e.key)
		}
	}
}

// Destroy disconnects and releases every registration: each filter
// handler and each interest handler receives FINAL, then the key
// cache is dropped.
func (h *Handle) Destroy() {
	h.Disconnect()
	for _, e := range h.interestsByPrefix.entries() {
		entry := e.val
		for entry.list != nil {
			entry.list = h.destroyInterest(entry.list)
		}
		h.interestsByPrefix.remove(e.key)
	}
	for _, e := range h.interestFilters.entries() {
		h.replaceHandler(&e.val.action, nil)
		h.interestFilters.remove(e.key)
	}
	h.keys = newHashTable[crypto.PublicKey]()
	if h.tap != nil {
		h.tap.Close()
		h.tap = nil
	}
}

// obtainComps borrows the scratch component index buffer.
func (h *Handle) obtainComps() []int {
	c := h.scratchComps
	if c == nil {
		return make([]int, 0, 8)
	}
	h.scratchComps = nil
	return c[:0]
}

// releaseComps returns the scratch buffer for reuse.
func (h *Handle) releaseComps(c []int) {
	if h.scratchComps == nil {
		h.scratchComps = c
	}
}
