package client

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// SetRunTimeout changes the running loop's timeout, in
// milliseconds, and returns the previous value. Handlers most often
// call it with zero to hand control back to the client after the
// current iteration.
func (h *Handle) SetRunTimeout(timeout int) int {
	prev := h.timeout
	h.timeout = timeout
	return prev
}

// processScheduledOperations refreshes the clock, ages every
// expressed interest, revives the ones whose wanted key has
// arrived, and garbage-collects retired state. It returns the
// number of microseconds until the handle next needs attention.
// While output is queued nothing ages; the pending bytes have to
// drain first.
func (h *Handle) processScheduledOperations() int64 {
	h.refreshUs = 5 * interestLifetimeMicros
	h.now = h.timer.Now()
	if h.OutputIsPending() {
		return h.refreshUs
	}
	h.running++
	// The filter sweep is reserved for registration refresh; there
	// is nothing to age in a filter yet.
	needClean := false
	for _, e := range h.interestsByPrefix.entries() {
		entry := e.val
		checkInterests(entry.list)
		if entry.list == nil {
			needClean = true
			continue
		}
		for ie := entry.list; ie != nil; ie = ie.next {
			h.checkPubArrival(ie)
			if ie.target != 0 {
				h.ageInterest(ie)
			}
			if ie.target == 0 && ie.wantedPub == nil {
				h.replaceHandler(&ie.action, nil)
				ie.interestMsg = nil
				needClean = true
			}
		}
	}
	if needClean {
		h.cleanAllInterests()
	}
	h.running--
	return h.refreshUs
}

// Run drives the event loop: scheduled operations, then a poll on
// the socket, then whatever I/O is ready. A negative timeout runs
// until an error or until a handler clears the timeout; zero makes
// one pass. Run refuses to start from inside an upcall.
func (h *Handle) Run(timeout int) error {
	if h.running != 0 {
		return h.noteErr(fmt.Errorf("%w: run called from an upcall", ErrBusy))
	}
	var start time.Time
	h.timeout = timeout
	for {
		if h.sock == -1 {
			if h.err != nil {
				return h.err
			}
			return h.noteErr(ErrNotConnected)
		}
		microsec := h.processScheduledOperations()
		timeout = h.timeout
		if start.IsZero() {
			start = h.now
		} else if timeout >= 0 {
			if h.now.Sub(start).Milliseconds() > int64(timeout) {
				return nil
			}
		}
		events := int16(unix.POLLIN)
		if h.OutputIsPending() {
			events |= unix.POLLOUT
		}
		millisec := microsec / 1000
		if timeout >= 0 && int64(timeout) < millisec {
			millisec = int64(timeout)
		}
		pfd := []unix.PollFd{{Fd: int32(h.sock), Events: events}}
		n, perr := unix.Poll(pfd, int(millisec))
		if perr != nil && perr != unix.EINTR {
			return h.noteErr(fmt.Errorf("%w: poll: %v", ErrIO, perr))
		}
		if n > 0 {
			h.pushout()
			h.processInput()
		}
		if errors.Is(h.err, ErrNotConnected) {
			h.Disconnect()
		}
		if h.timeout == 0 {
			break
		}
	}
	if h.running != 0 {
		panic("run exited with nonzero depth")
	}
	return nil
}
