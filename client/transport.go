package client

import (
	"fmt"

	"github.com/ccnx/ccn-go/ccnb"
	"github.com/ccnx/ccn-go/log"
	"golang.org/x/sys/unix"
)

// inputHeadroom is how much buffer space each read reserves.
const inputHeadroom = 8800

// maxOutboundBuffer caps the queued outbound bytes.
const maxOutboundBuffer = 1 << 20

// Connect opens the non-blocking stream socket to the local
// forwarding daemon. An empty name selects the configured or
// default socket path. Returns the connection fd.
func (h *Handle) Connect(name string) (int, error) {
	h.err = nil
	if h.sock != -1 {
		return -1, h.noteErr(fmt.Errorf("%w: already connected", ErrInvalid))
	}
	path := h.cfg.socketName(name)
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, h.noteErr(fmt.Errorf("%w: socket: %v", ErrIO, err))
	}
	if err := unix.Connect(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return -1, h.noteErr(fmt.Errorf("%w: connect %s: %v", ErrIO, path, err))
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, h.noteErr(fmt.Errorf("%w: set nonblocking: %v", ErrIO, err))
	}
	h.sock = fd
	log.Debug(h, "connected", "path", path, "fd", fd)
	return fd, nil
}

// ConnectionFd returns the socket descriptor, or -1 when
// disconnected, for callers integrating the handle into their own
// poll loop.
func (h *Handle) ConnectionFd() int {
	return h.sock
}

// Disconnect closes the socket and drops the I/O buffers.
func (h *Handle) Disconnect() error {
	h.inbuf = nil
	h.decoder.Reset()
	h.outbuf = nil
	h.outbufIndex = 0
	if h.sock == -1 {
		return nil
	}
	fd := h.sock
	h.sock = -1
	if err := unix.Close(fd); err != nil {
		return h.noteErr(fmt.Errorf("%w: close: %v", ErrIO, err))
	}
	return nil
}

// OutputIsPending reports whether queued outbound bytes remain.
func (h *Handle) OutputIsPending() bool {
	return h.outbufIndex < len(h.outbuf)
}

// GrabBufferedOutput detaches and returns the queued outbound bytes,
// provided none of them have been partially written yet. Used by
// daemons embedding the client engine.
func (h *Handle) GrabBufferedOutput() []byte {
	if h.OutputIsPending() && h.outbufIndex == 0 {
		out := h.outbuf
		h.outbuf = nil
		return out
	}
	return nil
}

// Put sends one encoded message. The bytes must form exactly one
// well-formed top-level element. What cannot be written immediately
// is queued; queued bytes drain from the event loop.
func (h *Handle) Put(p []byte) error {
	_, err := h.put(p)
	return err
}

func (h *Handle) put(p []byte) (pending bool, err error) {
	if len(p) == 0 {
		return false, h.noteErr(fmt.Errorf("%w: empty message", ErrInvalid))
	}
	var dd ccnb.SkeletonDecoder
	if n := dd.Decode(p); n != len(p) || dd.State != 0 {
		return false, h.noteErr(fmt.Errorf("%w: message is not exactly one element", ErrInvalid))
	}
	if h.tap != nil {
		if _, werr := h.tap.Write(p); werr != nil {
			h.noteErr(fmt.Errorf("%w: tap write: %v", ErrIO, werr))
			h.tap.Close()
			h.tap = nil
		}
	}
	if h.OutputIsPending() {
		if len(h.outbuf)+len(p) > maxOutboundBuffer {
			return true, h.noteErr(fmt.Errorf("%w: outbound buffer full", ErrInvalid))
		}
		h.outbuf = append(h.outbuf, p...)
		return h.pushout()
	}
	n := 0
	if h.sock != -1 {
		var werr error
		n, werr = unix.Write(h.sock, p)
		if werr != nil {
			if werr != unix.EAGAIN {
				return false, h.noteErr(fmt.Errorf("%w: write: %v", ErrIO, werr))
			}
			n = 0
		}
	}
	if n == len(p) {
		return false, nil
	}
	h.outbuf = append(h.outbuf[:0], p[n:]...)
	h.outbufIndex = 0
	return true, nil
}

// pushout drains the outbound queue as far as the socket allows.
// pending is true while bytes remain, so the loop can keep POLLOUT
// armed.
func (h *Handle) pushout() (pending bool, err error) {
	if !h.OutputIsPending() {
		return false, nil
	}
	if h.sock < 0 {
		return true, nil
	}
	n, werr := unix.Write(h.sock, h.outbuf[h.outbufIndex:])
	if werr != nil {
		if werr == unix.EAGAIN {
			return true, nil
		}
		return true, h.noteErr(fmt.Errorf("%w: write: %v", ErrIO, werr))
	}
	h.outbufIndex += n
	if h.outbufIndex == len(h.outbuf) {
		h.outbuf = h.outbuf[:0]
		h.outbufIndex = 0
		return false, nil
	}
	return true, nil
}

// processInput reads what the socket has, carves complete frames
// with the persistent skeleton decoder, dispatches each, and
// compacts any trailing partial frame to the front of the buffer.
func (h *Handle) processInput() error {
	if len(h.inbuf) == 0 {
		h.decoder.Reset()
	}
	start := len(h.inbuf)
	h.inbuf = append(h.inbuf, make([]byte, inputHeadroom)...)
	n, err := unix.Read(h.sock, h.inbuf[start:])
	if n < 0 {
		n = 0
	}
	h.inbuf = h.inbuf[:start+n]
	if err != nil {
		if err != unix.EAGAIN {
			return h.noteErr(fmt.Errorf("%w: read: %v", ErrIO, err))
		}
	} else if n == 0 {
		h.Disconnect()
		return h.noteErr(fmt.Errorf("%w: peer closed connection", ErrNotConnected))
	}

	msgstart := 0
	h.decoder.Decode(h.inbuf[start:])
	for h.decoder.State == 0 {
		h.dispatchMessage(h.inbuf[msgstart:h.decoder.Index])
		msgstart = h.decoder.Index
		if msgstart == len(h.inbuf) {
			h.inbuf = h.inbuf[:0]
			return nil
		}
		h.decoder.Decode(h.inbuf[h.decoder.Index:])
	}
	if h.decoder.State < 0 {
		h.Disconnect()
		return h.noteErr(fmt.Errorf("%w: garbled input stream", ErrInvalid))
	}
	if msgstart < len(h.inbuf) && msgstart > 0 {
		copy(h.inbuf, h.inbuf[msgstart:])
		h.inbuf = h.inbuf[:len(h.inbuf)-msgstart]
		h.decoder.Index -= msgstart
	}
	return nil
}
