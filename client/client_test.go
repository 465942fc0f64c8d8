package client

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/ccnx/ccn-go/ccnb"
	"github.com/ccnx/ccn-go/security"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// testHandle returns a disconnected handle on a manual clock.
func testHandle(t *testing.T) (*Handle, *DummyTimer) {
	tm := NewDummyTimer()
	h := NewHandleWithConfig(Config{})
	h.timer = tm
	t.Cleanup(h.Destroy)
	return h, tm
}

// socketpairHandle returns a handle connected to one end of a
// socketpair, plus the peer fd, on the system clock.
func socketpairHandle(t *testing.T) (*Handle, int) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	require.NoError(t, unix.SetNonblock(fds[0], true))
	h := NewHandleWithConfig(Config{})
	h.sock = fds[0]
	t.Cleanup(func() {
		h.Destroy()
		unix.Close(fds[1])
	})
	return h, fds[1]
}

func mustName(t *testing.T, uri string) []byte {
	name, err := ccnb.NameFromURI(uri)
	require.NoError(t, err)
	return name
}

func newTestSigner(t *testing.T) security.Signer {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return security.NewEccSigner(key)
}

func signerDigest(t *testing.T, signer security.Signer) []byte {
	digest, err := security.PublicKeyDigest(signer.Public())
	require.NoError(t, err)
	return digest
}

// precacheKey puts the signer's public key straight into the cache.
func precacheKey(t *testing.T, h *Handle, signer security.Signer) {
	e, isNew := h.keys.seek(signerDigest(t, signer))
	require.True(t, isNew)
	e.val = signer.Public()
}

func signContent(t *testing.T, uri string, payload []byte, signer security.Signer, opts security.ContentOptions) []byte {
	msg, err := security.SignContentObject(mustName(t, uri), payload, signer, opts)
	require.NoError(t, err)
	return msg
}

// recorder is an upcall handler remembering everything it saw.
type recorder struct {
	kinds   []UpcallKind
	matched []int
	finals  int
	// ret picks the verdict per kind; anything absent returns OK.
	ret map[UpcallKind]UpcallRes
	// hook, when set, runs on every non-FINAL upcall.
	hook func(kind UpcallKind, info *UpcallInfo)
}

func newRecorder() *recorder {
	return &recorder{ret: map[UpcallKind]UpcallRes{}}
}

func (r *recorder) upcall(c *Closure, kind UpcallKind, info *UpcallInfo) UpcallRes {
	if kind == UpcallFinal {
		r.finals++
		return UpcallResultOk
	}
	r.kinds = append(r.kinds, kind)
	r.matched = append(r.matched, info.MatchedComps)
	if r.hook != nil {
		r.hook(kind, info)
	}
	if res, ok := r.ret[kind]; ok {
		return res
	}
	return UpcallResultOk
}

func (r *recorder) closure() *Closure {
	return &Closure{F: r.upcall, Data: r}
}

// firstInterest returns the single registered interest, if any.
func firstInterest(h *Handle) *expressedInterest {
	for _, e := range h.interestsByPrefix.entries() {
		if e.val.list != nil {
			return e.val.list
		}
	}
	return nil
}
