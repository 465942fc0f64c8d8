package client

import (
	"testing"

	"github.com/ccnx/ccn-go/ccnb"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestPutWritesExactlyOneFrame(t *testing.T) {
	h, peer := socketpairHandle(t)
	msg := h.constructInterest(mustName(t, "/a"), -1, nil)
	require.NoError(t, h.Put(msg))

	buf := make([]byte, 4096)
	n, err := unix.Read(peer, buf)
	require.NoError(t, err)
	require.Equal(t, msg, buf[:n])
}

func TestPutRejectsNonFrames(t *testing.T) {
	h, _ := socketpairHandle(t)
	one := h.constructInterest(mustName(t, "/a"), -1, nil)

	require.ErrorIs(t, h.Put(nil), ErrInvalid)
	require.ErrorIs(t, h.Put([]byte{0x01, 0x02, 0x03}), ErrInvalid)
	// two concatenated frames are not one element
	require.ErrorIs(t, h.Put(append(append([]byte{}, one...), one...)), ErrInvalid)
	// a truncated frame is incomplete
	require.ErrorIs(t, h.Put(one[:len(one)-1]), ErrInvalid)
}

func TestPutQueuesWhileDisconnected(t *testing.T) {
	h, _ := testHandle(t)
	msg := h.constructInterest(mustName(t, "/a"), -1, nil)
	require.NoError(t, h.Put(msg))
	require.True(t, h.OutputIsPending())
	require.Equal(t, msg, h.GrabBufferedOutput())
	require.False(t, h.OutputIsPending())
}

func TestOutboundBufferCap(t *testing.T) {
	h, _ := testHandle(t)
	bigName := ccnb.AppendName(nil, make([]byte, maxOutboundBuffer*3/5))
	frame := h.constructInterest(bigName, -1, nil)

	require.NoError(t, h.Put(frame))
	require.True(t, h.OutputIsPending())
	require.ErrorIs(t, h.Put(frame), ErrInvalid)
}

func TestProcessInputReassemblesPartialFrames(t *testing.T) {
	h, peer := socketpairHandle(t)
	rec := newRecorder()
	require.NoError(t, h.SetInterestFilter(mustName(t, "/a"), rec.closure()))

	one := h.constructInterest(mustName(t, "/a/b"), -1, nil)
	two := h.constructInterest(mustName(t, "/a/c"), -1, nil)

	// first frame plus half of the second
	half := len(two) / 2
	_, err := unix.Write(peer, append(append([]byte{}, one...), two[:half]...))
	require.NoError(t, err)
	require.NoError(t, h.processInput())
	require.Len(t, rec.kinds, 1)

	_, err = unix.Write(peer, two[half:])
	require.NoError(t, err)
	require.NoError(t, h.processInput())
	require.Len(t, rec.kinds, 2)
}

func TestProcessInputEOFDisconnects(t *testing.T) {
	h, peer := socketpairHandle(t)
	require.NoError(t, unix.Close(peer))
	err := h.processInput()
	require.ErrorIs(t, err, ErrNotConnected)
	require.Equal(t, -1, h.ConnectionFd())
}

func TestProcessInputGarbageDisconnects(t *testing.T) {
	h, peer := socketpairHandle(t)
	_, err := unix.Write(peer, []byte{0x00, 0xff, 0x00})
	require.NoError(t, err)
	err = h.processInput()
	require.ErrorIs(t, err, ErrInvalid)
	require.Equal(t, -1, h.ConnectionFd())
}

func TestConnectFailsWhenAlreadyConnected(t *testing.T) {
	h, _ := socketpairHandle(t)
	_, err := h.Connect("")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestConnectFailsOnMissingSocket(t *testing.T) {
	h := NewHandleWithConfig(Config{SocketPath: t.TempDir() + "/nope.sock"})
	defer h.Destroy()
	_, err := h.Connect("")
	require.ErrorIs(t, err, ErrIO)
	require.Equal(t, -1, h.ConnectionFd())
}
