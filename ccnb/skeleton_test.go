package ccnb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleInterest(t *testing.T) []byte {
	name, err := NameFromURI("/a/b")
	require.NoError(t, err)
	buf := AppendDTag(nil, DTagInterest)
	buf = append(buf, name...)
	return AppendCloser(buf)
}

func TestSkeletonWholeFrame(t *testing.T) {
	msg := sampleInterest(t)
	var d SkeletonDecoder
	n := d.Decode(msg)
	require.Equal(t, len(msg), n)
	require.Equal(t, 0, d.State)
	require.Equal(t, len(msg), d.Index)
}

func TestSkeletonByteAtATime(t *testing.T) {
	msg := sampleInterest(t)
	var d SkeletonDecoder
	for i, b := range msg {
		d.Decode([]byte{b})
		if i < len(msg)-1 {
			require.Positive(t, d.State, "state at byte %d", i)
		}
	}
	require.Equal(t, 0, d.State)
	require.Equal(t, len(msg), d.Index)
}

func TestSkeletonStopsAtFrameBoundary(t *testing.T) {
	one := sampleInterest(t)
	two := append(append([]byte{}, one...), one...)
	var d SkeletonDecoder
	n := d.Decode(two)
	require.Equal(t, len(one), n)
	require.Equal(t, 0, d.State)

	n = d.Decode(two[d.Index:])
	require.Equal(t, len(one), n)
	require.Equal(t, 0, d.State)
	require.Equal(t, len(two), d.Index)
}

func TestSkeletonRejectsBareLeaf(t *testing.T) {
	var d SkeletonDecoder
	d.Decode(AppendBlob(nil, []byte{1, 2, 3}))
	require.Negative(t, d.State)
}

func TestSkeletonRejectsStrayClose(t *testing.T) {
	var d SkeletonDecoder
	d.Decode([]byte{Close})
	require.Negative(t, d.State)
}

func TestSkeletonReset(t *testing.T) {
	var d SkeletonDecoder
	d.Decode([]byte{Close})
	require.Negative(t, d.State)
	d.Reset()
	require.Equal(t, 0, d.State)
	require.Equal(t, 0, d.Index)
}
