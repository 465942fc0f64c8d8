package ccnb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendTTRoundTrip(t *testing.T) {
	for _, val := range []uint64{0, 1, 14, 15, 16, 127, 128, 255, 1 << 14, 1 << 20, 1 << 40} {
		for _, tt := range []TT{TTDTag, TTBlob, TTUData} {
			buf := AppendTT(nil, val, tt)
			gotVal, gotTT, n := readTT(buf, 0)
			require.Equal(t, len(buf), n)
			require.Equal(t, val, gotVal)
			require.Equal(t, tt, gotTT)
		}
	}
}

func TestSmallTagsAreOneByte(t *testing.T) {
	require.Len(t, AppendDTag(nil, DTagName), 1)
	require.Len(t, AppendDTag(nil, DTagComponent), 1)
	require.Len(t, AppendDTag(nil, DTagInterest), 2)
}

func TestTaggedBlobRoundTrip(t *testing.T) {
	blob := []byte{0xde, 0xad, 0xbe, 0xef}
	buf := AppendTaggedBlob(nil, DTagKey, blob)
	got, err := RefTaggedBlob(DTagKey, buf, 0, len(buf))
	require.NoError(t, err)
	require.Equal(t, blob, got)

	_, err = RefTaggedBlob(DTagName, buf, 0, len(buf))
	require.Error(t, err)
}

func TestEmptyTaggedBlob(t *testing.T) {
	buf := AppendTaggedBlob(nil, DTagKey, nil)
	got, err := RefTaggedBlob(DTagKey, buf, 0, len(buf))
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestDigestComponentIsThirtySixBytes(t *testing.T) {
	// the implicit-digest heuristic depends on this exact size
	digest := make([]byte, 32)
	require.Len(t, AppendNameComponent(nil, digest), 36)
}
