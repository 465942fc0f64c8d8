package ccnb

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildInterest assembles an Interest with every optional field.
func buildInterest(t *testing.T, uri string, prefixComps int, pub []byte, scope string, nonce []byte, lifetime string) []byte {
	name, err := NameFromURI(uri)
	require.NoError(t, err)
	buf := AppendDTag(nil, DTagInterest)
	buf = append(buf, name...)
	if prefixComps >= 0 {
		buf = AppendTaggedUData(buf, DTagNameComponentCount, strconv.Itoa(prefixComps))
	}
	if pub != nil {
		buf = AppendTaggedBlob(buf, DTagPublisherPublicKeyDigest, pub)
	}
	if scope != "" {
		buf = AppendTaggedUData(buf, DTagScope, scope)
	}
	if nonce != nil {
		buf = AppendTaggedBlob(buf, DTagNonce, nonce)
	}
	if lifetime != "" {
		buf = AppendTaggedUData(buf, DTagInterestLifetime, lifetime)
	}
	return AppendCloser(buf)
}

func TestParseInterestMinimal(t *testing.T) {
	msg := buildInterest(t, "/a/b", -1, nil, "", nil, "")
	var comps []int
	pi, err := ParseInterest(msg, &comps)
	require.NoError(t, err)
	require.Equal(t, 2, pi.PrefixComps)
	require.Len(t, comps, 3)
	require.Equal(t, len(msg), pi.E)
	require.Equal(t, pi.NameE, pi.ComponentCountE)
	require.Equal(t, pi.NonceB, pi.NonceE)
	require.False(t, pi.Scope.IsSet())
}

func TestParseInterestAllFields(t *testing.T) {
	pub := make([]byte, 32)
	msg := buildInterest(t, "/a/b/c", 2, pub, "1", []byte{9, 9}, "4000000")
	var comps []int
	pi, err := ParseInterest(msg, &comps)
	require.NoError(t, err)
	require.Equal(t, 2, pi.PrefixComps)
	require.Len(t, comps, 4)
	require.Equal(t, uint64(1), pi.Scope.Unwrap())
	require.Greater(t, pi.ComponentCountE, pi.NameE)
	require.Greater(t, pi.PublisherE, pi.PublisherB)
	require.Greater(t, pi.NonceE, pi.NonceB)
	require.Greater(t, pi.OtherE, pi.OtherB)

	// splice regions used by interest construction
	require.Equal(t, pi.PublisherB, pi.ComponentCountE)
	got, err := RefTaggedBlob(DTagPublisherPublicKeyDigest, msg, pi.PublisherB, pi.PublisherE)
	require.NoError(t, err)
	require.Equal(t, pub, got)
}

func TestParseInterestComponentBoundaries(t *testing.T) {
	msg := buildInterest(t, "/a/b", -1, nil, "", nil, "")
	var comps []int
	_, err := ParseInterest(msg, &comps)
	require.NoError(t, err)
	// each boundary pair brackets one Component element
	for i := 0; i+1 < len(comps); i++ {
		d := NewBufDecoder(msg[comps[i]:comps[i+1]])
		require.True(t, d.MatchDTag(DTagComponent))
	}
}

func TestParseInterestRejectsContentObject(t *testing.T) {
	buf := AppendDTag(nil, DTagContentObject)
	buf = AppendCloser(buf)
	_, err := ParseInterest(buf, nil)
	require.Error(t, err)
}

func TestParseInterestClampsPrefixComps(t *testing.T) {
	msg := buildInterest(t, "/a", 7, nil, "", nil, "")
	pi, err := ParseInterest(msg, nil)
	require.NoError(t, err)
	require.Equal(t, 1, pi.PrefixComps)
}
