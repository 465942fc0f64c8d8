package ccnb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNameURIRoundTrip(t *testing.T) {
	for _, uri := range []string{"/", "/a", "/a/b/c", "/hello/world-1.0"} {
		name, err := NameFromURI(uri)
		require.NoError(t, err)
		back, err := NameToURI(name)
		require.NoError(t, err)
		require.Equal(t, uri, back)
	}
}

func TestNameFromURIEscapes(t *testing.T) {
	name, err := NameFromURI("/a%2Fb/c")
	require.NoError(t, err)
	comps, err := NameComponents(name)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("a/b"), []byte("c")}, comps)
}

func TestNameFromURIRelativeRejected(t *testing.T) {
	_, err := NameFromURI("a/b")
	require.Error(t, err)
}

func TestNameComponentsRejectsJunk(t *testing.T) {
	_, err := NameComponents([]byte{0x01, 0x02})
	require.Error(t, err)
}

func TestEmptyName(t *testing.T) {
	name := AppendName(nil)
	comps, err := NameComponents(name)
	require.NoError(t, err)
	require.Empty(t, comps)
	require.Len(t, name, 2)
}
