package p2p

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadOrCreateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "node.key")

	key, err := LoadOrCreateKey(path)
	require.NoError(t, err)

	again, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	require.True(t, key.Equals(again), "second load returns the saved key")
}

func TestParseBootnodes(t *testing.T) {
	const id = "16Uiu2HAmPQhkD6Zg5Co2ee8ShshkiY4tDePKFARPpCS2oKSLj1E3"
	peers, err := ParseBootnodes([]string{
		"/ip4/127.0.0.1/tcp/9000/p2p/" + id,
		"/ip4/127.0.0.1/udp/9000/quic-v1/p2p/" + id,
	})
	require.NoError(t, err)
	require.Len(t, peers, 1, "addresses of one peer are merged")
	require.Len(t, peers[0].Addrs, 2)

	_, err = ParseBootnodes([]string{"not-a-multiaddr"})
	require.Error(t, err)

	_, err = ParseBootnodes([]string{"/ip4/127.0.0.1/tcp/9000"})
	require.Error(t, err, "address without peer id")
}
