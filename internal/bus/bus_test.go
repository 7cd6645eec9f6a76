package bus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeStoresLeadingValues(t *testing.T) {
	t.Parallel()

	body := []any{[]string{"a1", "a2"}, "extra"}
	var ids []string
	require.NoError(t, Decode(body, &ids))
	require.Equal(t, []string{"a1", "a2"}, ids)
}

func TestDecodeMapsAndScalars(t *testing.T) {
	t.Parallel()

	body := []any{"a1", "ring:b2", map[string]string{"text/plain": "hi"}}
	var (
		account, author string
		payloads        map[string]string
	)
	require.NoError(t, Decode(body, &account, &author, &payloads))
	require.Equal(t, "a1", account)
	require.Equal(t, "ring:b2", author)
	require.Equal(t, "hi", payloads["text/plain"])
}

func TestDecodeShortBodyIsMalformed(t *testing.T) {
	t.Parallel()

	var id string
	err := Decode(nil, &id)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestSplitName(t *testing.T) {
	t.Parallel()

	iface, member := splitName("cx.ring.Ring.ConfigurationManager.accountsChanged")
	require.Equal(t, "cx.ring.Ring.ConfigurationManager", iface)
	require.Equal(t, "accountsChanged", member)

	iface, member = splitName("bare")
	require.Empty(t, iface)
	require.Equal(t, "bare", member)
}

func TestSignalName(t *testing.T) {
	t.Parallel()

	s := Signal{Interface: "cx.ring.Ring.ConfigurationManager", Member: "accountsChanged"}
	require.Equal(t, "cx.ring.Ring.ConfigurationManager.accountsChanged", s.Name())
}
