package spqsigs

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pibara/spq-sigs/internal/hash"
)

func testMasterKey(t *testing.T) *hash.MasterKey {
	mk, err := hash.MasterKeyFromBytes(make([]byte, MasterKeySize))
	require.NoError(t, err)
	return mk
}

func TestSignatureEncoding(t *testing.T) {
	l, err := GenerateLevel(testParams, 3, rand.Reader)
	require.NoError(t, err)
	msg := []byte("encoded")
	raw, err := l.SignMessage(msg)
	require.NoError(t, err)

	sig, err := DecodeSignature(testParams, 3, raw)
	require.NoError(t, err)
	require.Equal(t, raw, sig.Bytes())
	require.Equal(t, l.Salt(), sig.Salt)
	require.Len(t, sig.AuthPath, 3)
	require.Len(t, sig.Chains, 2*testParams.ChunkCount())
	require.Equal(t, uint8(3), sig.Height())
	require.Equal(t, testParams, sig.Params())
	require.Equal(t, l.Hash(msg), sig.Digest(msg))

	_, err = DecodeSignature(testParams, 3, raw[:len(raw)-1])
	require.ErrorIs(t, err, ErrInvalidSignatureSize)
	_, err = DecodeSignature(testParams, 3, append(raw, 0))
	require.ErrorIs(t, err, ErrInvalidSignatureSize)
	_, err = DecodeSignature(testParams, 4, raw)
	require.ErrorIs(t, err, ErrInvalidSignatureSize)
	_, err = DecodeSignature(testParams, 17, raw)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestSignatureRejectsAnyFlippedByte(t *testing.T) {
	l, err := GenerateLevel(testParams, 3, rand.Reader)
	require.NoError(t, err)
	msg := []byte("tamper with me")
	raw, err := l.SignMessage(msg)
	require.NoError(t, err)

	for i := range raw {
		bad := append([]byte(nil), raw...)
		bad[i] ^= 0x01
		sig, err := DecodeSignature(testParams, 3, bad)
		require.NoError(t, err)
		require.False(t, sig.Validate(msg), "flipped byte %d", i)
	}
}

func TestSignatureMalformedValues(t *testing.T) {
	l, err := GenerateLevel(testParams, 3, rand.Reader)
	require.NoError(t, err)
	msg := []byte("hand built")
	raw, err := l.SignMessage(msg)
	require.NoError(t, err)
	sig, err := DecodeSignature(testParams, 3, raw)
	require.NoError(t, err)
	require.True(t, sig.Validate(msg))

	short := *sig
	short.AuthPath = short.AuthPath[:2]
	require.False(t, short.Validate(msg))

	short = *sig
	short.Salt = short.Salt[:1]
	require.False(t, short.Validate(msg))
	require.Nil(t, short.Digest(msg))
	require.False(t, short.ValidateDigest(sig.Digest(msg)))

	require.False(t, sig.ValidateDigest(make([]byte, 8)))
}

func TestSignatureHashFamilies(t *testing.T) {
	for _, p := range []Params{
		{Hash: SHAKE256, HashLength: 16, ChunkWidth: 4},
		{Hash: BLAKE, HashLength: 16, ChunkWidth: 4},
		{Hash: BLAKE, HashLength: 48, ChunkWidth: 12},
	} {
		t.Run(p.String(), func(t *testing.T) {
			if testing.Short() && p.ChunkWidth > 8 {
				t.Skip("full width chains are slow")
			}
			l, err := GenerateLevel(p, 3, rand.Reader)
			require.NoError(t, err)
			raw, err := l.SignMessage([]byte("family"))
			require.NoError(t, err)
			sig, err := DecodeSignature(p, 3, raw)
			require.NoError(t, err)
			require.True(t, sig.Validate([]byte("family")))
			require.False(t, sig.Validate([]byte("familz")))
		})
	}
}

func TestRegisteredParamsRoundTrip(t *testing.T) {
	for _, name := range ListNames() {
		p, err := ParamsFromName(name)
		require.NoError(t, err)
		t.Run(name, func(t *testing.T) {
			if testing.Short() && p.ChunkWidth > 8 {
				t.Skip("full width chains are slow")
			}
			l, err := GenerateLevel(p, 3, rand.Reader)
			require.NoError(t, err)
			for _, msg := range []string{"", "round trip", "This is just a test."} {
				raw, err := l.SignMessage([]byte(msg))
				require.NoError(t, err)
				sig, err := DecodeSignature(p, 3, raw)
				require.NoError(t, err)
				require.True(t, sig.Validate([]byte(msg)), "%q", msg)
			}
		})
	}
}
