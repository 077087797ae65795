/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-framework-go/component/anoncred/credential"
	"github.com/hyperledger/aries-framework-go/component/anoncred/crypto/primitive/psthreshold"
)

func TestPresent(t *testing.T) {
	f := newFixture(t)
	cred := f.credential(t)
	vk := f.keys.VerificationKey
	nonce := []byte("verifier nonce")

	for _, disclosed := range [][]int{nil, {0}, {3, 1}, {0, 1, 2, 3}} {
		p, err := credential.Present(rand.Reader, f.pp, vk, cred, disclosed, nonce)
		require.NoError(t, err)
		require.True(t, credential.VerifyPresentation(f.pp, vk, p, nonce), "disclosed %v", disclosed)

		revealed := p.DisclosedAttributes()
		require.Len(t, revealed, len(disclosed))

		for _, k := range disclosed {
			require.True(t, revealed[k].Equals(f.attrs[k]))
		}
	}

	p, err := credential.Present(rand.Reader, f.pp, vk, cred, []int{2, 0}, nonce)
	require.NoError(t, err)
	require.Equal(t, []int{0, 2}, p.Disclosed)

	t.Run("presentations are unlinkable", func(t *testing.T) {
		other, err := credential.Present(rand.Reader, f.pp, vk, cred, []int{0, 2}, nonce)
		require.NoError(t, err)
		require.False(t, other.Sigma1.Equals(p.Sigma1))
		require.False(t, other.Kappa.Equals(p.Kappa))
	})

	t.Run("signature elements do not verify as a plain signature", func(t *testing.T) {
		hidden, err := credential.Present(rand.Reader, f.pp, vk, cred, nil, nonce)
		require.NoError(t, err)
		require.True(t, credential.VerifyPresentation(f.pp, vk, hidden, nonce))

		ok, err := (&psthreshold.Signature{Sigma1: hidden.Sigma1, Sigma2: hidden.Sigma2}).Verify(f.pp, vk, f.attrs)
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = (&psthreshold.Signature{Sigma1: p.Sigma1, Sigma2: p.Sigma2}).Verify(f.pp, vk, f.attrs)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("bound to the nonce", func(t *testing.T) {
		require.False(t, credential.VerifyPresentation(f.pp, vk, p, []byte("other nonce")))
	})

	t.Run("bound to the issuer key", func(t *testing.T) {
		_, otherVK, err := psthreshold.GenerateKeyPair(rand.Reader, f.pp)
		require.NoError(t, err)
		require.False(t, credential.VerifyPresentation(f.pp, otherVK, p, nonce))
	})

	t.Run("disclosed values cannot be changed", func(t *testing.T) {
		forged := *p
		forged.Values = append(forged.Values[:0:0], p.Values...)
		forged.Values[1] = psthreshold.ParseAttribute(f.pp, []byte("birth_year=1970"))
		require.False(t, credential.VerifyPresentation(f.pp, vk, &forged, nonce))

		forged = *p
		forged.Disclosed = []int{0, 3}
		require.False(t, credential.VerifyPresentation(f.pp, vk, &forged, nonce))

		forged = *p
		forged.Disclosed = []int{2, 0}
		require.False(t, credential.VerifyPresentation(f.pp, vk, &forged, nonce))
	})

	t.Run("signature elements cannot be swapped", func(t *testing.T) {
		forged := *p
		forged.Sigma2 = p.Sigma2.Copy()
		forged.Sigma2.Add(f.pp.G)
		require.False(t, credential.VerifyPresentation(f.pp, vk, &forged, nonce))

		forged = *p
		forged.Sigma1 = f.pp.Curve.NewG1()
		require.False(t, credential.VerifyPresentation(f.pp, vk, &forged, nonce))

		require.False(t, credential.VerifyPresentation(f.pp, vk, nil, nonce))
		require.False(t, credential.VerifyPresentation(f.pp, vk, &credential.Presentation{}, nonce))
	})

	t.Run("credential with a forged attribute", func(t *testing.T) {
		forged := *cred
		forged.Attributes = append(forged.Attributes[:0:0], cred.Attributes...)
		forged.Attributes[1] = psthreshold.ParseAttribute(f.pp, []byte("country=FR"))

		fp, err := credential.Present(rand.Reader, f.pp, vk, &forged, []int{1}, nonce)
		require.NoError(t, err)
		require.False(t, credential.VerifyPresentation(f.pp, vk, fp, nonce))

		fp, err = credential.Present(rand.Reader, f.pp, vk, &forged, nil, nonce)
		require.NoError(t, err)
		require.False(t, credential.VerifyPresentation(f.pp, vk, fp, nonce))
	})

	t.Run("invalid disclosure", func(t *testing.T) {
		for _, disclosed := range [][]int{{-1}, {attributeCount}, {1, 1}} {
			_, err := credential.Present(rand.Reader, f.pp, vk, cred, disclosed, nonce)
			require.ErrorIs(t, err, credential.ErrInvalidDisclosure, "disclosed %v", disclosed)
		}

		_, err := credential.Present(nil, f.pp, vk, cred, nil, nonce)
		require.ErrorIs(t, err, psthreshold.ErrNoRandomness)

		short := *cred
		short.Attributes = cred.Attributes[:2]

		_, err = credential.Present(rand.Reader, f.pp, vk, &short, nil, nonce)
		require.ErrorIs(t, err, psthreshold.ErrArityMismatch)
	})
}

func TestPresentationEncoding(t *testing.T) {
	f := newFixture(t)
	cred := f.credential(t)
	vk := f.keys.VerificationKey
	nonce := []byte("nonce")

	p, err := credential.Present(rand.Reader, f.pp, vk, cred, []int{1, 3}, nonce)
	require.NoError(t, err)

	data := p.Bytes(f.pp)

	parsed, err := credential.ParsePresentation(f.pp, data)
	require.NoError(t, err)
	require.Equal(t, p.Disclosed, parsed.Disclosed)
	require.Equal(t, data, parsed.Bytes(f.pp))
	require.True(t, credential.VerifyPresentation(f.pp, vk, parsed, nonce))

	for _, pos := range []int{0, 1, 40, len(data) / 2, len(data) - 1} {
		corrupted := append([]byte(nil), data...)
		corrupted[pos] ^= 0x01

		_, err = credential.ParsePresentation(f.pp, corrupted)
		require.ErrorIs(t, err, credential.ErrDeserialization)
	}

	unsorted := *p
	unsorted.Disclosed = []int{3, 1}

	_, err = credential.ParsePresentation(f.pp, unsorted.Bytes(f.pp))
	require.ErrorIs(t, err, credential.ErrDeserialization)

	_, err = credential.ParsePresentation(f.pp, cred.Bytes(f.pp))
	require.ErrorIs(t, err, credential.ErrDeserialization)
}
