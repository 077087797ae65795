/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package psthreshold_test

import (
	"crypto/rand"
	"testing"

	ml "github.com/IBM/mathlib"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-framework-go/component/anoncred/crypto/primitive/psthreshold"
)

func TestThresholdIssuance(t *testing.T) {
	pp := newParams(t)

	ks, err := psthreshold.GenerateThresholdKeys(rand.Reader, pp, threshold, parties)
	require.NoError(t, err)

	attrs := psthreshold.ParseAttributes(pp, [][]byte{
		[]byte("given_name=JOHN"),
		[]byte("family_name=SMITH"),
		[]byte("birth_date=1958-07-17"),
		[]byte("lpr_number=999-999-999"),
	})

	t.Run("issuers 1,2,3 and 2,3,4 both produce valid signatures", func(t *testing.T) {
		for _, indices := range [][]int{{1, 2, 3}, {2, 3, 4}} {
			sig, err := issue(t, pp, ks, attrs, indices)
			require.NoError(t, err)

			ok, err := sig.Verify(pp, ks.VerificationKey, attrs)
			require.NoError(t, err)
			require.True(t, ok, "issuers %v", indices)
		}
	})

	t.Run("random issuer subsets", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			indices := generateRandomIndices(threshold, parties)

			sig, err := issue(t, pp, ks, attrs, indices)
			require.NoError(t, err)

			ok, err := sig.Verify(pp, ks.VerificationKey, attrs)
			require.NoError(t, err)
			require.True(t, ok, "issuers %v", indices)
		}
	})

	t.Run("issuers 1,2 are insufficient", func(t *testing.T) {
		_, err := issue(t, pp, ks, attrs, []int{1, 2})
		require.ErrorIs(t, err, psthreshold.ErrInsufficientShares)
	})

	t.Run("all issuers", func(t *testing.T) {
		sig, err := issue(t, pp, ks, attrs, []int{4, 3, 2, 1})
		require.NoError(t, err)

		ok, err := sig.Verify(pp, ks.VerificationKey, attrs)
		require.NoError(t, err)
		require.True(t, ok)
	})
}

func TestAggregateSignatures(t *testing.T) {
	pp := newParams(t)

	ks, err := psthreshold.GenerateThresholdKeys(rand.Reader, pp, threshold, parties)
	require.NoError(t, err)

	attrs := randomAttributes(pp)

	req, secrets, err := psthreshold.NewBlindSignRequest(rand.Reader, pp, attrs)
	require.NoError(t, err)

	partials := collectPartials(t, pp, ks, req, []int{1, 2, 3, 4})

	t.Run("every threshold subset gives the same signature", func(t *testing.T) {
		a, err := psthreshold.AggregateSignatures(pp, threshold, partials[:3])
		require.NoError(t, err)

		b, err := psthreshold.AggregateSignatures(pp, threshold, partials[1:])
		require.NoError(t, err)

		c, err := psthreshold.AggregateSignatures(pp, threshold,
			[]*psthreshold.PartialSignature{partials[3], partials[0], partials[2]})
		require.NoError(t, err)

		require.True(t, a.Equals(b))
		require.True(t, a.Equals(c))

		sig, err := a.Unblind(pp, ks.VerificationKey, secrets)
		require.NoError(t, err)

		ok, err := sig.Verify(pp, ks.VerificationKey, attrs)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("insufficient shares", func(t *testing.T) {
		_, err := psthreshold.AggregateSignatures(pp, threshold, partials[:2])
		require.ErrorIs(t, err, psthreshold.ErrInsufficientShares)
		require.EqualError(t, err, "insufficient shares: need 3, got 2")

		_, err = psthreshold.AggregateSignatures(pp, threshold, nil)
		require.ErrorIs(t, err, psthreshold.ErrInsufficientShares)
	})

	t.Run("duplicate shares", func(t *testing.T) {
		_, err := psthreshold.AggregateSignatures(pp, threshold,
			[]*psthreshold.PartialSignature{partials[0], partials[1], partials[1]})
		require.ErrorIs(t, err, psthreshold.ErrDuplicateShare)
	})

	t.Run("shares for different requests", func(t *testing.T) {
		other, _, err := psthreshold.NewBlindSignRequest(rand.Reader, pp, attrs)
		require.NoError(t, err)

		foreign, err := psthreshold.SignShare(pp, ks.Shares[2], other)
		require.NoError(t, err)

		_, err = psthreshold.AggregateSignatures(pp, threshold,
			[]*psthreshold.PartialSignature{partials[0], partials[1], foreign})
		require.ErrorIs(t, err, psthreshold.ErrInconsistentShares)
	})

	t.Run("invalid share index", func(t *testing.T) {
		bad := *partials[2]
		bad.Index = 0

		_, err := psthreshold.AggregateSignatures(pp, threshold,
			[]*psthreshold.PartialSignature{partials[0], partials[1], &bad})
		require.ErrorIs(t, err, psthreshold.ErrInvalidShare)

		_, err = psthreshold.AggregateSignatures(pp, threshold,
			[]*psthreshold.PartialSignature{partials[0], partials[1], nil})
		require.ErrorIs(t, err, psthreshold.ErrInvalidShare)
	})

	t.Run("wrong openings do not unblind", func(t *testing.T) {
		blind, err := psthreshold.AggregateSignatures(pp, threshold, partials[:3])
		require.NoError(t, err)

		wrong := &psthreshold.BlindingSecrets{
			Blinding: secrets.Blinding,
			Openings: randomAttributes(pp),
		}

		sig, err := blind.Unblind(pp, ks.VerificationKey, wrong)
		require.NoError(t, err)

		ok, err := sig.Verify(pp, ks.VerificationKey, attrs)
		require.NoError(t, err)
		require.False(t, ok)

		_, err = blind.Unblind(pp, ks.VerificationKey, &psthreshold.BlindingSecrets{Openings: wrong.Openings[:1]})
		require.ErrorIs(t, err, psthreshold.ErrArityMismatch)
	})
}

func TestSignShare(t *testing.T) {
	pp := newParams(t)

	ks, err := psthreshold.GenerateThresholdKeys(rand.Reader, pp, threshold, parties)
	require.NoError(t, err)

	attrs := randomAttributes(pp)

	req, _, err := psthreshold.NewBlindSignRequest(rand.Reader, pp, attrs)
	require.NoError(t, err)
	require.NoError(t, req.Verify(pp))
	require.NotEmpty(t, req.ID)

	t.Run("request with a forged attribute commitment", func(t *testing.T) {
		forged := *req
		forged.AttributeCommitments = append([]*ml.G1(nil), req.AttributeCommitments...)
		forged.AttributeCommitments[1] = req.AttributeCommitments[1].Copy()
		forged.AttributeCommitments[1].Add(pp.G)

		_, err := psthreshold.SignShare(pp, ks.Shares[0], &forged)
		require.ErrorIs(t, err, psthreshold.ErrInvalidProof)
	})

	t.Run("request with a foreign signature base", func(t *testing.T) {
		forged := *req
		forged.H = pp.G.Mul(curve.NewRandomZr(rand.Reader))

		_, err := psthreshold.SignShare(pp, ks.Shares[0], &forged)
		require.ErrorIs(t, err, psthreshold.ErrInvalidProof)
	})

	t.Run("request for other parameters", func(t *testing.T) {
		other := newParams(t)

		_, err := psthreshold.SignShare(other, ks.Shares[0], req)
		require.ErrorIs(t, err, psthreshold.ErrInvalidProof)
	})

	t.Run("request with missing commitments", func(t *testing.T) {
		forged := *req
		forged.AttributeCommitments = req.AttributeCommitments[:2]

		_, err := psthreshold.SignShare(pp, ks.Shares[0], &forged)
		require.ErrorIs(t, err, psthreshold.ErrArityMismatch)

		forged = *req
		forged.Proof = nil

		_, err = psthreshold.SignShare(pp, ks.Shares[0], &forged)
		require.ErrorIs(t, err, psthreshold.ErrMalformedStatement)
	})

	t.Run("partial signature checks", func(t *testing.T) {
		ps, err := psthreshold.SignShare(pp, ks.Shares[1], req)
		require.NoError(t, err)
		require.Equal(t, 2, ps.Index)

		require.True(t, psthreshold.VerifyPartialSignature(pp, ks.VerificationShares[1], req, ps))
		require.False(t, psthreshold.VerifyPartialSignature(pp, ks.VerificationShares[2], req, ps))

		relabelled := *ps
		relabelled.Index = 3
		require.False(t, psthreshold.VerifyPartialSignature(pp, ks.VerificationShares[2], req, &relabelled))

		tampered := *ps
		tampered.Sigma = ps.Sigma.Copy()
		tampered.Sigma.Add(pp.G)
		require.False(t, psthreshold.VerifyPartialSignature(pp, ks.VerificationShares[1], req, &tampered))
		require.False(t, psthreshold.VerifyPartialSignature(pp, ks.VerificationShares[1], req, nil))

		for _, empty := range []*psthreshold.PartialSignature{
			{Index: 2},
			{Index: 2, H: ps.H},
			{Index: 2, Sigma: ps.Sigma},
		} {
			require.NotPanics(t, func() {
				require.False(t, psthreshold.VerifyPartialSignature(pp, ks.VerificationShares[1], req, empty))
			})
		}
	})

	t.Run("arity mismatch", func(t *testing.T) {
		_, _, err := psthreshold.NewBlindSignRequest(rand.Reader, pp, attrs[:1])
		require.ErrorIs(t, err, psthreshold.ErrArityMismatch)

		_, _, err = psthreshold.NewBlindSignRequest(nil, pp, attrs)
		require.ErrorIs(t, err, psthreshold.ErrNoRandomness)
	})
}

func TestSign(t *testing.T) {
	pp := newParams(t)

	sk, vk, err := psthreshold.GenerateKeyPair(rand.Reader, pp)
	require.NoError(t, err)

	attrs := randomAttributes(pp)

	sig, err := psthreshold.Sign(rand.Reader, pp, sk, attrs)
	require.NoError(t, err)

	ok, err := sig.Verify(pp, vk, attrs)
	require.NoError(t, err)
	require.True(t, ok)

	t.Run("flipping any attribute fails verification", func(t *testing.T) {
		for i := range attrs {
			flipped := append([]*ml.Zr(nil), attrs...)
			flipped[i] = curve.ModAdd(attrs[i], curve.NewZrFromInt(1), curve.GroupOrder)

			ok, err := sig.Verify(pp, vk, flipped)
			require.NoError(t, err)
			require.False(t, ok, "attribute %d", i)
		}
	})

	t.Run("other key", func(t *testing.T) {
		_, otherVK, err := psthreshold.GenerateKeyPair(rand.Reader, pp)
		require.NoError(t, err)

		ok, err := sig.Verify(pp, otherVK, attrs)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("identity first element", func(t *testing.T) {
		degenerate := &psthreshold.Signature{Sigma1: curve.NewG1(), Sigma2: curve.NewG1()}

		ok, err := degenerate.Verify(pp, vk, attrs)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("arity mismatch is an error", func(t *testing.T) {
		_, err := sig.Verify(pp, vk, attrs[:3])
		require.ErrorIs(t, err, psthreshold.ErrArityMismatch)

		_, err = psthreshold.Sign(rand.Reader, pp, sk, attrs[:3])
		require.ErrorIs(t, err, psthreshold.ErrArityMismatch)

		_, err = psthreshold.Sign(nil, pp, sk, attrs)
		require.ErrorIs(t, err, psthreshold.ErrNoRandomness)
	})
}

func TestRandomize(t *testing.T) {
	pp := newParams(t)

	sk, vk, err := psthreshold.GenerateKeyPair(rand.Reader, pp)
	require.NoError(t, err)

	attrs := randomAttributes(pp)

	sig, err := psthreshold.Sign(rand.Reader, pp, sk, attrs)
	require.NoError(t, err)

	randomized, err := sig.Randomize(rand.Reader, pp)
	require.NoError(t, err)
	require.False(t, randomized.Sigma1.Equals(sig.Sigma1))
	require.False(t, randomized.Sigma2.Equals(sig.Sigma2))

	ok, err := randomized.Verify(pp, vk, attrs)
	require.NoError(t, err)
	require.True(t, ok)

	again, err := randomized.Randomize(rand.Reader, pp)
	require.NoError(t, err)
	require.False(t, again.Equals(randomized))

	_, err = sig.Randomize(nil, pp)
	require.ErrorIs(t, err, psthreshold.ErrNoRandomness)
}

func TestSignatureEncoding(t *testing.T) {
	pp := newParams(t)

	ks, err := psthreshold.GenerateThresholdKeys(rand.Reader, pp, threshold, parties)
	require.NoError(t, err)

	attrs := randomAttributes(pp)

	req, secrets, err := psthreshold.NewBlindSignRequest(rand.Reader, pp, attrs)
	require.NoError(t, err)

	partials := collectPartials(t, pp, ks, req, []int{1, 2, 3})

	t.Run("blind sign request", func(t *testing.T) {
		reqBytes := req.Bytes(pp)

		parsed, err := psthreshold.ParseBlindSignRequest(pp, reqBytes)
		require.NoError(t, err)
		require.Equal(t, req.ID, parsed.ID)
		require.Equal(t, reqBytes, parsed.Bytes(pp))
		require.NoError(t, parsed.Verify(pp))

		corrupted := append([]byte(nil), reqBytes...)
		corrupted[len(corrupted)-20] ^= 0x04

		_, err = psthreshold.ParseBlindSignRequest(pp, corrupted)
		require.ErrorIs(t, err, psthreshold.ErrDeserialization)
	})

	t.Run("partial signature", func(t *testing.T) {
		psBytes := partials[1].Bytes(pp)

		parsed, err := psthreshold.ParsePartialSignature(pp, psBytes)
		require.NoError(t, err)
		require.Equal(t, 2, parsed.Index)
		require.True(t, parsed.Sigma.Equals(partials[1].Sigma))
		require.True(t, parsed.H.Equals(partials[1].H))

		for pos := range psBytes {
			corrupted := append([]byte(nil), psBytes...)
			corrupted[pos] ^= 0x01

			_, err = psthreshold.ParsePartialSignature(pp, corrupted)
			require.ErrorIs(t, err, psthreshold.ErrDeserialization)
		}

		_, err = psthreshold.ParsePartialSignature(pp, []byte("invalid"))
		require.ErrorIs(t, err, psthreshold.ErrDeserialization)
	})

	blind, err := psthreshold.AggregateSignatures(pp, threshold, partials)
	require.NoError(t, err)

	t.Run("blind signature", func(t *testing.T) {
		parsed, err := psthreshold.ParseBlindSignature(pp, blind.Bytes(pp))
		require.NoError(t, err)
		require.True(t, parsed.Equals(blind))

		_, err = psthreshold.ParseBlindSignature(pp, partials[0].Bytes(pp))
		require.ErrorIs(t, err, psthreshold.ErrDeserialization)
	})

	t.Run("signature", func(t *testing.T) {
		sig, err := blind.Unblind(pp, ks.VerificationKey, secrets)
		require.NoError(t, err)

		sigBytes := sig.Bytes(pp)

		parsed, err := psthreshold.ParseSignature(pp, sigBytes)
		require.NoError(t, err)
		require.True(t, parsed.Equals(sig))

		ok, err := parsed.Verify(pp, ks.VerificationKey, attrs)
		require.NoError(t, err)
		require.True(t, ok)

		for pos := range sigBytes {
			corrupted := append([]byte(nil), sigBytes...)
			corrupted[pos] ^= 0x20

			_, err = psthreshold.ParseSignature(pp, corrupted)
			require.ErrorIs(t, err, psthreshold.ErrDeserialization)
		}
	})
}

func TestParseAttributes(t *testing.T) {
	pp := newParams(t)

	values := [][]byte{[]byte("a"), []byte("b"), []byte("a")}

	attrs := psthreshold.ParseAttributes(pp, values)
	require.Len(t, attrs, 3)
	require.True(t, attrs[0].Equals(attrs[2]))
	require.False(t, attrs[0].Equals(attrs[1]))
	require.True(t, attrs[1].Equals(psthreshold.ParseAttribute(pp, []byte("b"))))
}
