/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package psthreshold_test

import (
	"crypto/rand"
	mathrand "math/rand"
	"testing"
	"time"

	ml "github.com/IBM/mathlib"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-framework-go/component/anoncred/crypto/primitive/psthreshold"
)

const (
	threshold      = 3 // Security threshold (t-out-of-n)
	parties        = 4 // Number of issuers
	attributeCount = 4 // Attributes per credential
)

// nolint:gochecknoglobals
var curve = ml.Curves[ml.BLS12_381_BBS]

func newParams(t *testing.T) *psthreshold.PublicParameters {
	t.Helper()

	pp, err := psthreshold.Setup(rand.Reader, ml.BLS12_381_BBS, attributeCount, []byte("psthreshold-test"))
	require.NoError(t, err)

	return pp
}

func randomAttributes(pp *psthreshold.PublicParameters) []*ml.Zr {
	attrs := make([]*ml.Zr, pp.N)
	for i := range attrs {
		attrs[i] = pp.Curve.NewRandomZr(rand.Reader)
	}

	return attrs
}

func generateRandomIndices(threshold, numOfParties int) []int {
	rng := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))

	used := make(map[int]bool)

	indices := make([]int, 0)
	for len(indices) < threshold {
		r := rng.Intn(numOfParties) + 1
		if !used[r] {
			used[r] = true
			indices = append(indices, r)
		}
	}

	return indices
}

// issue runs a blind issuance with the issuers at indices and returns the unblinded signature.
func issue(t *testing.T, pp *psthreshold.PublicParameters, ks *psthreshold.ThresholdKeySet,
	attrs []*ml.Zr, indices []int) (*psthreshold.Signature, error) {
	t.Helper()

	req, secrets, err := psthreshold.NewBlindSignRequest(rand.Reader, pp, attrs)
	require.NoError(t, err)

	partials := collectPartials(t, pp, ks, req, indices)

	blind, err := psthreshold.AggregateSignatures(pp, ks.Threshold, partials)
	if err != nil {
		return nil, err
	}

	return blind.Unblind(pp, ks.VerificationKey, secrets)
}

func collectPartials(t *testing.T, pp *psthreshold.PublicParameters, ks *psthreshold.ThresholdKeySet,
	req *psthreshold.BlindSignRequest, indices []int) []*psthreshold.PartialSignature {
	t.Helper()

	partials := make([]*psthreshold.PartialSignature, 0, len(indices))

	for _, idx := range indices {
		ps, err := psthreshold.SignShare(pp, ks.Shares[idx-1], req)
		require.NoError(t, err)
		require.True(t, psthreshold.VerifyPartialSignature(pp, ks.VerificationShares[idx-1], req, ps))

		partials = append(partials, ps)
	}

	return partials
}
