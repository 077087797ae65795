/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential_test

import (
	"context"
	"crypto/rand"
	"testing"

	ml "github.com/IBM/mathlib"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-framework-go/component/anoncred/credential"
	"github.com/hyperledger/aries-framework-go/component/anoncred/crypto/primitive/psthreshold"
)

const (
	threshold      = 2
	parties        = 3
	attributeCount = 4
)

type fixture struct {
	pp      *psthreshold.PublicParameters
	keys    *psthreshold.ThresholdKeySet
	issuers *credential.IssuerSet
	attrs   []*ml.Zr
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	pp, err := psthreshold.Setup(rand.Reader, ml.BLS12_381_BBS, attributeCount, []byte("credential-test"))
	require.NoError(t, err)

	ks, err := psthreshold.GenerateThresholdKeys(rand.Reader, pp, threshold, parties)
	require.NoError(t, err)

	return &fixture{
		pp:      pp,
		keys:    ks,
		issuers: credential.NewIssuerSet(ks),
		attrs: psthreshold.ParseAttributes(pp, [][]byte{
			[]byte("name=Alice"),
			[]byte("country=CH"),
			[]byte("birth_year=1990"),
			[]byte("member_id=4711"),
		}),
	}
}

func (f *fixture) signers() []credential.Signer {
	signers := make([]credential.Signer, len(f.keys.Shares))
	for i, share := range f.keys.Shares {
		signers[i] = credential.NewLocalSigner(f.pp, share)
	}

	return signers
}

func (f *fixture) credential(t *testing.T) *credential.Credential {
	t.Helper()

	is, err := credential.NewIssuance(rand.Reader, f.pp, f.issuers, f.attrs)
	require.NoError(t, err)

	cred, err := credential.NewCoordinator(f.signers()).Issue(context.Background(), is)
	require.NoError(t, err)

	return cred
}
