/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package psthreshold

import (
	"fmt"

	ml "github.com/IBM/mathlib"

	"github.com/hyperledger/aries-framework-go/component/anoncred/internal/group"
	"github.com/hyperledger/aries-framework-go/component/anoncred/internal/wire"
)

// PartialSignature is the contribution of issuer Index: Sigma = x_i·H + Σ y_{k,i}·cm_k.
type PartialSignature struct {
	Index int
	H     *ml.G1
	Sigma *ml.G1
}

// SignShare verifies the request proof and signs it with a secret key share.
func SignShare(pp *PublicParameters, share *SecretKeyShare, req *BlindSignRequest) (*PartialSignature, error) {
	if share.Index < 1 {
		return nil, fmt.Errorf("%w: index %d", ErrInvalidShare, share.Index)
	}

	if len(share.Y) != pp.N {
		return nil, fmt.Errorf("%w: key share covers %d attributes, parameters define %d", ErrArityMismatch,
			len(share.Y), pp.N)
	}

	if err := req.Verify(pp); err != nil {
		return nil, err
	}

	cb := newCommitmentBuilder[*ml.G1](pp.N + 1)
	cb.add(req.H, share.X)

	for k, cm := range req.AttributeCommitments {
		cb.add(cm, share.Y[k])
	}

	return &PartialSignature{
		Index: share.Index,
		H:     req.H.Copy(),
		Sigma: cb.build(),
	}, nil
}

// VerifyPartialSignature checks e(Sigma, g~) == e(H, X~_i)·Π e(cm_k, Y~_{k,i}).
func VerifyPartialSignature(pp *PublicParameters, vk *VerificationKeyShare, req *BlindSignRequest,
	ps *PartialSignature) bool {
	if ps == nil || vk == nil || req == nil || ps.H == nil || ps.Sigma == nil || req.H == nil ||
		vk.Index != ps.Index || !ps.H.Equals(req.H) ||
		len(vk.YTilde) != pp.N || len(req.AttributeCommitments) != pp.N {
		return false
	}

	g1s := make([]*ml.G1, 0, pp.N+2)
	g2s := make([]*ml.G2, 0, pp.N+2)

	g1s = append(g1s, ps.Sigma, group.NegG1(pp.Curve, ps.H))
	g2s = append(g2s, pp.GTilde, vk.XTilde)

	for k, cm := range req.AttributeCommitments {
		g1s = append(g1s, group.NegG1(pp.Curve, cm))
		g2s = append(g2s, vk.YTilde[k])
	}

	return group.PairingProductIsUnity(pp.Curve, g1s, g2s)
}

// Bytes encodes the partial signature.
func (ps *PartialSignature) Bytes(pp *PublicParameters) []byte {
	w := wire.NewWriter(pp.Curve, wire.TagPartialSignature)

	w.Uint32(ps.Index)
	w.G1(ps.H)
	w.G1(ps.Sigma)

	return w.Finish()
}

// ParsePartialSignature decodes a partial signature produced by Bytes.
func ParsePartialSignature(pp *PublicParameters, data []byte) (*PartialSignature, error) {
	r, err := wire.NewReader(pp.Curve, wire.TagPartialSignature, data)
	if err != nil {
		return nil, fmt.Errorf("parse partial signature: %w", err)
	}

	ps := &PartialSignature{
		Index: r.Uint32(),
		H:     r.G1(),
		Sigma: r.G1(),
	}

	if err = r.Close(); err != nil {
		return nil, fmt.Errorf("parse partial signature: %w", err)
	}

	if ps.Index < 1 {
		return nil, fmt.Errorf("parse partial signature: %w: %v", ErrDeserialization, ErrInvalidShare)
	}

	return ps, nil
}
