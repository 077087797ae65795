/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package psthreshold

import (
	"fmt"
	"io"

	ml "github.com/IBM/mathlib"

	"github.com/hyperledger/aries-framework-go/component/anoncred/internal/group"
	"github.com/hyperledger/aries-framework-go/component/anoncred/internal/wire"
)

// BlindSignature is the aggregate of partial signatures, still bound to the attribute commitments
// of the request: Sigma = x·H + Σ y_k·cm_k.
type BlindSignature struct {
	H     *ml.G1
	Sigma *ml.G1
}

// Signature is a signature over a plain attribute vector: Sigma2 = (x + Σ y_k·m_k)·Sigma1.
type Signature struct {
	Sigma1 *ml.G1
	Sigma2 *ml.G1
}

// AggregateSignatures combines at least threshold partial signatures by Lagrange interpolation at 0
// over the indices they carry. All supplied partial signatures take part.
func AggregateSignatures(pp *PublicParameters, threshold int, partials []*PartialSignature) (*BlindSignature, error) {
	if threshold < 1 {
		return nil, fmt.Errorf("invalid threshold %d", threshold)
	}

	indices := make([]int, len(partials))
	sigmas := make([]*ml.G1, len(partials))

	for i, ps := range partials {
		if ps == nil || ps.H == nil || ps.Sigma == nil {
			return nil, fmt.Errorf("%w: partial signature %d is incomplete", ErrInvalidShare, i)
		}

		indices[i] = ps.Index
		sigmas[i] = ps.Sigma
	}

	if err := checkIndexSet(indices, threshold); err != nil {
		return nil, err
	}

	h := partials[0].H
	for _, ps := range partials[1:] {
		if !ps.H.Equals(h) {
			return nil, fmt.Errorf("%w: partial signature %d has a different base", ErrInconsistentShares, ps.Index)
		}
	}

	lambdas := Get0LagrangeCoefficientSetFr(pp.Curve, indices)

	return &BlindSignature{
		H:     h.Copy(),
		Sigma: group.SumOfProducts(sigmas, lambdas),
	}, nil
}

// Unblind removes the attribute commitment openings: Sigma2 = Sigma - Σ o_k·Y_k.
func (bs *BlindSignature) Unblind(pp *PublicParameters, vk *VerificationKey, secrets *BlindingSecrets) (*Signature, error) {
	if err := vk.checkArity(pp); err != nil {
		return nil, err
	}

	if err := pp.checkArity(secrets.Openings); err != nil {
		return nil, err
	}

	sigma2 := bs.Sigma.Copy()
	sigma2.Sub(group.SumOfProducts(vk.Y, secrets.Openings))

	return &Signature{
		Sigma1: bs.H.Copy(),
		Sigma2: sigma2,
	}, nil
}

// Equals compares two blind signatures.
func (bs *BlindSignature) Equals(other *BlindSignature) bool {
	return other != nil && bs.H.Equals(other.H) && bs.Sigma.Equals(other.Sigma)
}

// Sign signs public attributes with a single issuer key.
func Sign(rng io.Reader, pp *PublicParameters, sk *SecretKey, attributes []*ml.Zr) (*Signature, error) {
	if rng == nil {
		return nil, ErrNoRandomness
	}

	if err := pp.checkArity(attributes); err != nil {
		return nil, err
	}

	if len(sk.Y) != pp.N {
		return nil, fmt.Errorf("%w: key covers %d attributes, parameters define %d", ErrArityMismatch,
			len(sk.Y), pp.N)
	}

	exp := sk.X.Copy()
	for k, m := range attributes {
		exp = pp.Curve.ModAdd(exp, pp.Curve.ModMul(sk.Y[k], m, pp.Curve.GroupOrder), pp.Curve.GroupOrder)
	}

	h := pp.G.Mul(pp.Curve.NewRandomZr(rng))

	return &Signature{
		Sigma1: h,
		Sigma2: h.Mul(exp),
	}, nil
}

// Verify checks e(Sigma2, g~) == e(Sigma1, X~ + Σ m_k·Y~_k). A failed check is reported as false;
// the error is reserved for attribute vectors or keys that do not match the parameters.
func (s *Signature) Verify(pp *PublicParameters, vk *VerificationKey, attributes []*ml.Zr) (bool, error) {
	if err := pp.checkArity(attributes); err != nil {
		return false, err
	}

	if err := vk.checkArity(pp); err != nil {
		return false, err
	}

	if s.Sigma1 == nil || s.Sigma2 == nil || s.Sigma1.IsInfinity() {
		return false, nil
	}

	agg := vk.XTilde.Copy()
	agg.Add(group.SumOfProducts(vk.YTilde, attributes))

	return group.CompareTwoPairings(pp.Curve, s.Sigma2, pp.GTilde, group.NegG1(pp.Curve, s.Sigma1), agg), nil
}

// Randomize returns (t·Sigma1, t·Sigma2) for a fresh non-zero t.
func (s *Signature) Randomize(rng io.Reader, pp *PublicParameters) (*Signature, error) {
	if rng == nil {
		return nil, ErrNoRandomness
	}

	zero := pp.Curve.NewZrFromInt(0)

	t := pp.Curve.NewRandomZr(rng)
	for t.Equals(zero) {
		t = pp.Curve.NewRandomZr(rng)
	}

	return &Signature{
		Sigma1: s.Sigma1.Mul(t),
		Sigma2: s.Sigma2.Mul(t),
	}, nil
}

// Equals compares two signatures.
func (s *Signature) Equals(other *Signature) bool {
	return other != nil && s.Sigma1.Equals(other.Sigma1) && s.Sigma2.Equals(other.Sigma2)
}

// Bytes encodes the signature.
func (s *Signature) Bytes(pp *PublicParameters) []byte {
	w := wire.NewWriter(pp.Curve, wire.TagSignature)

	w.G1(s.Sigma1)
	w.G1(s.Sigma2)

	return w.Finish()
}

// ParseSignature decodes a signature produced by Bytes.
func ParseSignature(pp *PublicParameters, data []byte) (*Signature, error) {
	r, err := wire.NewReader(pp.Curve, wire.TagSignature, data)
	if err != nil {
		return nil, fmt.Errorf("parse signature: %w", err)
	}

	s := &Signature{
		Sigma1: r.G1(),
		Sigma2: r.G1(),
	}

	if err = r.Close(); err != nil {
		return nil, fmt.Errorf("parse signature: %w", err)
	}

	return s, nil
}

// Bytes encodes the blind signature.
func (bs *BlindSignature) Bytes(pp *PublicParameters) []byte {
	w := wire.NewWriter(pp.Curve, wire.TagBlindSignature)

	w.G1(bs.H)
	w.G1(bs.Sigma)

	return w.Finish()
}

// ParseBlindSignature decodes a blind signature produced by Bytes.
func ParseBlindSignature(pp *PublicParameters, data []byte) (*BlindSignature, error) {
	r, err := wire.NewReader(pp.Curve, wire.TagBlindSignature, data)
	if err != nil {
		return nil, fmt.Errorf("parse blind signature: %w", err)
	}

	bs := &BlindSignature{
		H:     r.G1(),
		Sigma: r.G1(),
	}

	if err = r.Close(); err != nil {
		return nil, fmt.Errorf("parse blind signature: %w", err)
	}

	return bs, nil
}
