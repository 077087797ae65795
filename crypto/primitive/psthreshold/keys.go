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

// SecretKey is a single issuer signing key: one exponent x and one exponent per attribute.
type SecretKey struct {
	X *ml.Zr
	Y []*ml.Zr
}

// VerificationKey is the public counterpart of a SecretKey. XTilde and YTilde are used for verification,
// Y (the attribute exponents in G1) lets holders unblind signatures.
type VerificationKey struct {
	XTilde *ml.G2
	YTilde []*ml.G2
	Y      []*ml.G1
}

// SecretKeyShare is the share of issuer Index of a threshold signing key.
type SecretKeyShare struct {
	Index int
	X     *ml.Zr
	Y     []*ml.Zr
}

// VerificationKeyShare is the public counterpart of a SecretKeyShare, used to check partial signatures.
type VerificationKeyShare struct {
	Index int
	VerificationKey
}

// ShareCommitments commit to the coefficients of the sharing polynomials of x and of every y_k,
// multiplied by the G2 generator.
type ShareCommitments struct {
	X []*ml.G2
	Y [][]*ml.G2
}

// ThresholdKeySet is the output of a trusted dealer for Parties issuers with the given Threshold.
type ThresholdKeySet struct {
	Threshold          int
	Parties            int
	VerificationKey    *VerificationKey
	Shares             []*SecretKeyShare
	VerificationShares []*VerificationKeyShare
	Commitments        *ShareCommitments
}

func verificationKey(pp *PublicParameters, x *ml.Zr, y []*ml.Zr) *VerificationKey {
	vk := &VerificationKey{
		XTilde: pp.GTilde.Mul(x),
		YTilde: make([]*ml.G2, len(y)),
		Y:      make([]*ml.G1, len(y)),
	}

	for i, yi := range y {
		vk.YTilde[i] = pp.GTilde.Mul(yi)
		vk.Y[i] = pp.G.Mul(yi)
	}

	return vk
}

// GenerateKeyPair creates a single issuer key pair.
func GenerateKeyPair(rng io.Reader, pp *PublicParameters) (*SecretKey, *VerificationKey, error) {
	if rng == nil {
		return nil, nil, ErrNoRandomness
	}

	sk := &SecretKey{
		X: pp.Curve.NewRandomZr(rng),
		Y: make([]*ml.Zr, pp.N),
	}

	for i := range sk.Y {
		sk.Y[i] = pp.Curve.NewRandomZr(rng)
	}

	return sk, sk.VerificationKey(pp), nil
}

// VerificationKey derives the verification key.
func (sk *SecretKey) VerificationKey(pp *PublicParameters) *VerificationKey {
	return verificationKey(pp, sk.X, sk.Y)
}

// VerificationKeyShare derives the verification key share.
func (s *SecretKeyShare) VerificationKeyShare(pp *PublicParameters) *VerificationKeyShare {
	return &VerificationKeyShare{
		Index:           s.Index,
		VerificationKey: *verificationKey(pp, s.X, s.Y),
	}
}

// GenerateThresholdKeys deals a t-out-of-n sharing of a fresh signing key. Issuers are indexed 1..n.
func GenerateThresholdKeys(rng io.Reader, pp *PublicParameters, t, n int) (*ThresholdKeySet, error) {
	if rng == nil {
		return nil, ErrNoRandomness
	}

	if t < 1 || t > n {
		return nil, fmt.Errorf("invalid threshold %d for %d parties", t, n)
	}

	x, xCoefficients, xShares := GetShamirSharedRandomElement(rng, pp.Curve, t, n)

	y := make([]*ml.Zr, pp.N)
	yCoefficients := make([][]*ml.Zr, pp.N)
	yShares := make([][]*ml.Zr, pp.N)

	for k := 0; k < pp.N; k++ {
		y[k], yCoefficients[k], yShares[k] = GetShamirSharedRandomElement(rng, pp.Curve, t, n)
	}

	ks := &ThresholdKeySet{
		Threshold:          t,
		Parties:            n,
		VerificationKey:    verificationKey(pp, x, y),
		Shares:             make([]*SecretKeyShare, n),
		VerificationShares: make([]*VerificationKeyShare, n),
		Commitments: &ShareCommitments{
			X: commitCoefficients(pp, xCoefficients),
			Y: make([][]*ml.G2, pp.N),
		},
	}

	for k := range yCoefficients {
		ks.Commitments.Y[k] = commitCoefficients(pp, yCoefficients[k])
	}

	for i := 0; i < n; i++ {
		share := &SecretKeyShare{
			Index: i + 1,
			X:     xShares[i],
			Y:     make([]*ml.Zr, pp.N),
		}

		for k := range share.Y {
			share.Y[k] = yShares[k][i]
		}

		ks.Shares[i] = share
		ks.VerificationShares[i] = share.VerificationKeyShare(pp)
	}

	return ks, nil
}

func commitCoefficients(pp *PublicParameters, coefficients []*ml.Zr) []*ml.G2 {
	res := make([]*ml.G2, len(coefficients))
	for j, a := range coefficients {
		res[j] = pp.GTilde.Mul(a)
	}

	return res
}

// VerifyShare checks a secret key share against the dealer commitments without learning the key.
func (c *ShareCommitments) VerifyShare(pp *PublicParameters, share *SecretKeyShare) bool {
	if share == nil || share.Index < 1 || len(share.Y) != len(c.Y) || len(c.X) == 0 {
		return false
	}

	powers := make([]*ml.Zr, len(c.X))
	powers[0] = pp.Curve.NewZrFromInt(1)
	idx := pp.Curve.NewZrFromInt(int64(share.Index))

	for j := 1; j < len(powers); j++ {
		powers[j] = pp.Curve.ModMul(powers[j-1], idx, pp.Curve.GroupOrder)
	}

	if !pp.GTilde.Mul(share.X).Equals(group.SumOfProducts(c.X, powers)) {
		return false
	}

	for k := range c.Y {
		if len(c.Y[k]) != len(powers) {
			return false
		}

		if !pp.GTilde.Mul(share.Y[k]).Equals(group.SumOfProducts(c.Y[k], powers)) {
			return false
		}
	}

	return true
}

// AggregateVerificationKeys interpolates the verification key from at least threshold verification
// key shares.
func AggregateVerificationKeys(pp *PublicParameters, shares []*VerificationKeyShare,
	threshold int) (*VerificationKey, error) {
	indices := make([]int, len(shares))

	for i, s := range shares {
		if len(s.YTilde) != pp.N || len(s.Y) != pp.N {
			return nil, fmt.Errorf("%w: verification key share %d", ErrArityMismatch, s.Index)
		}

		indices[i] = s.Index
	}

	if err := checkIndexSet(indices, threshold); err != nil {
		return nil, err
	}

	lambdas := Get0LagrangeCoefficientSetFr(pp.Curve, indices)

	xs := make([]*ml.G2, len(shares))
	for i, s := range shares {
		xs[i] = s.XTilde
	}

	vk := &VerificationKey{
		XTilde: group.SumOfProducts(xs, lambdas),
		YTilde: make([]*ml.G2, pp.N),
		Y:      make([]*ml.G1, pp.N),
	}

	for k := 0; k < pp.N; k++ {
		ysTilde := make([]*ml.G2, len(shares))
		ys := make([]*ml.G1, len(shares))

		for i, s := range shares {
			ysTilde[i] = s.YTilde[k]
			ys[i] = s.Y[k]
		}

		vk.YTilde[k] = group.SumOfProducts(ysTilde, lambdas)
		vk.Y[k] = group.SumOfProducts(ys, lambdas)
	}

	return vk, nil
}

// Equals compares two verification keys.
func (vk *VerificationKey) Equals(other *VerificationKey) bool {
	if other == nil || len(vk.YTilde) != len(other.YTilde) || len(vk.Y) != len(other.Y) ||
		!vk.XTilde.Equals(other.XTilde) {
		return false
	}

	for i := range vk.YTilde {
		if !vk.YTilde[i].Equals(other.YTilde[i]) || !vk.Y[i].Equals(other.Y[i]) {
			return false
		}
	}

	return true
}

func (vk *VerificationKey) checkArity(pp *PublicParameters) error {
	if vk.XTilde == nil || len(vk.YTilde) != pp.N || len(vk.Y) != pp.N {
		return fmt.Errorf("%w: verification key does not match parameters", ErrArityMismatch)
	}

	return nil
}

func (vk *VerificationKey) write(w *wire.Writer) {
	w.G2(vk.XTilde)
	w.G2s(vk.YTilde)
	w.G1s(vk.Y)
}

func readVerificationKey(r *wire.Reader) VerificationKey {
	return VerificationKey{
		XTilde: r.G2(),
		YTilde: r.G2s(),
		Y:      r.G1s(),
	}
}

// Bytes encodes the verification key.
func (vk *VerificationKey) Bytes(pp *PublicParameters) []byte {
	w := wire.NewWriter(pp.Curve, wire.TagVerificationKey)
	vk.write(w)

	return w.Finish()
}

// ParseVerificationKey decodes a verification key produced by Bytes.
func ParseVerificationKey(pp *PublicParameters, data []byte) (*VerificationKey, error) {
	r, err := wire.NewReader(pp.Curve, wire.TagVerificationKey, data)
	if err != nil {
		return nil, fmt.Errorf("parse verification key: %w", err)
	}

	vk := readVerificationKey(r)

	if err = r.Close(); err != nil {
		return nil, fmt.Errorf("parse verification key: %w", err)
	}

	if err = vk.checkArity(pp); err != nil {
		return nil, fmt.Errorf("parse verification key: %w: %v", ErrDeserialization, err)
	}

	return &vk, nil
}

// Bytes encodes the verification key share.
func (s *VerificationKeyShare) Bytes(pp *PublicParameters) []byte {
	w := wire.NewWriter(pp.Curve, wire.TagVerificationKeyShare)
	w.Uint32(s.Index)
	s.write(w)

	return w.Finish()
}

// ParseVerificationKeyShare decodes a verification key share produced by Bytes.
func ParseVerificationKeyShare(pp *PublicParameters, data []byte) (*VerificationKeyShare, error) {
	r, err := wire.NewReader(pp.Curve, wire.TagVerificationKeyShare, data)
	if err != nil {
		return nil, fmt.Errorf("parse verification key share: %w", err)
	}

	s := &VerificationKeyShare{Index: r.Uint32()}
	s.VerificationKey = readVerificationKey(r)

	if err = r.Close(); err != nil {
		return nil, fmt.Errorf("parse verification key share: %w", err)
	}

	if s.Index < 1 {
		return nil, fmt.Errorf("parse verification key share: %w: %v", ErrDeserialization, ErrInvalidShare)
	}

	if err = s.checkArity(pp); err != nil {
		return nil, fmt.Errorf("parse verification key share: %w: %v", ErrDeserialization, err)
	}

	return s, nil
}
