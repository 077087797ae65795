/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package psthreshold contains threshold blind Pointcheval-Sanders signing primitives over committed
// attribute vectors.
//
// A holder commits to its attributes, proves the commitment well formed and sends the request to the
// issuers. Each issuer holds a Shamir share of the signing key and returns a partial signature. Any
// threshold of partial signatures is combined with Lagrange coefficients into a blind signature,
// which the holder unblinds into a signature over the plain attribute vector.
//
// Nothing in this package is bound to a particular curve: every operation takes the
// PublicParameters that carry the curve chosen at setup.
package psthreshold

import (
	"encoding/binary"
	"fmt"
	"io"

	ml "github.com/IBM/mathlib"

	"github.com/hyperledger/aries-framework-go/component/anoncred/internal/group"
	"github.com/hyperledger/aries-framework-go/component/anoncred/internal/wire"
)

const contextDST = "ANONCRED_CONTEXT_V1:"

// PublicParameters are shared by holders, issuers and verifiers of one credential system.
//
// Bases and BasesTilde hold one commitment base per attribute slot. Blinding and BlindingTilde are
// the bases of the commitment randomness. Each G1 base has the same discrete logarithm with respect
// to G as its G2 counterpart has with respect to GTilde.
type PublicParameters struct {
	CurveID       ml.CurveID
	Curve         *ml.Curve
	N             int
	Context       *ml.Zr
	G             *ml.G1
	GTilde        *ml.G2
	Bases         []*ml.G1
	BasesTilde    []*ml.G2
	Blinding      *ml.G1
	BlindingTilde *ml.G2
}

func curveByID(id ml.CurveID) (*ml.Curve, error) {
	if int(id) < 0 || int(id) >= len(ml.Curves) {
		return nil, fmt.Errorf("unsupported curve %d", id)
	}

	return ml.Curves[id], nil
}

// Setup creates public parameters for attribute vectors of length n. The context scalar is derived
// from label, or sampled when label is empty. The commitment key trapdoors are discarded.
func Setup(rng io.Reader, curveID ml.CurveID, n int, label []byte) (*PublicParameters, error) {
	if rng == nil {
		return nil, ErrNoRandomness
	}

	curve, err := curveByID(curveID)
	if err != nil {
		return nil, err
	}

	if n < 1 {
		return nil, fmt.Errorf("%w: at least one attribute is required", ErrArityMismatch)
	}

	pp := &PublicParameters{
		CurveID:    curveID,
		Curve:      curve,
		N:          n,
		G:          curve.GenG1.Copy(),
		GTilde:     curve.GenG2.Copy(),
		Bases:      make([]*ml.G1, n),
		BasesTilde: make([]*ml.G2, n),
	}

	if len(label) == 0 {
		pp.Context = curve.NewRandomZr(rng)
	} else {
		pp.Context = group.FrFromOKM(curve, append([]byte(contextDST), label...))
	}

	a := curve.NewRandomZr(rng)
	pp.Blinding = pp.G.Mul(a)
	pp.BlindingTilde = pp.GTilde.Mul(a)

	for i := 0; i < n; i++ {
		a = curve.NewRandomZr(rng)
		pp.Bases[i] = pp.G.Mul(a)
		pp.BasesTilde[i] = pp.GTilde.Mul(a)
	}

	return pp, nil
}

// Validate checks the shape of the parameters and that every G1 base matches its G2 counterpart.
func (pp *PublicParameters) Validate() error {
	if pp.Curve == nil || pp.N < 1 || len(pp.Bases) != pp.N || len(pp.BasesTilde) != pp.N {
		return fmt.Errorf("%w: parameters do not describe %d attributes", ErrArityMismatch, pp.N)
	}

	negG := group.NegG1(pp.Curve, pp.G)

	if !group.CompareTwoPairings(pp.Curve, pp.Blinding, pp.GTilde, negG, pp.BlindingTilde) {
		return fmt.Errorf("blinding bases are inconsistent")
	}

	for i := range pp.Bases {
		if !group.CompareTwoPairings(pp.Curve, pp.Bases[i], pp.GTilde, negG, pp.BasesTilde[i]) {
			return fmt.Errorf("commitment bases %d are inconsistent", i)
		}
	}

	return nil
}

func (pp *PublicParameters) checkArity(attributes []*ml.Zr) error {
	if len(attributes) != pp.N {
		return fmt.Errorf("%w: got %d attributes, parameters define %d", ErrArityMismatch, len(attributes), pp.N)
	}

	for i, m := range attributes {
		if m == nil {
			return fmt.Errorf("%w: attribute %d is missing", ErrArityMismatch, i)
		}
	}

	return nil
}

// ContextBytes returns the encoded context scalar, used to bind proofs to this system.
func (pp *PublicParameters) ContextBytes() []byte {
	return pp.Context.Bytes()
}

// Bytes encodes the parameters.
func (pp *PublicParameters) Bytes() []byte {
	w := wire.NewWriter(pp.Curve, wire.TagPublicParameters)

	w.Uint32(int(pp.CurveID))
	w.Uint32(pp.N)
	w.Zr(pp.Context)
	w.G1(pp.G)
	w.G2(pp.GTilde)
	w.G1(pp.Blinding)
	w.G2(pp.BlindingTilde)

	for i := 0; i < pp.N; i++ {
		w.G1(pp.Bases[i])
		w.G2(pp.BasesTilde[i])
	}

	return w.Finish()
}

// ParsePublicParameters decodes and validates parameters produced by Bytes.
func ParsePublicParameters(data []byte) (*PublicParameters, error) {
	const curveIDOffset = 2

	if len(data) < curveIDOffset+4 {
		return nil, fmt.Errorf("parse public parameters: %w: encoding too short", ErrDeserialization)
	}

	id := ml.CurveID(binary.BigEndian.Uint32(data[curveIDOffset:]))

	curve, err := curveByID(id)
	if err != nil {
		return nil, fmt.Errorf("parse public parameters: %w: %v", ErrDeserialization, err)
	}

	r, err := wire.NewReader(curve, wire.TagPublicParameters, data)
	if err != nil {
		return nil, fmt.Errorf("parse public parameters: %w", err)
	}

	pp := &PublicParameters{
		CurveID: ml.CurveID(r.Uint32()),
		Curve:   curve,
	}

	pp.N = r.Count(curve.CompressedG1ByteSize + curve.CompressedG2ByteSize)
	pp.Context = r.Zr()
	pp.G = r.G1()
	pp.GTilde = r.G2()
	pp.Blinding = r.G1()
	pp.BlindingTilde = r.G2()
	pp.Bases = make([]*ml.G1, pp.N)
	pp.BasesTilde = make([]*ml.G2, pp.N)

	for i := 0; i < pp.N; i++ {
		pp.Bases[i] = r.G1()
		pp.BasesTilde[i] = r.G2()
	}

	if err = r.Close(); err != nil {
		return nil, fmt.Errorf("parse public parameters: %w", err)
	}

	if err = pp.Validate(); err != nil {
		return nil, fmt.Errorf("parse public parameters: %w: %v", ErrDeserialization, err)
	}

	return pp, nil
}
