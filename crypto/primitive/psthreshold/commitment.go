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

// Commitment is a Pedersen commitment to an attribute vector computed in both source groups with the
// same scalars.
type Commitment struct {
	C1 *ml.G1
	C2 *ml.G2
}

type commitmentBuilder[T group.Element[T]] struct {
	bases   []T
	scalars []*ml.Zr
}

func newCommitmentBuilder[T group.Element[T]](expectedSize int) *commitmentBuilder[T] {
	return &commitmentBuilder[T]{
		bases:   make([]T, 0, expectedSize),
		scalars: make([]*ml.Zr, 0, expectedSize),
	}
}

func (cb *commitmentBuilder[T]) add(base T, scalar *ml.Zr) {
	cb.bases = append(cb.bases, base)
	cb.scalars = append(cb.scalars, scalar)
}

func (cb *commitmentBuilder[T]) build() T {
	return group.SumOfProducts(cb.bases, cb.scalars)
}

// Commit commits to attributes with blinding factor r.
func Commit(pp *PublicParameters, attributes []*ml.Zr, r *ml.Zr) (*Commitment, error) {
	if err := pp.checkArity(attributes); err != nil {
		return nil, err
	}

	if r == nil {
		return nil, fmt.Errorf("blinding factor is required")
	}

	cb1 := newCommitmentBuilder[*ml.G1](pp.N + 1)
	cb2 := newCommitmentBuilder[*ml.G2](pp.N + 1)

	cb1.add(pp.Blinding, r)
	cb2.add(pp.BlindingTilde, r)

	for i, m := range attributes {
		cb1.add(pp.Bases[i], m)
		cb2.add(pp.BasesTilde[i], m)
	}

	return &Commitment{
		C1: cb1.build(),
		C2: cb2.build(),
	}, nil
}

// Open reports whether c commits to attributes with blinding factor r.
func (c *Commitment) Open(pp *PublicParameters, attributes []*ml.Zr, r *ml.Zr) bool {
	other, err := Commit(pp, attributes, r)
	if err != nil {
		return false
	}

	return c.Equals(other)
}

// Add returns the commitment to the sum of the committed vectors and blinding factors.
func (c *Commitment) Add(other *Commitment) *Commitment {
	sum := &Commitment{
		C1: c.C1.Copy(),
		C2: c.C2.Copy(),
	}

	sum.C1.Add(other.C1)
	sum.C2.Add(other.C2)

	return sum
}

// Rerandomize returns a commitment to the same attributes with blinding factor r + delta.
func (c *Commitment) Rerandomize(pp *PublicParameters, delta *ml.Zr) *Commitment {
	return c.Add(&Commitment{
		C1: pp.Blinding.Mul(delta),
		C2: pp.BlindingTilde.Mul(delta),
	})
}

// IsConsistent checks e(C1, g~) == e(g, C2), i.e. both halves commit to the same values.
func (c *Commitment) IsConsistent(pp *PublicParameters) bool {
	return group.CompareTwoPairings(pp.Curve, c.C1, pp.GTilde, group.NegG1(pp.Curve, pp.G), c.C2)
}

// Equals compares two commitments.
func (c *Commitment) Equals(other *Commitment) bool {
	return other != nil && c.C1.Equals(other.C1) && c.C2.Equals(other.C2)
}

// Bytes encodes the commitment.
func (c *Commitment) Bytes(pp *PublicParameters) []byte {
	w := wire.NewWriter(pp.Curve, wire.TagCommitment)

	w.G1(c.C1)
	w.G2(c.C2)

	return w.Finish()
}

// ParseCommitment decodes a commitment produced by Bytes.
func ParseCommitment(pp *PublicParameters, data []byte) (*Commitment, error) {
	r, err := wire.NewReader(pp.Curve, wire.TagCommitment, data)
	if err != nil {
		return nil, fmt.Errorf("parse commitment: %w", err)
	}

	c := &Commitment{
		C1: r.G1(),
		C2: r.G2(),
	}

	if err = r.Close(); err != nil {
		return nil, fmt.Errorf("parse commitment: %w", err)
	}

	return c, nil
}
