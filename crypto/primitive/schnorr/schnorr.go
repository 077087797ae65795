/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package schnorr implements non-interactive proofs of knowledge of discrete-log representations.
//
// A Statement is a conjunction of linear relations Y_j = Σ x_i·B_ij over G1 and G2. Witnesses are
// shared across relations by index, so one response proves that the same secret appears in every
// relation referring to it. Challenges are derived with Fiat-Shamir over the full statement, the
// prover commitments and a caller supplied context.
package schnorr

import (
	"errors"
	"fmt"
	"io"

	ml "github.com/IBM/mathlib"

	"github.com/hyperledger/aries-framework-go/component/anoncred/internal/group"
	"github.com/hyperledger/aries-framework-go/component/anoncred/internal/wire"
)

var (
	// ErrInvalidProof is returned when a proof does not verify against its statement.
	ErrInvalidProof = errors.New("invalid proof")

	// ErrMalformedStatement is returned when a statement, its witnesses and a proof disagree in shape.
	ErrMalformedStatement = errors.New("malformed statement")
)

const challengeDST = "ANONCRED_SCHNORR_CHALLENGE_V1"

// Relation states Target = Σ w[Witness[i]]·Bases[i].
type Relation[T group.Element[T]] struct {
	Bases   []T
	Witness []int
	Target  T
}

// Statement is a conjunction of relations over a common witness vector of length Witnesses.
type Statement struct {
	G1        []Relation[*ml.G1]
	G2        []Relation[*ml.G2]
	Witnesses int
}

// Proof is a Fiat-Shamir Schnorr proof for a Statement.
type Proof struct {
	CommitmentsG1 []*ml.G1
	CommitmentsG2 []*ml.G2
	Challenge     *ml.Zr
	Responses     []*ml.Zr
}

func checkRelation[T group.Element[T]](r *Relation[T], witnesses int) error {
	if len(r.Bases) == 0 || len(r.Bases) != len(r.Witness) {
		return fmt.Errorf("%w: %d bases for %d witness references", ErrMalformedStatement,
			len(r.Bases), len(r.Witness))
	}

	if group.IsNil(r.Target) {
		return fmt.Errorf("%w: missing target", ErrMalformedStatement)
	}

	for i, w := range r.Witness {
		if w < 0 || w >= witnesses {
			return fmt.Errorf("%w: witness index %d out of range", ErrMalformedStatement, w)
		}

		if group.IsNil(r.Bases[i]) {
			return fmt.Errorf("%w: missing base %d", ErrMalformedStatement, i)
		}
	}

	return nil
}

func (s *Statement) check() error {
	if s == nil || s.Witnesses < 1 || len(s.G1)+len(s.G2) == 0 {
		return fmt.Errorf("%w: empty statement", ErrMalformedStatement)
	}

	used := make([]bool, s.Witnesses)

	for i := range s.G1 {
		if err := checkRelation(&s.G1[i], s.Witnesses); err != nil {
			return err
		}

		for _, w := range s.G1[i].Witness {
			used[w] = true
		}
	}

	for i := range s.G2 {
		if err := checkRelation(&s.G2[i], s.Witnesses); err != nil {
			return err
		}

		for _, w := range s.G2[i].Witness {
			used[w] = true
		}
	}

	for i, u := range used {
		if !u {
			return fmt.Errorf("%w: witness %d is not bound by any relation", ErrMalformedStatement, i)
		}
	}

	return nil
}

func pick(scalars []*ml.Zr, idx []int) []*ml.Zr {
	res := make([]*ml.Zr, len(idx))
	for i, w := range idx {
		res[i] = scalars[w]
	}

	return res
}

// Prove creates a proof that witnesses satisfy the statement. Blinding scalars are drawn from rng
// on every call.
func Prove(rng io.Reader, curve *ml.Curve, s *Statement, witnesses []*ml.Zr, context []byte) (*Proof, error) {
	if rng == nil {
		return nil, errors.New("randomness source is required")
	}

	if err := s.check(); err != nil {
		return nil, err
	}

	if len(witnesses) != s.Witnesses {
		return nil, fmt.Errorf("%w: %d witnesses supplied, statement needs %d", ErrMalformedStatement,
			len(witnesses), s.Witnesses)
	}

	blindings := make([]*ml.Zr, s.Witnesses)
	for i := range blindings {
		blindings[i] = curve.NewRandomZr(rng)
	}

	proof := &Proof{
		CommitmentsG1: make([]*ml.G1, len(s.G1)),
		CommitmentsG2: make([]*ml.G2, len(s.G2)),
		Responses:     make([]*ml.Zr, s.Witnesses),
	}

	for j, r := range s.G1 {
		proof.CommitmentsG1[j] = group.SumOfProducts(r.Bases, pick(blindings, r.Witness))
	}

	for j, r := range s.G2 {
		proof.CommitmentsG2[j] = group.SumOfProducts(r.Bases, pick(blindings, r.Witness))
	}

	proof.Challenge = challenge(curve, s, proof, context)

	for i := range proof.Responses {
		proof.Responses[i] = curve.ModAdd(blindings[i],
			curve.ModMul(proof.Challenge, witnesses[i], curve.GroupOrder), curve.GroupOrder)
	}

	return proof, nil
}

// recommit computes Σ s_i·B_i - c·Y for one relation.
func recommit[T group.Element[T]](r *Relation[T], responses []*ml.Zr, c *ml.Zr) T {
	t := group.SumOfProducts(r.Bases, pick(responses, r.Witness))
	t.Sub(r.Target.Mul(c))

	return t
}

// Verify checks proof against the statement and context. It returns ErrMalformedStatement when
// the proof does not fit the statement and ErrInvalidProof when verification fails.
func Verify(curve *ml.Curve, s *Statement, proof *Proof, context []byte) error {
	if err := s.check(); err != nil {
		return err
	}

	if proof == nil || proof.Challenge == nil ||
		len(proof.CommitmentsG1) != len(s.G1) ||
		len(proof.CommitmentsG2) != len(s.G2) ||
		len(proof.Responses) != s.Witnesses {
		return fmt.Errorf("%w: proof does not match statement shape", ErrMalformedStatement)
	}

	for _, z := range proof.Responses {
		if z == nil {
			return fmt.Errorf("%w: missing response", ErrMalformedStatement)
		}
	}

	for _, c := range proof.CommitmentsG1 {
		if c == nil {
			return fmt.Errorf("%w: missing commitment", ErrMalformedStatement)
		}
	}

	for _, c := range proof.CommitmentsG2 {
		if c == nil {
			return fmt.Errorf("%w: missing commitment", ErrMalformedStatement)
		}
	}

	if !challenge(curve, s, proof, context).Equals(proof.Challenge) {
		return fmt.Errorf("%w: challenge mismatch", ErrInvalidProof)
	}

	for j := range s.G1 {
		if !recommit(&s.G1[j], proof.Responses, proof.Challenge).Equals(proof.CommitmentsG1[j]) {
			return fmt.Errorf("%w: G1 relation %d", ErrInvalidProof, j)
		}
	}

	for j := range s.G2 {
		if !recommit(&s.G2[j], proof.Responses, proof.Challenge).Equals(proof.CommitmentsG2[j]) {
			return fmt.Errorf("%w: G2 relation %d", ErrInvalidProof, j)
		}
	}

	return nil
}

type transcript struct {
	buf []byte
}

func (t *transcript) uint32(v int) {
	t.buf = append(t.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func (t *transcript) bytes(b []byte) {
	t.uint32(len(b))
	t.buf = append(t.buf, b...)
}

func appendRelation[T group.Element[T]](t *transcript, r *Relation[T], commitment T) {
	t.uint32(len(r.Bases))

	for i, b := range r.Bases {
		t.uint32(r.Witness[i])
		t.bytes(b.Compressed())
	}

	t.bytes(r.Target.Compressed())

	if !group.IsNil(commitment) {
		t.bytes(commitment.Compressed())
	}
}

func challenge(curve *ml.Curve, s *Statement, proof *Proof, context []byte) *ml.Zr {
	t := &transcript{buf: []byte(challengeDST)}

	t.bytes(context)
	t.uint32(s.Witnesses)
	t.uint32(len(s.G1))

	for j := range s.G1 {
		appendRelation(t, &s.G1[j], proof.CommitmentsG1[j])
	}

	t.uint32(len(s.G2))

	for j := range s.G2 {
		appendRelation(t, &s.G2[j], proof.CommitmentsG2[j])
	}

	return group.FrFromOKM(curve, t.buf)
}

// Bytes encodes the proof.
func (p *Proof) Bytes(curve *ml.Curve) []byte {
	w := wire.NewWriter(curve, wire.TagProof)

	w.G1s(p.CommitmentsG1)
	w.G2s(p.CommitmentsG2)
	w.Zr(p.Challenge)
	w.Zrs(p.Responses)

	return w.Finish()
}

// ParseProof decodes a proof produced by Bytes.
func ParseProof(curve *ml.Curve, data []byte) (*Proof, error) {
	r, err := wire.NewReader(curve, wire.TagProof, data)
	if err != nil {
		return nil, fmt.Errorf("parse proof: %w", err)
	}

	p := &Proof{
		CommitmentsG1: r.G1s(),
		CommitmentsG2: r.G2s(),
		Challenge:     r.Zr(),
		Responses:     r.Zrs(),
	}

	if err = r.Close(); err != nil {
		return nil, fmt.Errorf("parse proof: %w", err)
	}

	return p, nil
}
