/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package psthreshold

import (
	"fmt"
	"io"

	ml "github.com/IBM/mathlib"
	"github.com/google/uuid"

	"github.com/hyperledger/aries-framework-go/component/anoncred/crypto/primitive/schnorr"
	"github.com/hyperledger/aries-framework-go/component/anoncred/internal/wire"
)

const (
	hashToG1DST   = "ANONCRED_ISSUANCE_H_V1:"
	issuanceLabel = "ANONCRED_ISSUANCE_PROOF_V1:"
)

// BlindSignRequest is sent by a holder to every issuer. It carries a commitment to the attributes,
// the signature base H derived from it, one Pedersen commitment cm_k = o_k·G + m_k·H per attribute
// and a proof that all of them open to the same attribute vector.
type BlindSignRequest struct {
	ID                   string
	Commitment           *Commitment
	H                    *ml.G1
	AttributeCommitments []*ml.G1
	Proof                *schnorr.Proof
}

// BlindingSecrets are kept by the holder to open the commitments of a BlindSignRequest.
type BlindingSecrets struct {
	Blinding *ml.Zr
	Openings []*ml.Zr
}

func hashToH(pp *PublicParameters, c *Commitment) *ml.G1 {
	msg := append([]byte(hashToG1DST), pp.ContextBytes()...)
	msg = append(msg, c.C1.Compressed()...)

	return pp.Curve.HashToG1(msg)
}

// NewBlindSignRequest commits to attributes and proves the request well formed.
func NewBlindSignRequest(rng io.Reader, pp *PublicParameters,
	attributes []*ml.Zr) (*BlindSignRequest, *BlindingSecrets, error) {
	if rng == nil {
		return nil, nil, ErrNoRandomness
	}

	if err := pp.checkArity(attributes); err != nil {
		return nil, nil, err
	}

	secrets := &BlindingSecrets{
		Blinding: pp.Curve.NewRandomZr(rng),
		Openings: make([]*ml.Zr, pp.N),
	}

	commitment, err := Commit(pp, attributes, secrets.Blinding)
	if err != nil {
		return nil, nil, err
	}

	req := &BlindSignRequest{
		ID:                   uuid.New().URN(),
		Commitment:           commitment,
		H:                    hashToH(pp, commitment),
		AttributeCommitments: make([]*ml.G1, pp.N),
	}

	for k, m := range attributes {
		secrets.Openings[k] = pp.Curve.NewRandomZr(rng)
		req.AttributeCommitments[k] = pp.G.Mul2(secrets.Openings[k], req.H, m)
	}

	witnesses := make([]*ml.Zr, 0, 2*pp.N+1)
	witnesses = append(witnesses, attributes...)
	witnesses = append(witnesses, secrets.Blinding)
	witnesses = append(witnesses, secrets.Openings...)

	req.Proof, err = schnorr.Prove(rng, pp.Curve, req.statement(pp), witnesses, issuanceContext(pp))
	if err != nil {
		return nil, nil, fmt.Errorf("prove request: %w", err)
	}

	return req, secrets, nil
}

func issuanceContext(pp *PublicParameters) []byte {
	return append([]byte(issuanceLabel), pp.ContextBytes()...)
}

// statement lays witnesses out as [m_0..m_{n-1}, r, o_0..o_{n-1}].
func (req *BlindSignRequest) statement(pp *PublicParameters) *schnorr.Statement {
	n := pp.N
	blindingIdx := n

	commitIdx := make([]int, 0, n+1)
	commitIdx = append(commitIdx, blindingIdx)

	for k := 0; k < n; k++ {
		commitIdx = append(commitIdx, k)
	}

	st := &schnorr.Statement{
		G1: make([]schnorr.Relation[*ml.G1], 0, n+1),
		G2: []schnorr.Relation[*ml.G2]{{
			Bases:   append([]*ml.G2{pp.BlindingTilde}, pp.BasesTilde...),
			Witness: commitIdx,
			Target:  req.Commitment.C2,
		}},
		Witnesses: 2*n + 1,
	}

	st.G1 = append(st.G1, schnorr.Relation[*ml.G1]{
		Bases:   append([]*ml.G1{pp.Blinding}, pp.Bases...),
		Witness: commitIdx,
		Target:  req.Commitment.C1,
	})

	for k := 0; k < n; k++ {
		st.G1 = append(st.G1, schnorr.Relation[*ml.G1]{
			Bases:   []*ml.G1{pp.G, req.H},
			Witness: []int{blindingIdx + 1 + k, k},
			Target:  req.AttributeCommitments[k],
		})
	}

	return st
}

// Verify checks the request proof. It returns ErrInvalidProof for requests that must not be signed.
func (req *BlindSignRequest) Verify(pp *PublicParameters) error {
	if req.Commitment == nil || req.H == nil || req.Proof == nil {
		return fmt.Errorf("%w: incomplete request", ErrMalformedStatement)
	}

	if len(req.AttributeCommitments) != pp.N {
		return fmt.Errorf("%w: got %d attribute commitments, parameters define %d", ErrArityMismatch,
			len(req.AttributeCommitments), pp.N)
	}

	if !req.H.Equals(hashToH(pp, req.Commitment)) {
		return fmt.Errorf("%w: signature base is not derived from the commitment", ErrInvalidProof)
	}

	return schnorr.Verify(pp.Curve, req.statement(pp), req.Proof, issuanceContext(pp))
}

// Bytes encodes the request.
func (req *BlindSignRequest) Bytes(pp *PublicParameters) []byte {
	w := wire.NewWriter(pp.Curve, wire.TagBlindSignRequest)

	w.Bytes([]byte(req.ID))
	w.G1(req.Commitment.C1)
	w.G2(req.Commitment.C2)
	w.G1(req.H)
	w.G1s(req.AttributeCommitments)
	w.Bytes(req.Proof.Bytes(pp.Curve))

	return w.Finish()
}

// ParseBlindSignRequest decodes a request produced by Bytes. The proof is not verified.
func ParseBlindSignRequest(pp *PublicParameters, data []byte) (*BlindSignRequest, error) {
	r, err := wire.NewReader(pp.Curve, wire.TagBlindSignRequest, data)
	if err != nil {
		return nil, fmt.Errorf("parse blind sign request: %w", err)
	}

	req := &BlindSignRequest{
		ID:         string(r.Bytes()),
		Commitment: &Commitment{C1: r.G1(), C2: r.G2()},
		H:          r.G1(),
	}

	req.AttributeCommitments = r.G1s()
	proofBytes := r.Bytes()

	if err = r.Close(); err != nil {
		return nil, fmt.Errorf("parse blind sign request: %w", err)
	}

	if len(req.AttributeCommitments) != pp.N {
		return nil, fmt.Errorf("parse blind sign request: %w: %v", ErrDeserialization, ErrArityMismatch)
	}

	req.Proof, err = schnorr.ParseProof(pp.Curve, proofBytes)
	if err != nil {
		return nil, fmt.Errorf("parse blind sign request: %w", err)
	}

	return req, nil
}
