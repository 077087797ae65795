/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package credential builds anonymous credentials on top of threshold PS signatures: holder-side
// issuance sessions, issuance coordination across a committee of signers, rerandomisable credentials
// and selective-disclosure presentations with replay protection on the verifier side.
package credential

import (
	"fmt"
	"io"

	ml "github.com/IBM/mathlib"

	"github.com/hyperledger/aries-framework-go/component/anoncred/crypto/primitive/psthreshold"
	"github.com/hyperledger/aries-framework-go/component/anoncred/internal/wire"
)

// Credential is a signature held together with the attributes it covers and an opening of the
// commitment the holder used to request it.
type Credential struct {
	Commitment *psthreshold.Commitment
	Signature  *psthreshold.Signature
	Context    *ml.Zr
	Attributes []*ml.Zr
	Blinding   *ml.Zr
}

// Verify checks the signature and the commitment opening.
func (c *Credential) Verify(pp *psthreshold.PublicParameters, vk *psthreshold.VerificationKey) (bool, error) {
	if !c.Context.Equals(pp.Context) {
		return false, nil
	}

	ok, err := c.Signature.Verify(pp, vk, c.Attributes)
	if err != nil || !ok {
		return false, err
	}

	return c.Commitment.Open(pp, c.Attributes, c.Blinding), nil
}

// Randomize returns an unlinkable copy of the credential: a rerandomised signature and a
// commitment re-blinded with a fresh offset.
func (c *Credential) Randomize(rng io.Reader, pp *psthreshold.PublicParameters) (*Credential, error) {
	if rng == nil {
		return nil, psthreshold.ErrNoRandomness
	}

	sig, err := c.Signature.Randomize(rng, pp)
	if err != nil {
		return nil, err
	}

	delta := pp.Curve.NewRandomZr(rng)

	return &Credential{
		Commitment: c.Commitment.Rerandomize(pp, delta),
		Signature:  sig,
		Context:    c.Context.Copy(),
		Attributes: c.Attributes,
		Blinding:   pp.Curve.ModAdd(c.Blinding, delta, pp.Curve.GroupOrder),
	}, nil
}

// Bytes encodes the credential. The encoding contains the attributes and the blinding in the clear.
func (c *Credential) Bytes(pp *psthreshold.PublicParameters) []byte {
	w := wire.NewWriter(pp.Curve, wire.TagCredential)

	w.Zr(c.Context)
	w.Bytes(c.Commitment.Bytes(pp))
	w.Bytes(c.Signature.Bytes(pp))
	w.Zrs(c.Attributes)
	w.Zr(c.Blinding)

	return w.Finish()
}

// ParseCredential decodes a credential produced by Bytes for the same parameters.
func ParseCredential(pp *psthreshold.PublicParameters, data []byte) (*Credential, error) {
	r, err := wire.NewReader(pp.Curve, wire.TagCredential, data)
	if err != nil {
		return nil, fmt.Errorf("parse credential: %w", err)
	}

	c := &Credential{Context: r.Zr()}
	commitmentBytes := r.Bytes()
	signatureBytes := r.Bytes()
	c.Attributes = r.Zrs()
	c.Blinding = r.Zr()

	if err = r.Close(); err != nil {
		return nil, fmt.Errorf("parse credential: %w", err)
	}

	if !c.Context.Equals(pp.Context) {
		return nil, fmt.Errorf("parse credential: %w: context does not match parameters", ErrDeserialization)
	}

	if len(c.Attributes) != pp.N {
		return nil, fmt.Errorf("parse credential: %w: %v", ErrDeserialization, psthreshold.ErrArityMismatch)
	}

	if c.Commitment, err = psthreshold.ParseCommitment(pp, commitmentBytes); err != nil {
		return nil, fmt.Errorf("parse credential: %w", err)
	}

	if c.Signature, err = psthreshold.ParseSignature(pp, signatureBytes); err != nil {
		return nil, fmt.Errorf("parse credential: %w", err)
	}

	return c, nil
}
