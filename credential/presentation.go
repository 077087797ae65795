/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"fmt"
	"io"

	ml "github.com/IBM/mathlib"
	"golang.org/x/exp/slices"

	"github.com/hyperledger/aries-framework-go/component/anoncred/crypto/primitive/psthreshold"
	"github.com/hyperledger/aries-framework-go/component/anoncred/crypto/primitive/schnorr"
	"github.com/hyperledger/aries-framework-go/component/anoncred/internal/group"
	"github.com/hyperledger/aries-framework-go/component/anoncred/internal/wire"
)

const presentationLabel = "ANONCRED_PRESENTATION_V1:"

// Presentation proves possession of a credential while revealing only the attributes at
// Disclosed. Sigma1 is a fresh randomisation of the first signature element and
// Sigma2 = (x + Σ y_k·m_k + r)·Sigma1 is the second one blinded by r, so that
// Kappa = X~ + Σ_hidden m_k·Y~_k + r·g~ satisfies e(Sigma1, Kappa + Σ_disclosed m_k·Y~_k) == e(Sigma2, g~).
type Presentation struct {
	Sigma1    *ml.G1
	Sigma2    *ml.G1
	Kappa     *ml.G2
	Disclosed []int
	Values    []*ml.Zr
	Proof     *schnorr.Proof
}

// normalizeDisclosure returns the sorted disclosed indices.
func normalizeDisclosure(n int, disclosed []int) ([]int, error) {
	sorted := slices.Clone(disclosed)
	slices.Sort(sorted)

	if len(slices.Compact(slices.Clone(sorted))) != len(sorted) {
		return nil, fmt.Errorf("%w: repeated attribute index", ErrInvalidDisclosure)
	}

	if len(sorted) > 0 && (sorted[0] < 0 || sorted[len(sorted)-1] >= n) {
		return nil, fmt.Errorf("%w: attribute index out of range [0, %d)", ErrInvalidDisclosure, n)
	}

	return sorted, nil
}

func hiddenIndices(n int, disclosed []int) []int {
	hidden := make([]int, 0, n-len(disclosed))

	for k := 0; k < n; k++ {
		if _, found := slices.BinarySearch(disclosed, k); !found {
			hidden = append(hidden, k)
		}
	}

	return hidden
}

// statement lays witnesses out as [m_k for hidden k..., r].
func (p *Presentation) statement(pp *psthreshold.PublicParameters, vk *psthreshold.VerificationKey,
	hidden []int) *schnorr.Statement {
	bases := make([]*ml.G2, 0, len(hidden)+1)
	witness := make([]int, 0, len(hidden)+1)

	for i, k := range hidden {
		bases = append(bases, vk.YTilde[k])
		witness = append(witness, i)
	}

	bases = append(bases, pp.GTilde)
	witness = append(witness, len(hidden))

	target := p.Kappa.Copy()
	target.Sub(vk.XTilde)

	return &schnorr.Statement{
		G2:        []schnorr.Relation[*ml.G2]{{Bases: bases, Witness: witness, Target: target}},
		Witnesses: len(hidden) + 1,
	}
}

// proofContext binds the parameters, the verifier nonce, both signature elements and the
// disclosed attributes.
func (p *Presentation) proofContext(pp *psthreshold.PublicParameters, nonce []byte) []byte {
	w := wire.NewWriter(pp.Curve, wire.TagPresentation)

	w.Bytes([]byte(presentationLabel))
	w.Bytes(pp.ContextBytes())
	w.Bytes(nonce)
	w.G1(p.Sigma1)
	w.G1(p.Sigma2)
	w.Uint32(len(p.Disclosed))

	for i, k := range p.Disclosed {
		w.Uint32(k)
		w.Zr(p.Values[i])
	}

	return w.Finish()
}

// Present derives a presentation of cred that discloses the attributes at the given indices and is
// bound to nonce. Every call produces an unlinkable presentation.
func Present(rng io.Reader, pp *psthreshold.PublicParameters, vk *psthreshold.VerificationKey, cred *Credential,
	disclosed []int, nonce []byte) (*Presentation, error) {
	if rng == nil {
		return nil, psthreshold.ErrNoRandomness
	}

	if len(cred.Attributes) != pp.N || len(vk.YTilde) != pp.N {
		return nil, fmt.Errorf("%w: credential has %d attributes, parameters define %d",
			psthreshold.ErrArityMismatch, len(cred.Attributes), pp.N)
	}

	sorted, err := normalizeDisclosure(pp.N, disclosed)
	if err != nil {
		return nil, err
	}

	sig, err := cred.Signature.Randomize(rng, pp)
	if err != nil {
		return nil, err
	}

	hidden := hiddenIndices(pp.N, sorted)
	r := pp.Curve.NewRandomZr(rng)

	witnesses := make([]*ml.Zr, 0, len(hidden)+1)
	for _, k := range hidden {
		witnesses = append(witnesses, cred.Attributes[k])
	}

	witnesses = append(witnesses, r)

	bases := make([]*ml.G2, 0, len(hidden)+1)
	for _, k := range hidden {
		bases = append(bases, vk.YTilde[k])
	}

	bases = append(bases, pp.GTilde)

	kappa := vk.XTilde.Copy()
	kappa.Add(group.SumOfProducts(bases, witnesses))

	sigma2 := sig.Sigma2.Copy()
	sigma2.Add(sig.Sigma1.Mul(r))

	p := &Presentation{
		Sigma1:    sig.Sigma1,
		Sigma2:    sigma2,
		Kappa:     kappa,
		Disclosed: sorted,
		Values:    make([]*ml.Zr, len(sorted)),
	}

	for i, k := range sorted {
		p.Values[i] = cred.Attributes[k].Copy()
	}

	p.Proof, err = schnorr.Prove(rng, pp.Curve, p.statement(pp, vk, hidden), witnesses, p.proofContext(pp, nonce))
	if err != nil {
		return nil, fmt.Errorf("prove presentation: %w", err)
	}

	return p, nil
}

func (p *Presentation) complete() bool {
	return p != nil && p.Sigma1 != nil && p.Sigma2 != nil && p.Kappa != nil &&
		p.Proof != nil && len(p.Values) == len(p.Disclosed)
}

// VerifyPresentation checks a presentation against the issuer key and the nonce it must be bound to.
func VerifyPresentation(pp *psthreshold.PublicParameters, vk *psthreshold.VerificationKey, p *Presentation,
	nonce []byte) bool {
	if !p.complete() || len(vk.YTilde) != pp.N || p.Sigma1.IsInfinity() {
		return false
	}

	sorted, err := normalizeDisclosure(pp.N, p.Disclosed)
	if err != nil || !slices.Equal(sorted, p.Disclosed) {
		return false
	}

	st := p.statement(pp, vk, hiddenIndices(pp.N, sorted))

	if err = schnorr.Verify(pp.Curve, st, p.Proof, p.proofContext(pp, nonce)); err != nil {
		return false
	}

	agg := p.Kappa.Copy()

	if len(sorted) > 0 {
		bases := make([]*ml.G2, len(sorted))
		for i, k := range sorted {
			bases[i] = vk.YTilde[k]
		}

		agg.Add(group.SumOfProducts(bases, p.Values))
	}

	return group.CompareTwoPairings(pp.Curve, p.Sigma1, agg, group.NegG1(pp.Curve, p.Sigma2), pp.GTilde)
}

// DisclosedAttributes returns the revealed attributes keyed by index.
func (p *Presentation) DisclosedAttributes() map[int]*ml.Zr {
	res := make(map[int]*ml.Zr, len(p.Disclosed))
	for i, k := range p.Disclosed {
		res[k] = p.Values[i]
	}

	return res
}

// Bytes encodes the presentation.
func (p *Presentation) Bytes(pp *psthreshold.PublicParameters) []byte {
	w := wire.NewWriter(pp.Curve, wire.TagPresentation)

	w.G1(p.Sigma1)
	w.G1(p.Sigma2)
	w.G2(p.Kappa)
	w.Uint32(len(p.Disclosed))

	for _, k := range p.Disclosed {
		w.Uint32(k)
	}

	w.Zrs(p.Values)
	w.Bytes(p.Proof.Bytes(pp.Curve))

	return w.Finish()
}

// ParsePresentation decodes a presentation produced by Bytes. The proof is not verified.
func ParsePresentation(pp *psthreshold.PublicParameters, data []byte) (*Presentation, error) {
	const indexSize = 4

	r, err := wire.NewReader(pp.Curve, wire.TagPresentation, data)
	if err != nil {
		return nil, fmt.Errorf("parse presentation: %w", err)
	}

	p := &Presentation{
		Sigma1: r.G1(),
		Sigma2: r.G1(),
		Kappa:  r.G2(),
	}

	p.Disclosed = make([]int, r.Count(indexSize))
	for i := range p.Disclosed {
		p.Disclosed[i] = r.Uint32()
	}

	p.Values = r.Zrs()
	proofBytes := r.Bytes()

	if err = r.Close(); err != nil {
		return nil, fmt.Errorf("parse presentation: %w", err)
	}

	sorted, err := normalizeDisclosure(pp.N, p.Disclosed)
	if err != nil || !slices.Equal(sorted, p.Disclosed) || len(p.Values) != len(p.Disclosed) {
		return nil, fmt.Errorf("parse presentation: %w: %v", ErrDeserialization, ErrInvalidDisclosure)
	}

	if p.Proof, err = schnorr.ParseProof(pp.Curve, proofBytes); err != nil {
		return nil, fmt.Errorf("parse presentation: %w", err)
	}

	return p, nil
}
