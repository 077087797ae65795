/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package psthreshold

import (
	"fmt"
	"io"

	ml "github.com/IBM/mathlib"
)

// GetLagrangeCoefficientFr computes the lagrange coefficient that is to be applied to the evaluation of the polynomial
// at position evaluationX for an interpolation to position interpolationX if the available evaluated positions are
// defined by indices.
func GetLagrangeCoefficientFr(curve *ml.Curve, indices []int, evaluationX, interpolationX int) *ml.Zr {
	top := curve.NewZrFromInt(1)
	bot := curve.NewZrFromInt(1)

	for _, index := range indices {
		if index == evaluationX {
			continue
		}

		tmpTop := curve.ModSub(curve.NewZrFromInt(int64(interpolationX)), curve.NewZrFromInt(int64(index)),
			curve.GroupOrder)
		top = curve.ModMul(top, tmpTop, curve.GroupOrder)

		tmpBot := curve.ModSub(curve.NewZrFromInt(int64(evaluationX)), curve.NewZrFromInt(int64(index)),
			curve.GroupOrder)
		bot = curve.ModMul(bot, tmpBot, curve.GroupOrder)
	}

	botInv := bot.Copy()
	botInv.InvModP(curve.GroupOrder)

	return curve.ModMul(top, botInv, curve.GroupOrder)
}

// Get0LagrangeCoefficientFr computes the lagrange coefficient that is to be applied to the evaluation of the polynomial
// at position evaluationX for an interpolation to position 0 if the available evaluated positions are defined by indices.
func Get0LagrangeCoefficientFr(curve *ml.Curve, indices []int, evaluationX int) *ml.Zr {
	return GetLagrangeCoefficientFr(curve, indices, evaluationX, 0)
}

// Get0LagrangeCoefficientSetFr computes all lagrange coefficients for an interpolation to position 0 if the available
// evaluated positions are defined by indices.
func Get0LagrangeCoefficientSetFr(curve *ml.Curve, indices []int) []*ml.Zr {
	coefficients := make([]*ml.Zr, len(indices))
	for i, idx := range indices {
		coefficients[i] = Get0LagrangeCoefficientFr(curve, indices, idx)
	}

	return coefficients
}

// checkIndexSet rejects index sets that cannot be interpolated: too small, non-positive or repeated.
func checkIndexSet(indices []int, threshold int) error {
	if len(indices) < threshold {
		return fmt.Errorf("%w: need %d, got %d", ErrInsufficientShares, threshold, len(indices))
	}

	seen := make(map[int]struct{}, len(indices))

	for _, idx := range indices {
		if idx < 1 {
			return fmt.Errorf("%w: index %d", ErrInvalidShare, idx)
		}

		if _, ok := seen[idx]; ok {
			return fmt.Errorf("%w: index %d", ErrDuplicateShare, idx)
		}

		seen[idx] = struct{}{}
	}

	return nil
}

// shamirPolynomial is f(X) = coefficients[0] + coefficients[1]·X + ... of degree t-1.
type shamirPolynomial struct {
	curve        *ml.Curve
	coefficients []*ml.Zr
}

// newShamirPolynomial samples a polynomial of degree t-1 with f(0) = secret.
func newShamirPolynomial(rng io.Reader, curve *ml.Curve, secret *ml.Zr, t int) *shamirPolynomial {
	coefficients := make([]*ml.Zr, t)
	coefficients[0] = secret.Copy()

	for i := 1; i < t; i++ {
		coefficients[i] = curve.NewRandomZr(rng)
	}

	return &shamirPolynomial{curve: curve, coefficients: coefficients}
}

// eval computes f(x) with Horner's rule.
func (p *shamirPolynomial) eval(x int) *ml.Zr {
	xFr := p.curve.NewZrFromInt(int64(x))
	res := p.coefficients[len(p.coefficients)-1].Copy()

	for i := len(p.coefficients) - 2; i >= 0; i-- {
		res = p.curve.ModAdd(p.curve.ModMul(res, xFr, p.curve.GroupOrder), p.coefficients[i], p.curve.GroupOrder)
	}

	return res
}

// shares evaluates the polynomial at 1..n.
func (p *shamirPolynomial) shares(n int) []*ml.Zr {
	shares := make([]*ml.Zr, n)
	for i := 0; i < n; i++ {
		shares[i] = p.eval(i + 1)
	}

	return shares
}

// GetShamirSharedRandomElement generates a t-out-of-n shamir secret sharing of a random element.
// The returned coefficients start with the secret itself.
func GetShamirSharedRandomElement(rng io.Reader, curve *ml.Curve, t, n int) (*ml.Zr, []*ml.Zr, []*ml.Zr) {
	secret := curve.NewRandomZr(rng)
	p := newShamirPolynomial(rng, curve, secret, t)

	return secret, p.coefficients, p.shares(n)
}

// ReconstructSecret interpolates f(0) from shares evaluated at indices.
func ReconstructSecret(curve *ml.Curve, indices []int, shares []*ml.Zr, threshold int) (*ml.Zr, error) {
	if len(indices) != len(shares) {
		return nil, fmt.Errorf("%w: %d indices for %d shares", ErrInvalidShare, len(indices), len(shares))
	}

	if err := checkIndexSet(indices, threshold); err != nil {
		return nil, err
	}

	lambdas := Get0LagrangeCoefficientSetFr(curve, indices)
	secret := curve.NewZrFromInt(0)

	for i := range shares {
		secret = curve.ModAdd(secret, curve.ModMul(lambdas[i], shares[i], curve.GroupOrder), curve.GroupOrder)
	}

	return secret, nil
}
