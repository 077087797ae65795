/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package group holds the curve-agnostic helpers shared by the credential primitives: a generic
// constraint over the two source groups, multi-scalar multiplication, pairing product checks and
// hashing into the scalar field.
package group

import (
	"runtime"
	"sync"

	ml "github.com/IBM/mathlib"
	"golang.org/x/crypto/blake2b"
)

// Element is implemented by *ml.G1 and *ml.G2.
type Element[T any] interface {
	Add(T)
	Sub(T)
	Mul(*ml.Zr) T
	Copy() T
	Equals(T) bool
	Bytes() []byte
	Compressed() []byte
}

// Inputs of at least this many terms are reduced on several goroutines.
const parallelCutoff = 32

// SumOfProducts computes Σ scalars[i]·bases[i]. Both slices must be non-empty and of equal length.
func SumOfProducts[T Element[T]](bases []T, scalars []*ml.Zr) T {
	workers := runtime.NumCPU()
	if len(bases) < parallelCutoff || workers < 2 {
		return sumRange(bases, scalars)
	}

	chunk := (len(bases) + workers - 1) / workers
	partial := make([]T, 0, workers)

	for start := 0; start < len(bases); start += chunk {
		partial = append(partial, *new(T))
	}

	var wg sync.WaitGroup

	for i := range partial {
		start := i * chunk
		end := start + chunk

		if end > len(bases) {
			end = len(bases)
		}

		wg.Add(1)

		go func(i, start, end int) {
			defer wg.Done()

			partial[i] = sumRange(bases[start:end], scalars[start:end])
		}(i, start, end)
	}

	wg.Wait()

	res := partial[0]
	for _, p := range partial[1:] {
		res.Add(p)
	}

	return res
}

func sumRange[T Element[T]](bases []T, scalars []*ml.Zr) T {
	res := bases[0].Mul(scalars[0])

	for i := 1; i < len(bases); i++ {
		res.Add(bases[i].Mul(scalars[i]))
	}

	return res
}

// IsNil reports whether e is a nil pointer.
func IsNil[T Element[T]](e T) bool {
	var zero T

	return any(e) == any(zero)
}

// NegG1 returns -p.
func NegG1(curve *ml.Curve, p *ml.G1) *ml.G1 {
	neg := curve.NewG1()
	neg.Sub(p)

	return neg
}

// PairingProductIsUnity checks that Π e(g1s[i], g2s[i]) is the identity of GT.
func PairingProductIsUnity(curve *ml.Curve, g1s []*ml.G1, g2s []*ml.G2) bool {
	if len(g1s) == 0 || len(g1s) != len(g2s) {
		return false
	}

	var acc *ml.Gt

	for i := 0; i < len(g1s); i += 2 {
		var gt *ml.Gt

		if i+1 < len(g1s) {
			gt = curve.Pairing2(g2s[i], g1s[i], g2s[i+1], g1s[i+1])
		} else {
			gt = curve.Pairing(g2s[i], g1s[i])
		}

		if acc == nil {
			acc = gt
		} else {
			acc.Mul(gt)
		}
	}

	return curve.FExp(acc).IsUnity()
}

// CompareTwoPairings checks e(p1, q1)·e(p2, q2) == 1.
func CompareTwoPairings(curve *ml.Curve, p1 *ml.G1, q1 *ml.G2, p2 *ml.G1, q2 *ml.G2) bool {
	p := curve.Pairing2(q1, p1, q2, p2)
	p = curve.FExp(p)

	return p.IsUnity()
}

// FrFromOKM hashes message into the scalar field of curve.
func FrFromOKM(curve *ml.Curve, message []byte) *ml.Zr {
	const okmMiddle = 24

	// We pass a null key so error is impossible here.
	h, _ := blake2b.New384(nil) //nolint:errcheck

	// blake2b.digest() does not return an error.
	_, _ = h.Write(message)
	okm := h.Sum(nil)

	elm := ScalarFromBytes(curve, okm[:okmMiddle])
	elm = curve.ModMul(elm, f2192(curve), curve.GroupOrder)

	fr := ScalarFromBytes(curve, okm[okmMiddle:])

	return curve.ModAdd(elm, fr, curve.GroupOrder)
}

// f2192 returns 2^192.
func f2192(curve *ml.Curve) *ml.Zr {
	const twoTo192Len = 25

	b := make([]byte, twoTo192Len)
	b[0] = 1

	return ScalarFromBytes(curve, b)
}

// ScalarFromBytes reads a big-endian integer no longer than the curve scalar size.
func ScalarFromBytes(curve *ml.Curve, b []byte) *ml.Zr {
	padded := make([]byte, curve.ScalarByteSize)
	copy(padded[len(padded)-len(b):], b)

	return curve.NewZrFromBytes(padded)
}
