/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package wire implements the fixed-layout binary encoding shared by every credential entity.
//
// An encoding is tag(1) || version(1) || body || checksum(8), where the checksum is the
// big-endian xxhash64 of everything before it. Points are compressed, scalars use the curve
// scalar size and counts are big-endian uint32 values.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	ml "github.com/IBM/mathlib"
	"github.com/cespare/xxhash/v2"
)

// ErrDeserialization is returned for any malformed encoding.
var ErrDeserialization = errors.New("deserialization error")

// Version of the encoding layout.
const Version = 1

// Entity tags.
const (
	TagPublicParameters byte = iota + 1
	TagCommitment
	TagProof
	TagBlindSignRequest
	TagPartialSignature
	TagBlindSignature
	TagSignature
	TagVerificationKey
	TagVerificationKeyShare
	TagCredential
	TagPresentation
)

const (
	headerLen   = 2
	checksumLen = 8
	intSize     = 4
)

// Writer accumulates an encoding.
type Writer struct {
	curve *ml.Curve
	buf   []byte
}

// NewWriter starts an encoding of the entity identified by tag.
func NewWriter(curve *ml.Curve, tag byte) *Writer {
	return &Writer{
		curve: curve,
		buf:   []byte{tag, Version},
	}
}

// G1 appends a compressed G1 point.
func (w *Writer) G1(p *ml.G1) {
	w.buf = append(w.buf, p.Compressed()...)
}

// G2 appends a compressed G2 point.
func (w *Writer) G2(p *ml.G2) {
	w.buf = append(w.buf, p.Compressed()...)
}

// Zr appends a scalar.
func (w *Writer) Zr(z *ml.Zr) {
	w.buf = append(w.buf, padScalar(w.curve, z.Bytes())...)
}

func padScalar(curve *ml.Curve, b []byte) []byte {
	if pad := curve.ScalarByteSize - len(b); pad > 0 {
		return append(make([]byte, pad), b...)
	}

	return b
}

// Uint32 appends v.
func (w *Writer) Uint32(v int) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v))
}

// Bytes appends a length-prefixed byte string.
func (w *Writer) Bytes(b []byte) {
	w.Uint32(len(b))
	w.buf = append(w.buf, b...)
}

// Finish seals the encoding with its checksum.
func (w *Writer) Finish() []byte {
	return binary.BigEndian.AppendUint64(w.buf, xxhash.Sum64(w.buf))
}

// Reader decodes an encoding produced by Writer. The first error is sticky.
type Reader struct {
	curve *ml.Curve
	buf   []byte
	off   int
	err   error
}

// NewReader checks the envelope of data and positions the reader at the start of the body.
func NewReader(curve *ml.Curve, tag byte, data []byte) (*Reader, error) {
	if len(data) < headerLen+checksumLen {
		return nil, fmt.Errorf("%w: encoding too short", ErrDeserialization)
	}

	if data[0] != tag {
		return nil, fmt.Errorf("%w: unexpected tag %d, expected %d", ErrDeserialization, data[0], tag)
	}

	if data[1] != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrDeserialization, data[1])
	}

	end := len(data) - checksumLen
	if binary.BigEndian.Uint64(data[end:]) != xxhash.Sum64(data[:end]) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrDeserialization)
	}

	return &Reader{
		curve: curve,
		buf:   data[:end],
		off:   headerLen,
	}, nil
}

func (r *Reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}

	if n < 0 || len(r.buf)-r.off < n {
		r.err = fmt.Errorf("%w: unexpected end of data", ErrDeserialization)

		return nil
	}

	b := r.buf[r.off : r.off+n]
	r.off += n

	return b
}

// G1 reads a compressed G1 point.
func (r *Reader) G1() *ml.G1 {
	b := r.next(r.curve.CompressedG1ByteSize)
	if b == nil {
		return nil
	}

	p, err := r.curve.NewG1FromCompressed(b)
	if err != nil {
		r.err = fmt.Errorf("%w: deserialize G1 compressed point: %v", ErrDeserialization, err)

		return nil
	}

	return p
}

// G2 reads a compressed G2 point.
func (r *Reader) G2() *ml.G2 {
	b := r.next(r.curve.CompressedG2ByteSize)
	if b == nil {
		return nil
	}

	p, err := r.curve.NewG2FromCompressed(b)
	if err != nil {
		r.err = fmt.Errorf("%w: deserialize G2 compressed point: %v", ErrDeserialization, err)

		return nil
	}

	return p
}

// Zr reads a scalar and rejects values outside [0, group order).
func (r *Reader) Zr() *ml.Zr {
	b := r.next(r.curve.ScalarByteSize)
	if b == nil {
		return nil
	}

	z := r.curve.NewZrFromBytes(b)

	reduced := z.Copy()
	reduced.Mod(r.curve.GroupOrder)

	if !bytes.Equal(padScalar(r.curve, reduced.Bytes()), b) {
		r.err = fmt.Errorf("%w: scalar out of range", ErrDeserialization)

		return nil
	}

	return reduced
}

// Uint32 reads a count or index.
func (r *Reader) Uint32() int {
	b := r.next(intSize)
	if b == nil {
		return 0
	}

	return int(binary.BigEndian.Uint32(b))
}

// Count reads a count of elements each at least elemSize bytes long, rejecting counts the
// remaining data cannot hold.
func (r *Reader) Count(elemSize int) int {
	n := r.Uint32()
	if r.err != nil {
		return 0
	}

	if elemSize > 0 && n > (len(r.buf)-r.off)/elemSize {
		r.err = fmt.Errorf("%w: count %d exceeds remaining data", ErrDeserialization, n)

		return 0
	}

	return n
}

// Bytes reads a length-prefixed byte string.
func (r *Reader) Bytes() []byte {
	n := r.Count(1)

	b := r.next(n)
	if b == nil {
		return nil
	}

	return append([]byte(nil), b...)
}

// G1s reads a count followed by that many G1 points.
func (r *Reader) G1s() []*ml.G1 {
	n := r.Count(r.curve.CompressedG1ByteSize)

	res := make([]*ml.G1, n)
	for i := range res {
		res[i] = r.G1()
	}

	return res
}

// G2s reads a count followed by that many G2 points.
func (r *Reader) G2s() []*ml.G2 {
	n := r.Count(r.curve.CompressedG2ByteSize)

	res := make([]*ml.G2, n)
	for i := range res {
		res[i] = r.G2()
	}

	return res
}

// Zrs reads a count followed by that many scalars.
func (r *Reader) Zrs() []*ml.Zr {
	n := r.Count(r.curve.ScalarByteSize)

	res := make([]*ml.Zr, n)
	for i := range res {
		res[i] = r.Zr()
	}

	return res
}

// Err returns the first decoding error.
func (r *Reader) Err() error {
	return r.err
}

// Close reports the first decoding error or trailing data.
func (r *Reader) Close() error {
	if r.err != nil {
		return r.err
	}

	if r.off != len(r.buf) {
		return fmt.Errorf("%w: %d trailing bytes", ErrDeserialization, len(r.buf)-r.off)
	}

	return nil
}

// G1s appends a count followed by the points.
func (w *Writer) G1s(ps []*ml.G1) {
	w.Uint32(len(ps))

	for _, p := range ps {
		w.G1(p)
	}
}

// G2s appends a count followed by the points.
func (w *Writer) G2s(ps []*ml.G2) {
	w.Uint32(len(ps))

	for _, p := range ps {
		w.G2(p)
	}
}

// Zrs appends a count followed by the scalars.
func (w *Writer) Zrs(zs []*ml.Zr) {
	w.Uint32(len(zs))

	for _, z := range zs {
		w.Zr(z)
	}
}
