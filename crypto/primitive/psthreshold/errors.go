/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package psthreshold

import (
	"errors"

	"github.com/hyperledger/aries-framework-go/component/anoncred/crypto/primitive/schnorr"
	"github.com/hyperledger/aries-framework-go/component/anoncred/internal/wire"
)

var (
	// ErrArityMismatch is returned when an attribute vector does not match the parameters width.
	ErrArityMismatch = errors.New("attribute count mismatch")

	// ErrInsufficientShares is returned when fewer than threshold partial signatures are aggregated.
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrDuplicateShare is returned when two partial signatures carry the same issuer index.
	ErrDuplicateShare = errors.New("duplicate share")

	// ErrInconsistentShares is returned when partial signatures were produced for different requests.
	ErrInconsistentShares = errors.New("inconsistent shares")

	// ErrInvalidShare is returned for shares with an index outside 1..n.
	ErrInvalidShare = errors.New("invalid share")

	// ErrNoRandomness is returned when a randomized operation is called without a randomness source.
	ErrNoRandomness = errors.New("randomness source is required")

	// ErrInvalidProof is returned when a request proof fails verification.
	ErrInvalidProof = schnorr.ErrInvalidProof

	// ErrMalformedStatement is returned when a proof does not fit its statement.
	ErrMalformedStatement = schnorr.ErrMalformedStatement

	// ErrDeserialization is returned by every Parse function for malformed input.
	ErrDeserialization = wire.ErrDeserialization
)
