/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"errors"

	"github.com/hyperledger/aries-framework-go/component/anoncred/crypto/primitive/psthreshold"
)

var (
	// ErrInvalidDisclosure is returned for disclosed attribute indices that are out of range or repeated.
	ErrInvalidDisclosure = errors.New("invalid disclosure")

	// ErrInvalidState is returned when an issuance step is taken out of order.
	ErrInvalidState = errors.New("invalid issuance state")

	// ErrInvalidPartial is returned for a partial signature that does not verify against its issuer share.
	ErrInvalidPartial = errors.New("invalid partial signature")

	// ErrInvalidSignature is returned when an unblinded signature does not verify.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInvalidPresentation is returned by Verifier for presentations that do not verify.
	ErrInvalidPresentation = errors.New("invalid presentation")

	// ErrReplayedNonce is returned by Verifier when a nonce has already been accepted.
	ErrReplayedNonce = errors.New("nonce already used")

	// ErrDeserialization is returned by every Parse function for malformed input.
	ErrDeserialization = psthreshold.ErrDeserialization
)
