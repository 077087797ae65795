/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"fmt"

	"github.com/multiformats/go-multibase"
)

// EncodeString returns the multibase (base58btc) text form of an encoded entity.
func EncodeString(data []byte) string {
	// base58btc is always supported, Encode cannot fail.
	s, _ := multibase.Encode(multibase.Base58BTC, data) //nolint:errcheck

	return s
}

// DecodeString reverses EncodeString.
func DecodeString(s string) ([]byte, error) {
	enc, data, err := multibase.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserialization, err)
	}

	if enc != multibase.Base58BTC {
		return nil, fmt.Errorf("%w: unexpected multibase encoding %c", ErrDeserialization, rune(enc))
	}

	return data, nil
}
