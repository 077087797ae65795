/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package psthreshold

import (
	ml "github.com/IBM/mathlib"

	"github.com/hyperledger/aries-framework-go/component/anoncred/internal/group"
)

// ParseAttribute maps an attribute value to a scalar.
func ParseAttribute(pp *PublicParameters, value []byte) *ml.Zr {
	return group.FrFromOKM(pp.Curve, value)
}

// ParseAttributes maps attribute values to scalars.
func ParseAttributes(pp *PublicParameters, values [][]byte) []*ml.Zr {
	res := make([]*ml.Zr, len(values))
	for i := range values {
		res[i] = ParseAttribute(pp, values[i])
	}

	return res
}
