/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package anoncred provides threshold-issued anonymous credentials built on Pointcheval-Sanders
// signatures over pairing-friendly curves.
//
// # Packages
//
// crypto/primitive/psthreshold: public parameters, attribute commitments, threshold key generation,
// blind partial signing, Lagrange aggregation, unblinding and signature verification.
//
// crypto/primitive/schnorr: Fiat-Shamir proofs of knowledge for conjunctions of linear relations
// over G1 and G2.
//
// credential: issuance sessions, the issuance coordinator, credentials and selective-disclosure
// presentations with a replay-protected verifier.
//
// config: deployment settings.
//
// # Basic workflow
//
//  1. Run psthreshold.Setup and deal keys with psthreshold.GenerateThresholdKeys.
//  2. The holder opens a credential.Issuance over its attributes.
//  3. A credential.Coordinator collects threshold many partial signatures and completes the session.
//  4. The holder derives a credential.Presentation for a verifier nonce.
//  5. The verifier checks it with a credential.Verifier.
package anoncred
