/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"fmt"
	"io"
	"sync"

	ml "github.com/IBM/mathlib"
	"github.com/hyperledger/aries-framework-go/component/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/hyperledger/aries-framework-go/component/anoncred/crypto/primitive/psthreshold"
)

// LogModule is the logger module name of this package.
const LogModule = "aries-framework/anoncred/credential"

var logger = log.New(LogModule)

// State of an issuance session.
type State int

// Issuance states, in the order a session moves through them.
const (
	StateRequested State = iota + 1
	StatePartiallySigned
	StateAggregated
	StateUnblinded
	StateVerified
)

func (s State) String() string {
	switch s {
	case StateRequested:
		return "requested"
	case StatePartiallySigned:
		return "partially-signed"
	case StateAggregated:
		return "aggregated"
	case StateUnblinded:
		return "unblinded"
	case StateVerified:
		return "verified"
	}

	return fmt.Sprintf("unknown(%d)", int(s))
}

// IssuerSet is the holder's view of an issuing committee.
type IssuerSet struct {
	Threshold       int
	VerificationKey *psthreshold.VerificationKey
	Shares          []*psthreshold.VerificationKeyShare
}

// NewIssuerSet returns the public part of a dealt key set.
func NewIssuerSet(ks *psthreshold.ThresholdKeySet) *IssuerSet {
	return &IssuerSet{
		Threshold:       ks.Threshold,
		VerificationKey: ks.VerificationKey,
		Shares:          ks.VerificationShares,
	}
}

func (s *IssuerSet) share(index int) *psthreshold.VerificationKeyShare {
	for _, share := range s.Shares {
		if share.Index == index {
			return share
		}
	}

	return nil
}

// Issuance is a holder-side blind issuance session. It is safe for concurrent use.
type Issuance struct {
	mu sync.Mutex

	pp         *psthreshold.PublicParameters
	issuers    *IssuerSet
	attributes []*ml.Zr
	request    *psthreshold.BlindSignRequest
	secrets    *psthreshold.BlindingSecrets
	partials   map[int]*psthreshold.PartialSignature
	blind      *psthreshold.BlindSignature
	signature  *psthreshold.Signature
	credential *Credential
	state      State
}

// NewIssuance commits to attributes and prepares the blind sign request for the committee.
func NewIssuance(rng io.Reader, pp *psthreshold.PublicParameters, issuers *IssuerSet,
	attributes []*ml.Zr) (*Issuance, error) {
	if issuers.Threshold < 1 || issuers.Threshold > len(issuers.Shares) {
		return nil, fmt.Errorf("invalid threshold %d for %d issuers", issuers.Threshold, len(issuers.Shares))
	}

	req, secrets, err := psthreshold.NewBlindSignRequest(rng, pp, attributes)
	if err != nil {
		return nil, fmt.Errorf("new issuance: %w", err)
	}

	logger.Debugf("issuance %s: request created", req.ID)

	return &Issuance{
		pp:         pp,
		issuers:    issuers,
		attributes: slices.Clone(attributes),
		request:    req,
		secrets:    secrets,
		partials:   make(map[int]*psthreshold.PartialSignature),
		state:      StateRequested,
	}, nil
}

// ID of the underlying request.
func (is *Issuance) ID() string {
	return is.request.ID
}

// Request to send to every issuer.
func (is *Issuance) Request() *psthreshold.BlindSignRequest {
	return is.request
}

// State returns the current state.
func (is *Issuance) State() State {
	is.mu.Lock()
	defer is.mu.Unlock()

	return is.state
}

// Collected returns the number of accepted partial signatures.
func (is *Issuance) Collected() int {
	is.mu.Lock()
	defer is.mu.Unlock()

	return len(is.partials)
}

// AddPartial verifies a partial signature against its issuer share and records it.
func (is *Issuance) AddPartial(ps *psthreshold.PartialSignature) error {
	is.mu.Lock()
	defer is.mu.Unlock()

	if is.state != StateRequested && is.state != StatePartiallySigned {
		return fmt.Errorf("%w: cannot add partial signature in state %s", ErrInvalidState, is.state)
	}

	if ps == nil {
		return fmt.Errorf("%w: missing partial signature", psthreshold.ErrInvalidShare)
	}

	share := is.issuers.share(ps.Index)
	if share == nil {
		return fmt.Errorf("%w: unknown issuer %d", psthreshold.ErrInvalidShare, ps.Index)
	}

	if _, ok := is.partials[ps.Index]; ok {
		return fmt.Errorf("%w: issuer %d", psthreshold.ErrDuplicateShare, ps.Index)
	}

	if !psthreshold.VerifyPartialSignature(is.pp, share, is.request, ps) {
		return fmt.Errorf("%w: issuer %d", ErrInvalidPartial, ps.Index)
	}

	is.partials[ps.Index] = ps
	is.state = StatePartiallySigned

	logger.Debugf("issuance %s: partial signature %d of %d from issuer %d", is.request.ID,
		len(is.partials), is.issuers.Threshold, ps.Index)

	return nil
}

// Aggregate combines the collected partial signatures.
func (is *Issuance) Aggregate() error {
	is.mu.Lock()
	defer is.mu.Unlock()

	if is.state != StatePartiallySigned {
		return fmt.Errorf("%w: cannot aggregate in state %s", ErrInvalidState, is.state)
	}

	indices := maps.Keys(is.partials)
	slices.Sort(indices)

	partials := make([]*psthreshold.PartialSignature, len(indices))
	for i, idx := range indices {
		partials[i] = is.partials[idx]
	}

	blind, err := psthreshold.AggregateSignatures(is.pp, is.issuers.Threshold, partials)
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}

	is.blind = blind
	is.state = StateAggregated

	return nil
}

// Unblind removes the holder's blinding from the aggregated signature.
func (is *Issuance) Unblind() error {
	is.mu.Lock()
	defer is.mu.Unlock()

	if is.state != StateAggregated {
		return fmt.Errorf("%w: cannot unblind in state %s", ErrInvalidState, is.state)
	}

	sig, err := is.blind.Unblind(is.pp, is.issuers.VerificationKey, is.secrets)
	if err != nil {
		return fmt.Errorf("unblind: %w", err)
	}

	is.signature = sig
	is.state = StateUnblinded

	return nil
}

// Verify checks the unblinded signature and returns the credential.
func (is *Issuance) Verify() (*Credential, error) {
	is.mu.Lock()
	defer is.mu.Unlock()

	if is.state == StateVerified {
		return is.credential, nil
	}

	if is.state != StateUnblinded {
		return nil, fmt.Errorf("%w: cannot verify in state %s", ErrInvalidState, is.state)
	}

	ok, err := is.signature.Verify(is.pp, is.issuers.VerificationKey, is.attributes)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	if !ok {
		logger.Warnf("issuance %s: unblinded signature does not verify", is.request.ID)

		return nil, ErrInvalidSignature
	}

	is.credential = &Credential{
		Commitment: is.request.Commitment,
		Signature:  is.signature,
		Context:    is.pp.Context.Copy(),
		Attributes: is.attributes,
		Blinding:   is.secrets.Blinding,
	}
	is.state = StateVerified

	logger.Infof("issuance %s: credential issued by %d issuers", is.request.ID, len(is.partials))

	return is.credential, nil
}

// Complete runs the remaining steps once enough partial signatures are collected.
func (is *Issuance) Complete() (*Credential, error) {
	if is.State() == StatePartiallySigned {
		if err := is.Aggregate(); err != nil {
			return nil, err
		}
	}

	if is.State() == StateAggregated {
		if err := is.Unblind(); err != nil {
			return nil, err
		}
	}

	return is.Verify()
}
