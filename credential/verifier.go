/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bluele/gcache"

	"github.com/hyperledger/aries-framework-go/component/anoncred/crypto/primitive/psthreshold"
)

const (
	defaultNonceCacheSize = 10000
	defaultNonceTTL       = 10 * time.Minute
	nonceSize             = 32
)

// Verifier checks presentations and rejects nonces it has already accepted.
type Verifier struct {
	pp *psthreshold.PublicParameters
	vk *psthreshold.VerificationKey

	mu     sync.Mutex
	nonces gcache.Cache
}

type verifierOpts struct {
	cacheSize int
	ttl       time.Duration
}

// VerifierOption configures a Verifier.
type VerifierOption func(opts *verifierOpts)

// WithNonceCache sets how many accepted nonces are remembered and for how long.
func WithNonceCache(size int, ttl time.Duration) VerifierOption {
	return func(opts *verifierOpts) {
		opts.cacheSize = size
		opts.ttl = ttl
	}
}

// NewVerifier returns a verifier for credentials issued under vk.
func NewVerifier(pp *psthreshold.PublicParameters, vk *psthreshold.VerificationKey, opts ...VerifierOption) *Verifier {
	o := &verifierOpts{
		cacheSize: defaultNonceCacheSize,
		ttl:       defaultNonceTTL,
	}

	for _, opt := range opts {
		opt(o)
	}

	return &Verifier{
		pp:     pp,
		vk:     vk,
		nonces: gcache.New(o.cacheSize).LRU().Expiration(o.ttl).Build(),
	}
}

// NewNonce returns a fresh presentation nonce read from rng.
func NewNonce(rng io.Reader) ([]byte, error) {
	if rng == nil {
		return nil, psthreshold.ErrNoRandomness
	}

	nonce := make([]byte, nonceSize)

	if _, err := io.ReadFull(rng, nonce); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}

	return nonce, nil
}

// Verify checks p against nonce. A nonce is consumed only by a presentation that verifies.
func (v *Verifier) Verify(p *Presentation, nonce []byte) error {
	if len(nonce) == 0 {
		return errors.New("nonce is required")
	}

	key := string(nonce)

	if v.seen(key) {
		logger.Warnf("presentation rejected: nonce replayed")

		return ErrReplayedNonce
	}

	if !VerifyPresentation(v.pp, v.vk, p, nonce) {
		return ErrInvalidPresentation
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	// another presentation for the same nonce may have been accepted while this one was checked
	if v.nonces.Has(key) {
		logger.Warnf("presentation rejected: nonce replayed")

		return ErrReplayedNonce
	}

	if err := v.nonces.Set(key, struct{}{}); err != nil {
		return fmt.Errorf("record nonce: %w", err)
	}

	logger.Debugf("presentation accepted, %d attributes disclosed", len(p.Disclosed))

	return nil
}

func (v *Verifier) seen(key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.nonces.Has(key)
}

// VerifyBytes parses and verifies an encoded presentation.
func (v *Verifier) VerifyBytes(data, nonce []byte) (*Presentation, error) {
	p, err := ParsePresentation(v.pp, data)
	if err != nil {
		return nil, err
	}

	if err = v.Verify(p, nonce); err != nil {
		return nil, err
	}

	return p, nil
}
