/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hyperledger/aries-framework-go/component/anoncred/crypto/primitive/psthreshold"
)

const (
	defaultSignerRetries       = 3
	defaultSignerRetryInterval = 500 * time.Millisecond
)

//go:generate mockgen -destination gomocks/signer.gen.go -package gomocks . Signer

// Signer is an issuer holding one secret key share.
type Signer interface {
	Index() int
	SignShare(ctx context.Context, req *psthreshold.BlindSignRequest) (*psthreshold.PartialSignature, error)
}

// LocalSigner signs with a secret key share held in process.
type LocalSigner struct {
	pp    *psthreshold.PublicParameters
	share *psthreshold.SecretKeyShare
}

// NewLocalSigner returns a Signer for share.
func NewLocalSigner(pp *psthreshold.PublicParameters, share *psthreshold.SecretKeyShare) *LocalSigner {
	return &LocalSigner{pp: pp, share: share}
}

// Index of the share.
func (s *LocalSigner) Index() int {
	return s.share.Index
}

// SignShare verifies the request and signs it.
func (s *LocalSigner) SignShare(ctx context.Context,
	req *psthreshold.BlindSignRequest) (*psthreshold.PartialSignature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return psthreshold.SignShare(s.pp, s.share, req)
}

// Coordinator collects partial signatures for an issuance from a committee of signers.
type Coordinator struct {
	signers       []Signer
	retries       uint64
	retryInterval time.Duration
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(c *Coordinator)

// WithRetry sets how often a failing signer is retried and the pause between attempts.
func WithRetry(retries uint64, interval time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.retries = retries
		c.retryInterval = interval
	}
}

// NewCoordinator returns a coordinator for signers.
func NewCoordinator(signers []Signer, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		signers:       signers,
		retries:       defaultSignerRetries,
		retryInterval: defaultSignerRetryInterval,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type signResult struct {
	index   int
	partial *psthreshold.PartialSignature
	err     error
}

// Collect requests partial signatures from all signers concurrently and adds them to the session until
// the committee threshold is reached. Signers still running at that point are cancelled.
func (c *Coordinator) Collect(ctx context.Context, is *Issuance) error {
	threshold := is.issuers.Threshold

	if len(c.signers) < threshold {
		return fmt.Errorf("%w: need %d, got %d signers", psthreshold.ErrInsufficientShares, threshold, len(c.signers))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan signResult, len(c.signers))

	for _, s := range c.signers {
		go func(s Signer, index int) {
			ps, err := c.sign(ctx, s, index, is.Request())
			results <- signResult{index: index, partial: ps, err: err}
		}(s, s.Index())
	}

	var errs []error

	for range c.signers {
		res := <-results

		if res.err == nil {
			res.err = is.AddPartial(res.partial)
		}

		if res.err != nil {
			logger.Warnf("issuance %s: issuer %d: %s", is.ID(), res.index, res.err)

			errs = append(errs, fmt.Errorf("issuer %d: %w", res.index, res.err))

			continue
		}

		if is.Collected() >= threshold {
			return nil
		}
	}

	return fmt.Errorf("%w: need %d, got %d: %w", psthreshold.ErrInsufficientShares, threshold,
		is.Collected(), errors.Join(errs...))
}

func (c *Coordinator) sign(ctx context.Context, s Signer, index int,
	req *psthreshold.BlindSignRequest) (*psthreshold.PartialSignature, error) {
	var ps *psthreshold.PartialSignature

	err := backoff.Retry(func() error {
		var err error

		ps, err = s.SignShare(ctx, req)
		if err != nil {
			if errors.Is(err, psthreshold.ErrInvalidProof) || errors.Is(err, psthreshold.ErrArityMismatch) ||
				ctx.Err() != nil {
				return backoff.Permanent(err)
			}

			logger.Debugf("issuer %d: sign attempt failed: %s", index, err)
		}

		return err
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryInterval), c.retries), ctx))
	if err != nil {
		return nil, err
	}

	return ps, nil
}

// Issue collects partial signatures and completes the session.
func (c *Coordinator) Issue(ctx context.Context, is *Issuance) (*Credential, error) {
	if err := c.Collect(ctx, is); err != nil {
		return nil, err
	}

	return is.Complete()
}
