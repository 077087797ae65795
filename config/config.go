/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package config loads the settings of an issuing committee and its verifiers.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	ml "github.com/IBM/mathlib"
	"github.com/hyperledger/aries-framework-go/component/log"
	spilog "github.com/hyperledger/aries-framework-go/spi/log"
	"github.com/mitchellh/mapstructure"

	"github.com/hyperledger/aries-framework-go/component/anoncred/credential"
	"github.com/hyperledger/aries-framework-go/component/anoncred/crypto/primitive/psthreshold"
)

// nolint:gochecknoglobals
var curves = map[string]ml.CurveID{
	"BLS12_381_BBS": ml.BLS12_381_BBS,
	"BLS12_381":     ml.BLS12_381,
	"BN254":         ml.BN254,
	"FP256BN_AMCL":  ml.FP256BN_AMCL,
}

// Config of a deployment.
type Config struct {
	Curve               string        `json:"curve"`
	Attributes          int           `json:"attributes"`
	Threshold           int           `json:"threshold"`
	Issuers             int           `json:"issuers"`
	ContextLabel        string        `json:"contextLabel"`
	SignerRetries       uint64        `json:"signerRetries"`
	SignerRetryInterval time.Duration `json:"signerRetryInterval"`
	NonceCacheSize      int           `json:"nonceCacheSize"`
	NonceTTL            time.Duration `json:"nonceTTL"`
	LogLevel            string        `json:"logLevel"`
}

// Default returns a 2-out-of-3 committee over BLS12-381.
func Default() *Config {
	return &Config{
		Curve:               "BLS12_381_BBS",
		Attributes:          4,
		Threshold:           2,
		Issuers:             3,
		SignerRetries:       3,
		SignerRetryInterval: 500 * time.Millisecond,
		NonceCacheSize:      10000,
		NonceTTL:            10 * time.Minute,
		LogLevel:            "INFO",
	}
}

// Decode overlays raw settings, as read from JSON or YAML, on the defaults and validates the result.
// Durations may be given as strings such as "250ms".
func Decode(raw map[string]interface{}) (*Config, error) {
	cfg := Default()

	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           cfg,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, fmt.Errorf("init config decoder: %w", err)
	}

	if err = d.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the settings are consistent.
func (c *Config) Validate() error {
	if _, err := c.CurveID(); err != nil {
		return err
	}

	if c.Attributes < 1 {
		return fmt.Errorf("invalid config: attributes must be positive, got %d", c.Attributes)
	}

	if c.Threshold < 1 || c.Threshold > c.Issuers {
		return fmt.Errorf("invalid config: threshold %d for %d issuers", c.Threshold, c.Issuers)
	}

	if c.NonceCacheSize < 1 {
		return fmt.Errorf("invalid config: nonce cache size must be positive, got %d", c.NonceCacheSize)
	}

	if _, err := c.Level(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// CurveID resolves the configured curve name.
func (c *Config) CurveID() (ml.CurveID, error) {
	id, ok := curves[strings.ToUpper(c.Curve)]
	if !ok {
		return 0, fmt.Errorf("invalid config: unsupported curve %q", c.Curve)
	}

	return id, nil
}

// Level parses the configured log level.
func (c *Config) Level() (spilog.Level, error) {
	return log.ParseLevel(c.LogLevel)
}

// ApplyLogLevel sets the configured level on the credential logger.
func (c *Config) ApplyLogLevel() error {
	level, err := c.Level()
	if err != nil {
		return err
	}

	log.SetLevel(credential.LogModule, level)

	return nil
}

// PublicParameters runs the parameter setup for this configuration.
func (c *Config) PublicParameters(rng io.Reader) (*psthreshold.PublicParameters, error) {
	id, err := c.CurveID()
	if err != nil {
		return nil, err
	}

	var label []byte
	if c.ContextLabel != "" {
		label = []byte(c.ContextLabel)
	}

	return psthreshold.Setup(rng, id, c.Attributes, label)
}

// GenerateKeys deals threshold keys for the configured committee.
func (c *Config) GenerateKeys(rng io.Reader, pp *psthreshold.PublicParameters) (*psthreshold.ThresholdKeySet, error) {
	return psthreshold.GenerateThresholdKeys(rng, pp, c.Threshold, c.Issuers)
}

// CoordinatorOptions returns the coordinator settings.
func (c *Config) CoordinatorOptions() []credential.CoordinatorOption {
	return []credential.CoordinatorOption{credential.WithRetry(c.SignerRetries, c.SignerRetryInterval)}
}

// VerifierOptions returns the verifier settings.
func (c *Config) VerifierOptions() []credential.VerifierOption {
	return []credential.VerifierOption{credential.WithNonceCache(c.NonceCacheSize, c.NonceTTL)}
}
