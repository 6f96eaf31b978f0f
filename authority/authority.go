// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package authority decrypts an aggregated ElGamal ciphertext whose private
// exponent is Shamir-shared, and interprets the plaintext as the vote
// differential between Party A and Party B.
//
// In ModeReconstruct the exponent is split into fresh shares and
// reconstructed from a quorum for every request. In ModeThreshold the
// exponent is never assembled: a quorum of independent authorities each
// contribute a partial decryption (see package threshold).
package authority

import (
	"context"
	"math/big"

	"github.com/GoogleCloudPlatform/tallyauthority/authority/autherr"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/elgamal"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/tally"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/threshold"
	"github.com/golang/glog"
)

// DecryptionAuthority turns ciphertexts into tallies. It holds no
// per-request state and is safe for concurrent use.
type DecryptionAuthority struct {
	cfg      Config
	p        *big.Int
	key      *big.Int
	combiner *threshold.Combiner
	closeFn  func()
}

// Option configures a DecryptionAuthority.
type Option func(*DecryptionAuthority)

// WithCombiner uses c for threshold decryption instead of the roster or an
// in-process deal.
func WithCombiner(c *threshold.Combiner) Option {
	return func(a *DecryptionAuthority) {
		a.combiner = c
	}
}

// New validates cfg and returns an authority. In threshold mode the
// authorities are, in order of preference, the combiner passed as an option,
// the nodes listed in cfg.Roster, or n authorities dealt in process from
// cfg.PrivateKey.
func New(cfg Config, opts ...Option) (*DecryptionAuthority, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &DecryptionAuthority{
		cfg: cfg,
		p:   cfg.Modulus.Int(),
		key: cfg.PrivateKey.Int(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if cfg.mode() != ModeThreshold || a.combiner != nil {
		return a, nil
	}

	grp, err := cfg.Group()
	if err != nil {
		return nil, err
	}
	if cfg.Roster != "" {
		roster, err := threshold.LoadRoster(cfg.Roster)
		if err != nil {
			return nil, err
		}
		rgrp, err := roster.Group()
		if err != nil {
			return nil, err
		}
		if rgrp.P.Cmp(grp.P) != 0 || rgrp.G.Cmp(grp.G) != 0 || rgrp.Q.Cmp(grp.Q) != 0 {
			return nil, autherr.New(autherr.InvalidParameters, "roster group (%v, %v, %v) does not match the configured group", rgrp.P, rgrp.G, rgrp.Q)
		}
		decrypters, closeFn, err := roster.Dial()
		if err != nil {
			return nil, err
		}
		a.combiner = &threshold.Combiner{Group: grp, Threshold: roster.Threshold, Authorities: decrypters}
		a.closeFn = closeFn
		return a, nil
	}

	dealt, err := threshold.Deal(a.key, cfg.NumShares, cfg.Threshold, grp)
	if err != nil {
		return nil, err
	}
	decrypters := make([]threshold.Decrypter, len(dealt))
	for i, d := range dealt {
		decrypters[i] = d
	}
	a.combiner = &threshold.Combiner{Group: grp, Threshold: cfg.Threshold, Authorities: decrypters}
	return a, nil
}

// Close releases connections to remote authorities.
func (a *DecryptionAuthority) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// Mode returns the decryption mode in effect; an unset config mode resolves
// to ModeReconstruct.
func (a *DecryptionAuthority) Mode() Mode {
	return a.cfg.mode()
}

// Modulus returns the prime modulus ciphertexts are reduced by.
func (a *DecryptionAuthority) Modulus() *big.Int {
	return new(big.Int).Set(a.p)
}

// Residue decrypts ct to its plaintext residue in [0, p-1].
func (a *DecryptionAuthority) Residue(ctx context.Context, ct elgamal.Ciphertext) (*big.Int, error) {
	if ct.C1 == nil || ct.C2 == nil {
		return nil, autherr.New(autherr.BadInput, "ciphertext must contain both c1 and c2")
	}
	if a.combiner != nil {
		return a.combiner.Decrypt(ctx, ct)
	}

	shares, err := GenerateShares(a.key, a.cfg.NumShares, a.cfg.Threshold, a.p)
	if err != nil {
		return nil, err
	}
	secret, err := ReconstructSecret(shares[:a.cfg.Threshold], a.p)
	if err != nil {
		return nil, autherr.Wrap(autherr.KindOf(err), err, "reconstructing private key")
	}
	return elgamal.Decrypt(ct, secret, a.p)
}

// Decrypt decrypts ct and interprets the residue as a vote differential.
func (a *DecryptionAuthority) Decrypt(ctx context.Context, ct elgamal.Ciphertext) (tally.Tally, error) {
	residue, err := a.Residue(ctx, ct)
	if err != nil {
		return tally.Tally{}, err
	}
	t := tally.Interpret(residue, a.p)
	if glog.V(1) {
		glog.Infof("Decrypted %v in %v mode: %v", ct, a.cfg.mode(), t.Outcome)
	}
	return t, nil
}
