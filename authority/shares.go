// Copyright 2021 Google LLC
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

package authority

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/GoogleCloudPlatform/tallyauthority/authority/autherr"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/internal/secret_sharing/secrets"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/internal/secret_sharing/shamir"
)

// Share is one point (X, Y) on a sharing polynomial over Z/pZ.
type Share = secrets.Share

// HashShare performs a SHA-256 hash on the canonical "x:y" encoding of share.
func HashShare(share Share) []byte {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%d:%v", share.X, share.Y)))
	return hash[:]
}

// ValidateShare performs HashShare on the provided share, then returns whether
// the result is equal to the provided hash.
func ValidateShare(share Share, expectedHash []byte) bool {
	return bytes.Equal(HashShare(share), expectedHash)
}

// GenerateShares splits secret into n shares over Z/pZ, any t of which
// reconstruct it. Polynomial coefficients are drawn fresh on every call.
func GenerateShares(secret *big.Int, n, t int, p *big.Int) ([]Share, error) {
	md := secrets.Metadata{
		Modulus:   p,
		NumShares: n,
		Threshold: t,
	}
	split, err := shamir.SplitSecret(md, secret)
	if err != nil {
		return nil, err
	}

	// Validate the returned data.
	if len(split.Shares) != n {
		return nil, autherr.New(autherr.InvalidParameters, "split returned %d shares, expected %d", len(split.Shares), n)
	}
	return split.Shares, nil
}

// ReconstructSecret recovers the secret from every share provided. Note that
// this does not detect faulty shares (interpolation succeeds on any input with
// distinct indices), and fewer than t shares silently yield a wrong value.
func ReconstructSecret(shares []Share, p *big.Int) (*big.Int, error) {
	if len(shares) == 0 {
		return nil, autherr.New(autherr.InvalidParameters, "no shares provided")
	}
	return shamir.Interpolate(shares, p)
}
