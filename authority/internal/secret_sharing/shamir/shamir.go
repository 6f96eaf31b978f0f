// Copyright 2022 Google LLC
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

// Package shamir encapsulates all of the logic needed to perform t-of-n [Shamir
// Secret Sharing] (SSS) of a single field element over Z/pZ for a prime p. SSS
// is based on the Lagrange interpolation theorem, which states that `k` points
// are enough to uniquely determine a polynomial of degree less than or equal
// to `k - 1`.
//
// This scheme is secure under the following assumptions:
//   - The scheme requires a trusted dealer to generate the shares. Participants
//     must trust the dealer with access to the secret and to properly generate the
//     shares.
//   - The scheme assumes a passive adversary which can observe (t - 1) shares
//     without learning anything about the secret. However, this scheme
//     assumes the adversary isn't allowed to participate in the `reconstruct` step by
//     providing a chosen share.
//     Examples of this attack: https://crypto.stackexchange.com/q/41994/76875
//   - Polynomial coefficients come from the operating system CSPRNG. A
//     predictable source breaks the secrecy of every split.
//
// [Shamir Secret Sharing]: https://web.mit.edu/6.857/OldStuff/Fall03/ref/Shamir-HowToShareAsecrets.pdf
package shamir

import (
	"math/big"

	"github.com/GoogleCloudPlatform/tallyauthority/authority/autherr"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/internal/field"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/internal/field/primefield"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/internal/secret_sharing/internal/shamirgeneric"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/internal/secret_sharing/secrets"
)

func createField(modulus *big.Int) (field.GaloisField, error) {
	if modulus == nil {
		return nil, autherr.New(autherr.InvalidParameters, "no modulus provided")
	}
	return primefield.New(modulus)
}

// SplitSecret splits a secret into metadata.NumShares shares where metadata.Threshold
// or more shares can be combined to reconstruct the original secret.
func SplitSecret(metadata secrets.Metadata, secret *big.Int) (secrets.Split, error) {
	f, err := createField(metadata.Modulus)
	if err != nil {
		return secrets.Split{}, err
	}
	return shamirgeneric.SplitSecret(metadata, secret, f)
}

// Reconstruct reconstructs the secret from secretSplit.
//
// The number of shares provided must meet the threshold specified when the
// shares were created by [SplitSecret]. Only the first Threshold shares are used.
//
// Reconstruct will not detect bogus or corrupted shares.
func Reconstruct(secretSplit secrets.Split) (*big.Int, error) {
	if len(secretSplit.Shares) == 0 {
		return nil, autherr.New(autherr.InvalidParameters, "no shares provided")
	}
	f, err := createField(secretSplit.Metadata.Modulus)
	if err != nil {
		return nil, err
	}
	s, err := shamirgeneric.Reconstruct(secretSplit, f)
	if err != nil {
		return nil, err
	}
	return s.BigInt(), nil
}

// Interpolate recovers the constant term from every share in shares.
func Interpolate(shares []secrets.Share, modulus *big.Int) (*big.Int, error) {
	f, err := createField(modulus)
	if err != nil {
		return nil, err
	}
	s, err := shamirgeneric.Interpolate(shares, f)
	if err != nil {
		return nil, err
	}
	return s.BigInt(), nil
}

// LagrangeCoefficients returns the Lagrange weights at zero for the x
// coordinates xs, reduced modulo modulus.
func LagrangeCoefficients(xs []int, modulus *big.Int) ([]*big.Int, error) {
	f, err := createField(modulus)
	if err != nil {
		return nil, err
	}
	coeffs, err := shamirgeneric.LagrangeCoefficients(xs, f)
	if err != nil {
		return nil, err
	}
	out := make([]*big.Int, len(coeffs))
	for i, c := range coeffs {
		out[i] = c.BigInt()
	}
	return out, nil
}
