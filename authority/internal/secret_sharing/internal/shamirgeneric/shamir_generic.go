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

// Package shamirgeneric implements shamir secret sharing with a generic group structure.
package shamirgeneric

import (
	"math/big"

	"github.com/GoogleCloudPlatform/tallyauthority/authority/autherr"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/internal/field"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/internal/secret_sharing/secrets"
)

// SplitSecret splits a secret into n shares where t or more shares can be combined to reconstruct
// the original secret using shamir secret sharing.
func SplitSecret(metadata secrets.Metadata, secret *big.Int, gf field.GaloisField) (secrets.Split, error) {
	if err := validateSplitInput(metadata, secret, gf); err != nil {
		return secrets.Split{}, err
	}
	threshold := metadata.Threshold
	numShares := metadata.NumShares

	// We build a polynomial of degree t-1. The secret is the constant coefficient
	// in the polynomial and every other coefficient is selected as a random non-zero
	// field element:
	// secret + R_1 * x^1 + R_2 * X^2 + ... + R_(t-1) * X^(t-1)
	// The coefficients are drawn fresh for every split and never leave this function.
	coefficients := make([]field.Element, threshold)
	coefficients[0] = gf.NewElement(secret)
	for i := 1; i < threshold; i++ {
		var err error
		if coefficients[i], err = gf.NewRandomNonZero(); err != nil {
			return secrets.Split{}, err
		}
	}

	shares := make([]secrets.Share, numShares)
	for i := 0; i < numShares; i++ {
		// Each share is the evaluation of the polynomial at a specific value `X`,
		// this gives us the point (X, Y).
		xi, err := gf.CreateElement(i + 1)
		if err != nil {
			return secrets.Split{}, err
		}
		shares[i] = secrets.Share{
			X: i + 1,
			Y: evaluatePolynomial(coefficients, xi).BigInt(),
		}
	}
	return secrets.Split{
		Shares: shares,
		Metadata: secrets.Metadata{
			Modulus:   gf.Order(),
			NumShares: numShares,
			Threshold: threshold,
		},
	}, nil
}

// evaluates a polynomial at `x` where `coefficients` take the form:
// f(x) = c[n-1] * x^(n-1) + c[n-2] * x^(n-2) + ... + c[1] * x^1 + c[0]
func evaluatePolynomial(coefficients []field.Element, x field.Element) field.Element {
	sum := coefficients[len(coefficients)-1]
	for i := len(coefficients) - 2; i >= 0; i-- {
		sum = sum.Multiply(x).Add(coefficients[i])
	}
	return sum
}

// Reconstruct reconstructs a secret with at least t out of n shares using shamir secret sharing.
// Only the first t shares are used.
func Reconstruct(splitSecret secrets.Split, gf field.GaloisField) (field.Element, error) {
	if err := validateReconstructInput(splitSecret); err != nil {
		return nil, err
	}
	// We only need `threshold` shares to reconstruct the secrets.
	return Interpolate(splitSecret.Shares[:splitSecret.Metadata.Threshold], gf)
}

// Interpolate recovers f(0) from every share given. With fewer shares than the
// threshold of the polynomial the result is unrelated to the secret.
func Interpolate(shares []secrets.Share, gf field.GaloisField) (field.Element, error) {
	if len(shares) == 0 {
		return nil, autherr.New(autherr.InvalidParameters, "no shares provided")
	}
	xVals := make([]int, len(shares))
	yVals := make([]field.Element, len(shares))
	for i, s := range shares {
		if err := validateShare(s, gf); err != nil {
			return nil, err
		}
		xVals[i] = s.X
		yVals[i] = gf.NewElement(s.Y)
	}
	// Precompute the Lagrange coefficients before performing polynomial interpolation.
	coefficients, err := LagrangeCoefficients(xVals, gf)
	if err != nil {
		return nil, autherr.Wrap(autherr.NoInverse, err, "reconstructing secret")
	}
	return interpolatePolynomial(coefficients, yVals, gf)
}

// performs lagrange polynomial interpolation to recover a polynomial from a set of points.
// receives a set of points on a finite field:
// ∑i={1,n} y[i] * ( ∏j={1,n,j≠i} ( (x[j]) / ( x[j] - x[i]) ) )
// lagrange coefficients (∏j={1,n,j≠i} ( (x[j]) / ( x[j] - x[i] ) )) are precalculated
// and the y coordinates are used to compute the sum.
func interpolatePolynomial(lagCoeff []field.Element, yVals []field.Element, gf field.GaloisField) (field.Element, error) {
	if len(lagCoeff) != len(yVals) {
		return nil, autherr.New(autherr.InvalidParameters, "invalid lagrange coefficients")
	}
	sum, err := gf.CreateElement(0)
	if err != nil {
		return nil, err
	}
	// ∑i={1,n} y[i] * lagrange_coefficient[i]
	for i, y := range yVals {
		sum = sum.Add(y.Multiply(lagCoeff[i]))
	}
	return sum, nil
}

// LagrangeCoefficients returns the weights that evaluate the interpolating
// polynomial through the points with x coordinates `x` at zero:
// ∏j={1,n,j≠i} ( (x[j]) / ( x[j] - x[i] ) )
// Two coordinates that are equal modulo the field order have no inverse for
// their difference, and a NoInverse error is returned.
func LagrangeCoefficients(x []int, gf field.GaloisField) ([]field.Element, error) {
	xVals := make([]field.Element, len(x))
	for i, xi := range x {
		e, err := gf.CreateElement(xi)
		if err != nil {
			return nil, err
		}
		xVals[i] = e
	}
	out := make([]field.Element, len(xVals))
	for i := range xVals {
		one, err := gf.CreateElement(1)
		if err != nil {
			return nil, err
		}
		out[i] = one
		for j := range xVals {
			if i == j {
				continue
			}
			// Perform ( x[j] * ( x[j] - x[i] )^-1 )
			diff, err := xVals[j].Subtract(xVals[i]).Inverse()
			if err != nil {
				return nil, autherr.Wrap(autherr.NoInverse, err, "shares %d and %d collide", x[i], x[j])
			}
			out[i] = out[i].Multiply(xVals[j]).Multiply(diff)
		}
	}
	return out, nil
}

func validateSplitInput(metadata secrets.Metadata, secret *big.Int, gf field.GaloisField) error {
	p := gf.Order()
	if metadata.Modulus != nil && metadata.Modulus.Cmp(p) != 0 {
		return autherr.New(autherr.InvalidParameters, "modulus mismatch: metadata %v, field %v", metadata.Modulus, p)
	}
	if secret == nil {
		return autherr.New(autherr.InvalidParameters, "secret must not be nil")
	}
	if secret.Sign() < 0 || secret.Cmp(p) >= 0 {
		return autherr.New(autherr.InvalidParameters, "secret must be in [0, %v]", new(big.Int).Sub(p, big.NewInt(1)))
	}
	if metadata.Threshold < 1 {
		return autherr.New(autherr.InvalidParameters, "threshold must be at least 1, got %d", metadata.Threshold)
	}
	if metadata.Threshold > metadata.NumShares {
		return autherr.New(autherr.InvalidParameters, "threshold %d should be smaller than or equal to numShares %d", metadata.Threshold, metadata.NumShares)
	}
	if big.NewInt(int64(metadata.Threshold)).Cmp(p) > 0 {
		return autherr.New(autherr.InvalidParameters, "threshold %d exceeds the modulus %v", metadata.Threshold, p)
	}
	// Shares are evaluated at x = 1..n, which must stay distinct and non-zero modulo p.
	if big.NewInt(int64(metadata.NumShares)).Cmp(p) >= 0 {
		return autherr.New(autherr.InvalidParameters, "numShares %d must be smaller than the modulus %v", metadata.NumShares, p)
	}
	return nil
}

func validateReconstructInput(splitSecret secrets.Split) error {
	md := splitSecret.Metadata
	if md.Threshold < 1 {
		return autherr.New(autherr.InvalidParameters, "threshold should be at least 1")
	}
	if md.NumShares < md.Threshold {
		return autherr.New(autherr.InvalidParameters, "threshold larger than number of shares")
	}
	if len(splitSecret.Shares) < md.Threshold {
		return autherr.New(autherr.InvalidParameters, "not enough shares to reconstruct the secret, need at least %d, got: %d", md.Threshold, len(splitSecret.Shares))
	}
	return nil
}

func validateShare(s secrets.Share, gf field.GaloisField) error {
	if s.X <= 0 {
		return autherr.New(autherr.InvalidParameters, "invalid X value %d", s.X)
	}
	if s.Y == nil {
		return autherr.New(autherr.InvalidParameters, "empty share value for X = %d", s.X)
	}
	if s.Y.Sign() < 0 || s.Y.Cmp(gf.Order()) >= 0 {
		return autherr.New(autherr.InvalidParameters, "share value for X = %d is outside the field", s.X)
	}
	return nil
}
