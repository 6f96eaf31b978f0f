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

package shamir

import (
	"math/big"
	"testing"

	"github.com/GoogleCloudPlatform/tallyauthority/authority/autherr"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/internal/secret_sharing/secrets"
	"github.com/google/go-cmp/cmp"
)

func TestSplitReconstruct(t *testing.T) {
	for _, tc := range []struct {
		tag       string
		modulus   int64
		secret    int64
		threshold int
		numShares int
	}{
		{tag: "reference deployment", modulus: 23, secret: 15, threshold: 3, numShares: 5},
		{tag: "zero secret", modulus: 23, secret: 0, threshold: 3, numShares: 5},
		{tag: "largest secret", modulus: 23, secret: 22, threshold: 3, numShares: 5},
		{tag: "all shares needed", modulus: 101, secret: 42, threshold: 7, numShares: 7},
		{tag: "smallest field", modulus: 2, secret: 1, threshold: 1, numShares: 1},
	} {
		t.Run(tc.tag, func(t *testing.T) {
			md := secrets.Metadata{Modulus: big.NewInt(tc.modulus), NumShares: tc.numShares, Threshold: tc.threshold}
			split, err := SplitSecret(md, big.NewInt(tc.secret))
			if err != nil {
				t.Fatalf("SplitSecret() err = %v, want nil", err)
			}
			got, err := Reconstruct(split)
			if err != nil {
				t.Fatalf("Reconstruct() err = %v, want nil", err)
			}
			if got.Cmp(big.NewInt(tc.secret)) != 0 {
				t.Errorf("Reconstruct() = %v, want %d", got, tc.secret)
			}
		})
	}
}

func TestSplitRejectsCompositeModulus(t *testing.T) {
	md := secrets.Metadata{Modulus: big.NewInt(22), NumShares: 5, Threshold: 3}
	if _, err := SplitSecret(md, big.NewInt(15)); autherr.KindOf(err) != autherr.InvalidParameters {
		t.Errorf("SplitSecret() err = %v, want InvalidParameters", err)
	}
	md.Modulus = nil
	if _, err := SplitSecret(md, big.NewInt(15)); autherr.KindOf(err) != autherr.InvalidParameters {
		t.Errorf("SplitSecret() with nil modulus err = %v, want InvalidParameters", err)
	}
}

func TestReconstructNoShares(t *testing.T) {
	if _, err := Reconstruct(secrets.Split{}); err == nil {
		t.Errorf("Reconstruct() of empty split err = nil, want error")
	}
}

func TestInterpolateKnownPolynomial(t *testing.T) {
	// f(x) = 15 + 3x + 7x^2 over Z/23Z.
	f := func(x int64) *big.Int {
		v := big.NewInt(15 + 3*x + 7*x*x)
		return v.Mod(v, big.NewInt(23))
	}
	shares := []secrets.Share{{X: 2, Y: f(2)}, {X: 4, Y: f(4)}, {X: 5, Y: f(5)}}
	got, err := Interpolate(shares, big.NewInt(23))
	if err != nil {
		t.Fatal(err)
	}
	if got.Cmp(big.NewInt(15)) != 0 {
		t.Errorf("Interpolate() = %v, want 15", got)
	}
}

func TestLagrangeCoefficients(t *testing.T) {
	// For x = {1, 2, 3}: L1 = 2*3/((2-1)(3-1)) = 3, L2 = 1*3/((1-2)(3-2)) = -3, L3 = 1*2/((1-3)(2-3)) = 1.
	got, err := LagrangeCoefficients([]int{1, 2, 3}, big.NewInt(23))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"3", "20", "1"}
	gotStr := []string{}
	for _, c := range got {
		gotStr = append(gotStr, c.String())
	}
	if diff := cmp.Diff(want, gotStr); diff != "" {
		t.Errorf("LagrangeCoefficients() mismatch (-want +got):\n%s", diff)
	}
}
