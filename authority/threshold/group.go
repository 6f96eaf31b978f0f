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

// Package threshold implements threshold ElGamal decryption. A trusted dealer
// splits the private exponent into shares, each held by a separate Authority.
// To decrypt, a Combiner collects partial decryptions c1^y_i from a quorum of
// authorities and combines them with Lagrange weights in the exponent, so the
// private exponent is never assembled in one place.
//
// Shares live in Z/qZ where q is the prime order of the generator. Partial
// decryptions only combine correctly for c1 inside that subgroup, which is
// checked before any authority is contacted.
package threshold

import (
	"math/big"

	"github.com/GoogleCloudPlatform/tallyauthority/authority/autherr"
)

var one = big.NewInt(1)

// Group is the order-Q subgroup of Z/PZ^* generated by G.
type Group struct {
	P *big.Int
	G *big.Int
	Q *big.Int
}

// NewGroup validates and returns the group generated by g.
func NewGroup(p, g, q *big.Int) (Group, error) {
	grp := Group{P: p, G: g, Q: q}
	if err := grp.Validate(); err != nil {
		return Group{}, err
	}
	return Group{P: new(big.Int).Set(p), G: new(big.Int).Set(g), Q: new(big.Int).Set(q)}, nil
}

// Validate checks that P and Q are prime, Q divides P-1, and G is a
// non-identity element with G^Q = 1.
func (g Group) Validate() error {
	if g.P == nil || g.G == nil || g.Q == nil {
		return autherr.New(autherr.InvalidParameters, "group requires modulus, generator and group order")
	}
	if g.P.Cmp(big.NewInt(3)) < 0 || !g.P.ProbablyPrime(32) {
		return autherr.New(autherr.InvalidParameters, "modulus %v is not an odd prime", g.P)
	}
	if g.Q.Cmp(big.NewInt(2)) < 0 || !g.Q.ProbablyPrime(32) {
		return autherr.New(autherr.InvalidParameters, "group order %v is not prime", g.Q)
	}
	pMinusOne := new(big.Int).Sub(g.P, one)
	if new(big.Int).Mod(pMinusOne, g.Q).Sign() != 0 {
		return autherr.New(autherr.InvalidParameters, "group order %v does not divide %v", g.Q, pMinusOne)
	}
	if g.G.Cmp(big.NewInt(2)) < 0 || g.G.Cmp(g.P) >= 0 {
		return autherr.New(autherr.InvalidParameters, "generator must be in [2, %v)", g.P)
	}
	if new(big.Int).Exp(g.G, g.Q, g.P).Cmp(one) != 0 {
		return autherr.New(autherr.InvalidParameters, "generator %v does not have order %v mod %v", g.G, g.Q, g.P)
	}
	return nil
}

// Contains reports whether x, reduced mod P, is a non-zero element of the
// subgroup.
func (g Group) Contains(x *big.Int) bool {
	r := new(big.Int).Mod(x, g.P)
	if r.Sign() == 0 {
		return false
	}
	return new(big.Int).Exp(r, g.Q, g.P).Cmp(one) == 0
}

// PublicKey returns G^x mod P.
func (g Group) PublicKey(x *big.Int) *big.Int {
	return new(big.Int).Exp(g.G, x, g.P)
}

// checkC1 rejects a first ciphertext component the authorities cannot
// decrypt.
func (g Group) checkC1(c1 *big.Int) error {
	if c1 == nil {
		return autherr.New(autherr.BadInput, "ciphertext must contain c1")
	}
	if new(big.Int).Mod(c1, g.P).Sign() == 0 {
		return autherr.New(autherr.Decryption, "ciphertext c1 = %v is zero mod %v", c1, g.P)
	}
	if !g.Contains(c1) {
		return autherr.New(autherr.Decryption, "ciphertext c1 = %v is outside the order %v subgroup", c1, g.Q)
	}
	return nil
}
