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

// Package elgamal implements ElGamal encryption over the multiplicative group
// of Z/pZ. A ciphertext (c1, c2) = (g^k, m·h^k) decrypts under the private
// exponent x, h = g^x, to m = c2 · (c1^x)^-1.
package elgamal

import (
	"fmt"
	"math/big"

	"github.com/GoogleCloudPlatform/tallyauthority/authority/autherr"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/internal/field/primefield"
	"github.com/fentec-project/gofe/sample"
)

// Ciphertext is an ElGamal ciphertext pair.
type Ciphertext struct {
	C1 *big.Int
	C2 *big.Int
}

func (c Ciphertext) String() string {
	return fmt.Sprintf("(%v, %v)", c.C1, c.C2)
}

// PublicKey is the public half of an ElGamal key pair: H = G^x mod P.
type PublicKey struct {
	P *big.Int
	G *big.Int
	H *big.Int
}

// NewPublicKey derives the public key for private exponent x.
func NewPublicKey(p, g, x *big.Int) (PublicKey, error) {
	gf, err := primefield.New(p)
	if err != nil {
		return PublicKey{}, err
	}
	if x == nil || x.Sign() < 0 {
		return PublicKey{}, autherr.New(autherr.InvalidParameters, "private exponent must be non-negative")
	}
	if err := checkGenerator(g, p); err != nil {
		return PublicKey{}, err
	}
	return PublicKey{
		P: gf.Order(),
		G: new(big.Int).Set(g),
		H: gf.NewElement(g).Exp(x).BigInt(),
	}, nil
}

func checkGenerator(g, p *big.Int) error {
	if g == nil || g.Cmp(big.NewInt(2)) < 0 || g.Cmp(p) >= 0 {
		return autherr.New(autherr.InvalidParameters, "generator must be in [2, %v)", p)
	}
	return nil
}

// Encrypt encrypts m in [0, p-1] under pub with the ephemeral exponent k.
func Encrypt(m *big.Int, pub PublicKey, k *big.Int) (Ciphertext, error) {
	gf, err := primefield.New(pub.P)
	if err != nil {
		return Ciphertext{}, err
	}
	if err := checkGenerator(pub.G, pub.P); err != nil {
		return Ciphertext{}, err
	}
	if pub.H == nil || pub.H.Sign() <= 0 || pub.H.Cmp(pub.P) >= 0 {
		return Ciphertext{}, autherr.New(autherr.InvalidParameters, "public key must be in [1, %v)", pub.P)
	}
	if m == nil || m.Sign() < 0 || m.Cmp(pub.P) >= 0 {
		return Ciphertext{}, autherr.New(autherr.BadInput, "plaintext must be in [0, %v)", pub.P)
	}
	if k == nil || k.Sign() <= 0 {
		return Ciphertext{}, autherr.New(autherr.InvalidParameters, "ephemeral exponent must be positive")
	}
	return Ciphertext{
		C1: gf.NewElement(pub.G).Exp(k).BigInt(),
		C2: gf.NewElement(m).Multiply(gf.NewElement(pub.H).Exp(k)).BigInt(),
	}, nil
}

// EncryptRandom encrypts m under pub with an ephemeral exponent drawn
// uniformly from [1, p-2].
func EncryptRandom(m *big.Int, pub PublicKey) (Ciphertext, error) {
	if pub.P == nil || pub.P.Cmp(big.NewInt(3)) < 0 {
		return Ciphertext{}, autherr.New(autherr.InvalidParameters, "modulus %v too small for random encryption", pub.P)
	}
	sampler := sample.NewUniformRange(big.NewInt(1), new(big.Int).Sub(pub.P, big.NewInt(1)))
	k, err := sampler.Sample()
	if err != nil {
		return Ciphertext{}, fmt.Errorf("sampling ephemeral exponent: %w", err)
	}
	return Encrypt(m, pub, k)
}

// Decrypt recovers the plaintext residue of ct under the private exponent key:
// s = c1^key mod p, m = c2 · s^-1 mod p. A shared secret without inverse
// (c1 ≡ 0) is reported as a Decryption error.
func Decrypt(ct Ciphertext, key, p *big.Int) (*big.Int, error) {
	if key == nil || key.Sign() < 0 {
		return nil, autherr.New(autherr.InvalidParameters, "private exponent must be non-negative")
	}
	if err := checkCiphertext(ct); err != nil {
		return nil, err
	}
	gf, err := primefield.New(p)
	if err != nil {
		return nil, err
	}
	s := gf.NewElement(ct.C1).Exp(key)
	return Unblind(ct, s.BigInt(), p)
}

// Unblind removes the shared secret s = c1^x from c2. It is the final step of
// both single-key and threshold decryption.
func Unblind(ct Ciphertext, s, p *big.Int) (*big.Int, error) {
	if err := checkCiphertext(ct); err != nil {
		return nil, err
	}
	gf, err := primefield.New(p)
	if err != nil {
		return nil, err
	}
	sInv, err := gf.NewElement(s).Inverse()
	if err != nil {
		return nil, autherr.Wrap(autherr.Decryption, err, "ciphertext c1 = %v is not invertible", ct.C1)
	}
	return gf.NewElement(ct.C2).Multiply(sInv).BigInt(), nil
}

// Add combines two ciphertexts under the same key component-wise. The result
// decrypts to the product of the two plaintexts; encoding votes as powers of
// the generator turns this into a sum of exponents.
func Add(a, b Ciphertext, p *big.Int) (Ciphertext, error) {
	if err := checkCiphertext(a); err != nil {
		return Ciphertext{}, err
	}
	if err := checkCiphertext(b); err != nil {
		return Ciphertext{}, err
	}
	gf, err := primefield.New(p)
	if err != nil {
		return Ciphertext{}, err
	}
	return Ciphertext{
		C1: gf.NewElement(a.C1).Multiply(gf.NewElement(b.C1)).BigInt(),
		C2: gf.NewElement(a.C2).Multiply(gf.NewElement(b.C2)).BigInt(),
	}, nil
}

func checkCiphertext(ct Ciphertext) error {
	if ct.C1 == nil || ct.C2 == nil {
		return autherr.New(autherr.BadInput, "ciphertext must contain both c1 and c2")
	}
	return nil
}
