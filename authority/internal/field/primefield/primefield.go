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

// Package primefield implements the finite field Z/pZ for an arbitrary prime p.
package primefield

import (
	"fmt"
	"math/big"

	"github.com/GoogleCloudPlatform/tallyauthority/authority/autherr"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/internal/field"
	"github.com/google/tink/go/subtle/random"
)

const (
	// primalityRounds is the number of Miller-Rabin rounds used to accept a modulus.
	primalityRounds = 32
	// maxSamplingAttempts bounds rejection sampling. Every attempt succeeds with
	// probability of at least 1/4, so running out of attempts means the
	// random source is broken.
	maxSamplingAttempts = 128
)

// Element is an element in Z/pZ.
type Element struct {
	v *big.Int
	p *big.Int
}

var _ field.Element = (*Element)(nil)

// newElement takes ownership of v and reduces it into [0, p).
func newElement(v, p *big.Int) *Element {
	return &Element{v: v.Mod(v, p), p: p}
}

// Add element by 'x' modulo the field order.
func (e *Element) Add(x field.Element) field.Element {
	return newElement(new(big.Int).Add(e.v, x.(*Element).v), e.p)
}

// Subtract element by 'x' modulo the field order.
func (e *Element) Subtract(x field.Element) field.Element {
	return newElement(new(big.Int).Sub(e.v, x.(*Element).v), e.p)
}

// Multiply element by 'x' modulo the field order.
func (e *Element) Multiply(x field.Element) field.Element {
	return newElement(new(big.Int).Mul(e.v, x.(*Element).v), e.p)
}

// Exp raises the element to the power k modulo the field order. Negative
// exponents are not supported and yield the multiplicative identity.
func (e *Element) Exp(k *big.Int) field.Element {
	if k.Sign() < 0 {
		return newElement(big.NewInt(1), e.p)
	}
	return newElement(new(big.Int).Exp(e.v, k, e.p), e.p)
}

// Inverse returns the multiplicative inverse for an element in the field.
// Zero is the only element without one since the order is prime.
func (e *Element) Inverse() (field.Element, error) {
	inv := new(big.Int).ModInverse(e.v, e.p)
	if inv == nil {
		return nil, autherr.New(autherr.NoInverse, "%v has no inverse modulo %v", e.v, e.p)
	}
	return newElement(inv, e.p), nil
}

// Equal returns true if 'b' holds the same value.
func (e *Element) Equal(b field.Element) bool {
	return e.v.Cmp(b.(*Element).v) == 0
}

// IsZero returns true for the additive identity.
func (e *Element) IsZero() bool {
	return e.v.Sign() == 0
}

// BigInt returns a copy of the element value.
func (e *Element) BigInt() *big.Int {
	return new(big.Int).Set(e.v)
}

func (e *Element) String() string {
	return e.v.String()
}

// Field is the prime field Z/pZ.
type Field struct {
	p *big.Int
}

var _ field.GaloisField = (*Field)(nil)

// New creates Z/pZ. It fails if p is not a prime.
func New(p *big.Int) (*Field, error) {
	if p == nil || p.Cmp(big.NewInt(2)) < 0 {
		return nil, autherr.New(autherr.InvalidParameters, "modulus must be a prime of at least 2, got %v", p)
	}
	if !p.ProbablyPrime(primalityRounds) {
		return nil, autherr.New(autherr.InvalidParameters, "modulus %v is not prime", p)
	}
	return &Field{p: new(big.Int).Set(p)}, nil
}

// Order returns a copy of the field modulus.
func (f *Field) Order() *big.Int {
	return new(big.Int).Set(f.p)
}

// CreateElement creates an element in the field by performing a modulo
// operation over the field order.
func (f *Field) CreateElement(i int) (field.Element, error) {
	return newElement(big.NewInt(int64(i)), f.p), nil
}

// NewElement creates an element in the field from an arbitrary integer,
// negative values included.
func (f *Field) NewElement(v *big.Int) field.Element {
	return newElement(new(big.Int).Set(v), f.p)
}

// NewRandomNonZero returns a uniformly random element in [1, p-1], sampled
// from the operating system CSPRNG by rejection.
func (f *Field) NewRandomNonZero() (field.Element, error) {
	bitLen := f.p.BitLen()
	byteLen := (bitLen + 7) / 8
	mask := byte(0xFF >> uint(byteLen*8-bitLen))
	for i := 0; i < maxSamplingAttempts; i++ {
		b := random.GetRandomBytes(uint32(byteLen))
		b[0] &= mask
		r := new(big.Int).SetBytes(b)
		if r.Sign() != 0 && r.Cmp(f.p) < 0 {
			return newElement(r, f.p), nil
		}
	}
	return nil, fmt.Errorf("no non-zero element below %v after %d attempts", f.p, maxSamplingAttempts)
}
