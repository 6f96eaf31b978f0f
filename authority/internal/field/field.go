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

// Package field defines a generic definition of a finite field.
package field

import "math/big"

// Element is an element in a Finite Field. Elements are immutable, every
// operation returns a new element.
type Element interface {
	// Add element `a` and returns a new element.
	Add(a Element) Element
	// Subtract element `a` and returns a new element.
	Subtract(a Element) Element
	// Multiply by element `a` and returns a new element.
	Multiply(a Element) Element
	// Exp raises the element to the non-negative power `e`.
	Exp(e *big.Int) Element
	// Inverse returns an element that's the multiplicative inverse.
	// If element has no inverse, an error is returned.
	Inverse() (Element, error)
	// Equal returns true if both elements hold the same value.
	Equal(b Element) bool
	// IsZero returns true for the additive identity.
	IsZero() bool
	// BigInt returns a copy of the element value in the range [0, order).
	BigInt() *big.Int
}

// GaloisField represents a Finite Field.
type GaloisField interface {
	// CreateElement creates a new field element from i, reduced modulo the field order.
	CreateElement(i int) (Element, error)
	// NewElement creates a new field element from v, reduced modulo the field order.
	NewElement(v *big.Int) Element
	// NewRandomNonZero generates a random element inside the field.
	// The random element is assumed to be good enough for cryptographic purposes.
	NewRandomNonZero() (Element, error)
	// Order returns a copy of the number of elements in the field.
	Order() *big.Int
}
