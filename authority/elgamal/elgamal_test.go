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

package elgamal

import (
	"math/big"
	"testing"

	"github.com/GoogleCloudPlatform/tallyauthority/authority/autherr"
	"github.com/google/go-cmp/cmp"
)

var (
	p   = big.NewInt(23)
	g   = big.NewInt(5)
	key = big.NewInt(15)
)

func testKey(t *testing.T) PublicKey {
	t.Helper()
	pub, err := NewPublicKey(p, g, key)
	if err != nil {
		t.Fatalf("NewPublicKey() err = %v, want nil", err)
	}
	return pub
}

func TestNewPublicKey(t *testing.T) {
	pub := testKey(t)
	// 5^15 mod 23 = 19.
	if diff := cmp.Diff("19", pub.H.String()); diff != "" {
		t.Errorf("NewPublicKey().H mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripEveryPlaintext(t *testing.T) {
	pub := testKey(t)
	for m := int64(0); m < 23; m++ {
		for k := int64(1); k < 22; k++ {
			ct, err := Encrypt(big.NewInt(m), pub, big.NewInt(k))
			if err != nil {
				t.Fatalf("Encrypt(%d, k=%d) err = %v", m, k, err)
			}
			got, err := Decrypt(ct, key, p)
			if err != nil {
				t.Fatalf("Decrypt(%v) err = %v", ct, err)
			}
			if got.Int64() != m {
				t.Errorf("Decrypt(Encrypt(%d, k=%d)) = %v", m, k, got)
			}
		}
	}
}

func TestRoundTripRandomEphemeral(t *testing.T) {
	pub := testKey(t)
	for m := int64(0); m < 23; m++ {
		ct, err := EncryptRandom(big.NewInt(m), pub)
		if err != nil {
			t.Fatalf("EncryptRandom(%d) err = %v", m, err)
		}
		if ct.C1.Sign() == 0 {
			t.Fatalf("EncryptRandom(%d) produced c1 = 0", m)
		}
		got, err := Decrypt(ct, key, p)
		if err != nil {
			t.Fatal(err)
		}
		if got.Int64() != m {
			t.Errorf("Decrypt(EncryptRandom(%d)) = %v", m, got)
		}
	}
}

func TestDecryptKnownCiphertext(t *testing.T) {
	// k = 3: c1 = 5^3 = 10, c2 = 5 * 19^3 = 5 * 5 = 2 (mod 23).
	ct := Ciphertext{C1: big.NewInt(10), C2: big.NewInt(2)}
	got, err := Decrypt(ct, key, p)
	if err != nil {
		t.Fatal(err)
	}
	if got.Int64() != 5 {
		t.Errorf("Decrypt(%v) = %v, want 5", ct, got)
	}
}

func TestDecryptFailures(t *testing.T) {
	for _, tc := range []struct {
		tag  string
		ct   Ciphertext
		key  *big.Int
		p    *big.Int
		want autherr.Kind
	}{
		{
			tag:  "c1 is zero",
			ct:   Ciphertext{C1: big.NewInt(0), C2: big.NewInt(7)},
			key:  key,
			p:    p,
			want: autherr.Decryption,
		},
		{
			tag:  "c1 is a multiple of p",
			ct:   Ciphertext{C1: big.NewInt(46), C2: big.NewInt(7)},
			key:  key,
			p:    p,
			want: autherr.Decryption,
		},
		{
			tag:  "missing c2",
			ct:   Ciphertext{C1: big.NewInt(3)},
			key:  key,
			p:    p,
			want: autherr.BadInput,
		},
		{
			tag:  "composite modulus",
			ct:   Ciphertext{C1: big.NewInt(3), C2: big.NewInt(7)},
			key:  key,
			p:    big.NewInt(22),
			want: autherr.InvalidParameters,
		},
		{
			tag:  "negative key",
			ct:   Ciphertext{C1: big.NewInt(3), C2: big.NewInt(7)},
			key:  big.NewInt(-1),
			p:    p,
			want: autherr.InvalidParameters,
		},
	} {
		t.Run(tc.tag, func(t *testing.T) {
			_, err := Decrypt(tc.ct, tc.key, tc.p)
			if got := autherr.KindOf(err); got != tc.want {
				t.Errorf("Decrypt() err = %v (kind %v), want kind %v", err, got, tc.want)
			}
		})
	}
}

func TestDecryptZeroC1KeepsNoInverseCause(t *testing.T) {
	_, err := Decrypt(Ciphertext{C1: big.NewInt(0), C2: big.NewInt(7)}, key, p)
	if !autherr.Has(err, autherr.NoInverse) {
		t.Errorf("Decrypt() err = %v, want NoInverse in the chain", err)
	}
}

func TestEncryptRejectsInvalidInput(t *testing.T) {
	pub := testKey(t)
	for _, tc := range []struct {
		tag string
		m   *big.Int
		pub PublicKey
		k   *big.Int
	}{
		{tag: "plaintext too large", m: big.NewInt(23), pub: pub, k: big.NewInt(3)},
		{tag: "zero ephemeral", m: big.NewInt(1), pub: pub, k: big.NewInt(0)},
		{tag: "generator one", m: big.NewInt(1), pub: PublicKey{P: p, G: big.NewInt(1), H: pub.H}, k: big.NewInt(3)},
		{tag: "zero public key", m: big.NewInt(1), pub: PublicKey{P: p, G: g, H: big.NewInt(0)}, k: big.NewInt(3)},
	} {
		t.Run(tc.tag, func(t *testing.T) {
			if _, err := Encrypt(tc.m, tc.pub, tc.k); err == nil {
				t.Errorf("Encrypt() err = nil, want error")
			}
		})
	}
}

func TestAddMultipliesPlaintexts(t *testing.T) {
	pub := testKey(t)
	a, err := Encrypt(big.NewInt(3), pub, big.NewInt(4))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encrypt(big.NewInt(7), pub, big.NewInt(9))
	if err != nil {
		t.Fatal(err)
	}
	sum, err := Add(a, b, p)
	if err != nil {
		t.Fatalf("Add() err = %v", err)
	}
	got, err := Decrypt(sum, key, p)
	if err != nil {
		t.Fatal(err)
	}
	// 3 * 7 = 21 (mod 23).
	if got.Int64() != 21 {
		t.Errorf("Decrypt(Add()) = %v, want 21", got)
	}
}
