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

package authority

import (
	"context"
	"math/big"
	"testing"

	"github.com/GoogleCloudPlatform/tallyauthority/authority/autherr"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/elgamal"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/tally"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/threshold"
	"github.com/google/go-cmp/cmp"
)

func newAuthority(t *testing.T, cfg Config, opts ...Option) *DecryptionAuthority {
	t.Helper()
	a, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() err = %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func thresholdConfig() Config {
	cfg := DefaultConfig()
	cfg.Mode = ModeThreshold
	cfg.Generator = NumberOf(2)
	cfg.GroupOrder = NumberOf(11)
	cfg.PrivateKey = NumberOf(7)
	return cfg
}

type result struct {
	Differential string
	Outcome      tally.Outcome
	Verdict      string
}

func summarize(tl tally.Tally) result {
	return result{Differential: tl.Differential.String(), Outcome: tl.Outcome, Verdict: tl.Verdict()}
}

func TestEndToEndReferenceDeployment(t *testing.T) {
	a := newAuthority(t, DefaultConfig())
	// Plaintext 5 encrypted under exponent 15 with k = 3.
	ct := elgamal.Ciphertext{C1: big.NewInt(10), C2: big.NewInt(2)}

	got, err := a.Decrypt(context.Background(), ct)
	if err != nil {
		t.Fatalf("Decrypt(%v) err = %v", ct, err)
	}
	want := result{Differential: "5", Outcome: tally.AWins, Verdict: "Party A wins by 5 votes"}
	if diff := cmp.Diff(want, summarize(got)); diff != "" {
		t.Errorf("Decrypt(%v) mismatch (-want +got):\n%s", ct, diff)
	}
}

func TestDecryptEveryResidue(t *testing.T) {
	for _, tc := range []struct {
		tag string
		cfg Config
	}{
		{tag: "reconstruct", cfg: DefaultConfig()},
		{tag: "threshold", cfg: thresholdConfig()},
	} {
		t.Run(tc.tag, func(t *testing.T) {
			a := newAuthority(t, tc.cfg)
			pub, err := tc.cfg.PublicKey()
			if err != nil {
				t.Fatal(err)
			}
			for m := int64(0); m < 23; m++ {
				ct, err := elgamal.EncryptRandom(big.NewInt(m), pub)
				if err != nil {
					t.Fatal(err)
				}
				got, err := a.Decrypt(context.Background(), ct)
				if err != nil {
					t.Fatalf("Decrypt(%v) err = %v", ct, err)
				}
				want := tally.Interpret(big.NewInt(m), big.NewInt(23))
				if diff := cmp.Diff(summarize(want), summarize(got)); diff != "" {
					t.Errorf("Decrypt(Encrypt(%d)) mismatch (-want +got):\n%s", m, diff)
				}
			}
		})
	}
}

func TestDecryptWrapAroundIsPartyB(t *testing.T) {
	a := newAuthority(t, DefaultConfig())
	pub, err := DefaultConfig().PublicKey()
	if err != nil {
		t.Fatal(err)
	}
	ct, err := elgamal.Encrypt(big.NewInt(22), pub, big.NewInt(7))
	if err != nil {
		t.Fatal(err)
	}
	got, err := a.Decrypt(context.Background(), ct)
	if err != nil {
		t.Fatal(err)
	}
	want := result{Differential: "-1", Outcome: tally.BWins, Verdict: "Party B wins by 1 votes"}
	if diff := cmp.Diff(want, summarize(got)); diff != "" {
		t.Errorf("Decrypt() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecryptFailureKinds(t *testing.T) {
	for _, tc := range []struct {
		tag  string
		cfg  Config
		ct   elgamal.Ciphertext
		want autherr.Kind
	}{
		{tag: "reconstruct c1 zero", cfg: DefaultConfig(), ct: elgamal.Ciphertext{C1: big.NewInt(0), C2: big.NewInt(5)}, want: autherr.Decryption},
		{tag: "reconstruct missing c2", cfg: DefaultConfig(), ct: elgamal.Ciphertext{C1: big.NewInt(3)}, want: autherr.BadInput},
		{tag: "threshold c1 zero", cfg: thresholdConfig(), ct: elgamal.Ciphertext{C1: big.NewInt(0), C2: big.NewInt(5)}, want: autherr.Decryption},
		{tag: "threshold c1 outside subgroup", cfg: thresholdConfig(), ct: elgamal.Ciphertext{C1: big.NewInt(5), C2: big.NewInt(5)}, want: autherr.Decryption},
		{tag: "threshold missing c1", cfg: thresholdConfig(), ct: elgamal.Ciphertext{C2: big.NewInt(5)}, want: autherr.BadInput},
	} {
		t.Run(tc.tag, func(t *testing.T) {
			a := newAuthority(t, tc.cfg)
			_, err := a.Decrypt(context.Background(), tc.ct)
			if got := autherr.KindOf(err); got != tc.want {
				t.Errorf("Decrypt(%v) err = %v (kind %v), want kind %v", tc.ct, err, got, tc.want)
			}
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Threshold = 9
	if _, err := New(cfg); autherr.KindOf(err) != autherr.InvalidParameters {
		t.Errorf("New() err = %v, want InvalidParameters", err)
	}
}

func TestWithCombiner(t *testing.T) {
	cfg := thresholdConfig()
	grp, err := cfg.Group()
	if err != nil {
		t.Fatal(err)
	}
	dealt, err := threshold.Deal(big.NewInt(7), 4, 2, grp)
	if err != nil {
		t.Fatal(err)
	}
	// Only two of the four authorities are reachable.
	c := &threshold.Combiner{Group: grp, Threshold: 2, Authorities: []threshold.Decrypter{dealt[1], dealt[3]}}
	a := newAuthority(t, cfg, WithCombiner(c))

	pub, err := cfg.PublicKey()
	if err != nil {
		t.Fatal(err)
	}
	ct, err := elgamal.Encrypt(big.NewInt(0), pub, big.NewInt(5))
	if err != nil {
		t.Fatal(err)
	}
	got, err := a.Decrypt(context.Background(), ct)
	if err != nil {
		t.Fatal(err)
	}
	if got.Verdict() != "The vote is tied!" {
		t.Errorf("Decrypt() = %q, want a tie", got.Verdict())
	}
}

func TestModeResolvesUnsetToReconstruct(t *testing.T) {
	unset := DefaultConfig()
	unset.Mode = ""
	for _, tc := range []struct {
		tag  string
		cfg  Config
		want Mode
	}{
		{tag: "unset", cfg: unset, want: ModeReconstruct},
		{tag: "reconstruct", cfg: DefaultConfig(), want: ModeReconstruct},
		{tag: "threshold", cfg: thresholdConfig(), want: ModeThreshold},
	} {
		t.Run(tc.tag, func(t *testing.T) {
			a := newAuthority(t, tc.cfg)
			if diff := cmp.Diff(tc.want, a.Mode()); diff != "" {
				t.Errorf("Mode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
