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

package tally

import (
	"math/big"
	"testing"
)

func TestInterpret(t *testing.T) {
	p := big.NewInt(23)
	for _, tc := range []struct {
		tag      string
		residue  int64
		wantD    int64
		wantOut  Outcome
		wantText string
	}{
		{tag: "zero is a tie", residue: 0, wantD: 0, wantOut: Tied, wantText: "The vote is tied!"},
		{tag: "small lead for A", residue: 5, wantD: 5, wantOut: AWins, wantText: "Party A wins by 5 votes"},
		{tag: "half stays positive", residue: 11, wantD: 11, wantOut: AWins, wantText: "Party A wins by 11 votes"},
		{tag: "above half wraps", residue: 12, wantD: -11, wantOut: BWins, wantText: "Party B wins by 11 votes"},
		{tag: "p-1 is minus one", residue: 22, wantD: -1, wantOut: BWins, wantText: "Party B wins by 1 votes"},
		{tag: "unreduced residue", residue: 45, wantD: -1, wantOut: BWins, wantText: "Party B wins by 1 votes"},
	} {
		t.Run(tc.tag, func(t *testing.T) {
			got := Interpret(big.NewInt(tc.residue), p)
			if got.Differential.Int64() != tc.wantD {
				t.Errorf("Interpret(%d).Differential = %v, want %d", tc.residue, got.Differential, tc.wantD)
			}
			if got.Outcome != tc.wantOut {
				t.Errorf("Interpret(%d).Outcome = %v, want %v", tc.residue, got.Outcome, tc.wantOut)
			}
			if got.Verdict() != tc.wantText {
				t.Errorf("Interpret(%d).Verdict() = %q, want %q", tc.residue, got.Verdict(), tc.wantText)
			}
		})
	}
}

func TestInterpretCoversSignedRange(t *testing.T) {
	p := big.NewInt(23)
	seen := map[int64]bool{}
	for r := int64(0); r < 23; r++ {
		d := Interpret(big.NewInt(r), p).Differential.Int64()
		if d <= -12 || d > 11 {
			t.Errorf("Interpret(%d) = %d, outside (-23/2, 23/2]", r, d)
		}
		seen[d] = true
	}
	if len(seen) != 23 {
		t.Errorf("mapping is not a bijection, %d distinct differentials", len(seen))
	}
}

func TestInterpretDoesNotAliasResidue(t *testing.T) {
	r := big.NewInt(22)
	_ = Interpret(r, big.NewInt(23))
	if r.Int64() != 22 {
		t.Errorf("Interpret modified its input to %v", r)
	}
}
