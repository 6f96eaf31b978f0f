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

// Package tally interprets a decrypted plaintext residue as the signed vote
// differential between Party A and Party B.
//
// The residue lies in [0, p-1]. Values up to p div 2 are read as a lead for
// Party A, larger values wrap around to a lead for Party B. The mapping is
// only meaningful when the true differential satisfies |d| <= p div 2; the
// modulus must be chosen larger than twice the largest possible differential,
// otherwise the winner is silently misclassified. This precondition is not
// checked here.
package tally

import (
	"fmt"
	"math/big"
)

// Outcome is the classification of a differential.
type Outcome int

const (
	// Tied means the differential is zero.
	Tied Outcome = iota
	// AWins means Party A leads.
	AWins
	// BWins means Party B leads.
	BWins
)

func (o Outcome) String() string {
	switch o {
	case Tied:
		return "Tied"
	case AWins:
		return "AWins"
	case BWins:
		return "BWins"
	default:
		return fmt.Sprintf("unknown outcome: %d", int(o))
	}
}

// Tally is a signed vote differential d = votes(A) - votes(B).
type Tally struct {
	Differential *big.Int
	Outcome      Outcome
}

// Interpret maps residue onto the signed range (-p/2, p/2] and classifies it.
// The residue is reduced modulo p first.
func Interpret(residue, p *big.Int) Tally {
	d := new(big.Int).Mod(residue, p)
	half := new(big.Int).Rsh(p, 1)
	if d.Cmp(half) > 0 {
		d.Sub(d, p)
	}
	t := Tally{Differential: d}
	switch d.Sign() {
	case 0:
		t.Outcome = Tied
	case 1:
		t.Outcome = AWins
	default:
		t.Outcome = BWins
	}
	return t
}

// Margin returns |d|, the number of votes the winner leads by.
func (t Tally) Margin() *big.Int {
	return new(big.Int).Abs(t.Differential)
}

// Verdict renders the human-readable result.
func (t Tally) Verdict() string {
	switch t.Outcome {
	case AWins:
		return fmt.Sprintf("Party A wins by %v votes", t.Margin())
	case BWins:
		return fmt.Sprintf("Party B wins by %v votes", t.Margin())
	default:
		return "The vote is tied!"
	}
}
