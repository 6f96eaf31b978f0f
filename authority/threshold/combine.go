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

package threshold

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/GoogleCloudPlatform/tallyauthority/authority/autherr"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/elgamal"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/internal/secret_sharing/shamir"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// Combine recovers the shared secret c1^x from partial decryptions of at
// least threshold distinct authorities: s = prod v_i^lambda_i mod P, with the
// Lagrange weights lambda_i taken over Z/QZ.
func Combine(partials []PartialDecryption, group Group) (*big.Int, error) {
	if len(partials) == 0 {
		return nil, autherr.New(autherr.InvalidParameters, "no partial decryptions provided")
	}
	xs := make([]int, len(partials))
	for i, pd := range partials {
		if pd.Value == nil || pd.Value.Sign() <= 0 || pd.Value.Cmp(group.P) >= 0 {
			return nil, autherr.New(autherr.BadInput, "partial decryption from authority %d is not in [1, %v)", pd.X, group.P)
		}
		xs[i] = pd.X
	}
	lambdas, err := shamir.LagrangeCoefficients(xs, group.Q)
	if err != nil {
		return nil, autherr.Wrap(autherr.NoInverse, err, "combining partial decryptions")
	}
	s := big.NewInt(1)
	for i, pd := range partials {
		s.Mul(s, new(big.Int).Exp(pd.Value, lambdas[i], group.P))
		s.Mod(s, group.P)
	}
	return s, nil
}

// Combiner decrypts ciphertexts by asking its authorities for partial
// decryptions. It never sees a share.
type Combiner struct {
	Group       Group
	Threshold   int
	Authorities []Decrypter
}

// Partials contacts every authority concurrently and returns the first
// Threshold successful partial decryptions, ordered by index. It returns as
// soon as Threshold authorities have answered; the context passed to the
// remaining authorities is then cancelled and their results are discarded.
// Failures are only reported when fewer than Threshold authorities answered.
func (c *Combiner) Partials(ctx context.Context, c1 *big.Int) ([]PartialDecryption, error) {
	if c.Threshold < 1 {
		return nil, autherr.New(autherr.InvalidParameters, "threshold must be positive, got %d", c.Threshold)
	}
	if err := c.Group.checkC1(c1); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		partials []PartialDecryption
		errs     error
		seen     = map[int]bool{}
		quorum   = make(chan struct{})
	)
	var g errgroup.Group
	for _, a := range c.Authorities {
		a := a
		g.Go(func() error {
			pd, err := a.PartialDecrypt(ctx, c1)
			if err == nil && pd.X != a.Index() {
				err = autherr.New(autherr.BadInput, "answered for index %d", pd.X)
			}
			mu.Lock()
			defer mu.Unlock()
			if len(partials) >= c.Threshold {
				return nil
			}
			switch {
			case err != nil:
				errs = multierr.Append(errs, fmt.Errorf("authority %d: %w", a.Index(), err))
			case seen[pd.X]:
				errs = multierr.Append(errs, fmt.Errorf("authority %d: duplicate index", a.Index()))
			default:
				seen[pd.X] = true
				partials = append(partials, pd)
				if len(partials) == c.Threshold {
					close(quorum)
					cancel()
				}
			}
			return nil
		})
	}
	finished := make(chan struct{})
	go func() {
		g.Wait()
		close(finished)
	}()
	select {
	case <-quorum:
	case <-finished:
	}

	mu.Lock()
	defer mu.Unlock()
	if len(partials) < c.Threshold {
		msg := fmt.Sprintf("only %d of %d required partial decryptions succeeded", len(partials), c.Threshold)
		if errs == nil {
			return nil, autherr.New(autherr.InvalidParameters, "%s", msg)
		}
		return nil, autherr.Wrap(autherr.InvalidParameters, errs, "%s", msg)
	}
	out := append([]PartialDecryption(nil), partials...)
	sort.Slice(out, func(i, j int) bool { return out[i].X < out[j].X })
	return out, nil
}

// Decrypt returns the plaintext residue of ct.
func (c *Combiner) Decrypt(ctx context.Context, ct elgamal.Ciphertext) (*big.Int, error) {
	if ct.C1 == nil || ct.C2 == nil {
		return nil, autherr.New(autherr.BadInput, "ciphertext must contain both c1 and c2")
	}
	partials, err := c.Partials(ctx, ct.C1)
	if err != nil {
		return nil, err
	}
	s, err := Combine(partials, c.Group)
	if err != nil {
		return nil, err
	}
	return elgamal.Unblind(ct, s, c.Group.P)
}
