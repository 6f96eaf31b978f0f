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
	"math/big"

	"github.com/GoogleCloudPlatform/tallyauthority/authority/autherr"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/internal/secret_sharing/secrets"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/internal/secret_sharing/shamir"
)

// Share is one evaluation of the dealer's polynomial over Z/QZ.
type Share = secrets.Share

// PartialDecryption is one authority's contribution c1^y mod P.
type PartialDecryption struct {
	X     int
	Value *big.Int
}

// Decrypter produces partial decryptions for a single share index.
type Decrypter interface {
	Index() int
	PartialDecrypt(ctx context.Context, c1 *big.Int) (PartialDecryption, error)
}

// Authority holds exactly one share of the private exponent. It is safe for
// concurrent use; the share never changes after construction.
type Authority struct {
	group Group
	share Share
}

// NewAuthority returns an authority holding share.
func NewAuthority(group Group, share Share) (*Authority, error) {
	if err := group.Validate(); err != nil {
		return nil, err
	}
	if share.X <= 0 || share.Y == nil || share.Y.Sign() < 0 || share.Y.Cmp(group.Q) >= 0 {
		return nil, autherr.New(autherr.InvalidParameters, "share must have a positive index and a value in [0, %v)", group.Q)
	}
	if big.NewInt(int64(share.X)).Cmp(group.Q) >= 0 {
		return nil, autherr.New(autherr.InvalidParameters, "share index %d must be below the group order %v", share.X, group.Q)
	}
	return &Authority{
		group: group,
		share: Share{X: share.X, Y: new(big.Int).Set(share.Y)},
	}, nil
}

// Deal splits secret into n shares over Z/QZ, any t of which can decrypt, and
// returns one Authority per share ordered by index.
func Deal(secret *big.Int, n, t int, group Group) ([]*Authority, error) {
	if err := group.Validate(); err != nil {
		return nil, err
	}
	md := secrets.Metadata{Modulus: group.Q, NumShares: n, Threshold: t}
	split, err := shamir.SplitSecret(md, secret)
	if err != nil {
		return nil, err
	}
	authorities := make([]*Authority, 0, n)
	for _, s := range split.Shares {
		a, err := NewAuthority(group, s)
		if err != nil {
			return nil, err
		}
		authorities = append(authorities, a)
	}
	return authorities, nil
}

// Index returns the x coordinate of the held share.
func (a *Authority) Index() int {
	return a.share.X
}

// Group returns the group the share belongs to.
func (a *Authority) Group() Group {
	return a.group
}

// PartialDecrypt returns c1^y mod P for the held share y. c1 must be a
// non-zero member of the order-Q subgroup.
func (a *Authority) PartialDecrypt(ctx context.Context, c1 *big.Int) (PartialDecryption, error) {
	if err := ctx.Err(); err != nil {
		return PartialDecryption{}, err
	}
	if err := a.group.checkC1(c1); err != nil {
		return PartialDecryption{}, err
	}
	r := new(big.Int).Mod(c1, a.group.P)
	return PartialDecryption{
		X:     a.share.X,
		Value: new(big.Int).Exp(r, a.share.Y, a.group.P),
	}, nil
}

// ShareFile returns the on-disk representation of the held share.
func (a *Authority) ShareFile(address string) ShareFile {
	return ShareFile{
		Index:      a.share.X,
		Share:      a.share.Y.String(),
		Address:    address,
		Modulus:    a.group.P.String(),
		Generator:  a.group.G.String(),
		GroupOrder: a.group.Q.String(),
	}
}
