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
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/autherr"
)

// RosterEntry names the node serving one share.
type RosterEntry struct {
	Index   int
	Address string
}

// Roster lists every authority node of a deployment. Big integers are
// decimal strings since TOML integers are limited to 64 bits.
type Roster struct {
	Modulus     string
	Generator   string
	GroupOrder  string
	Threshold   int
	Authorities []RosterEntry
}

// ShareFile is the state of a single authority node.
type ShareFile struct {
	Index      int
	Share      string
	Address    string
	Modulus    string
	Generator  string
	GroupOrder string
}

func parseInt(name, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, autherr.New(autherr.InvalidParameters, "%s %q is not a decimal integer", name, s)
	}
	return v, nil
}

func parseGroup(p, g, q string) (Group, error) {
	pv, err := parseInt("modulus", p)
	if err != nil {
		return Group{}, err
	}
	gv, err := parseInt("generator", g)
	if err != nil {
		return Group{}, err
	}
	qv, err := parseInt("group order", q)
	if err != nil {
		return Group{}, err
	}
	return NewGroup(pv, gv, qv)
}

// Group returns the validated group the roster is defined over.
func (r Roster) Group() (Group, error) {
	return parseGroup(r.Modulus, r.Generator, r.GroupOrder)
}

// Authority returns the authority described by the share file.
func (sf ShareFile) Authority() (*Authority, error) {
	grp, err := parseGroup(sf.Modulus, sf.Generator, sf.GroupOrder)
	if err != nil {
		return nil, err
	}
	y, err := parseInt("share", sf.Share)
	if err != nil {
		return nil, err
	}
	return NewAuthority(grp, Share{X: sf.Index, Y: y})
}

// NewRoster describes authorities served at addresses, in index order.
func NewRoster(authorities []*Authority, t int, addresses []string) (Roster, error) {
	if len(authorities) == 0 {
		return Roster{}, autherr.New(autherr.InvalidParameters, "no authorities")
	}
	if len(addresses) != len(authorities) {
		return Roster{}, autherr.New(autherr.InvalidParameters, "%d addresses for %d authorities", len(addresses), len(authorities))
	}
	grp := authorities[0].Group()
	r := Roster{
		Modulus:    grp.P.String(),
		Generator:  grp.G.String(),
		GroupOrder: grp.Q.String(),
		Threshold:  t,
	}
	for i, a := range authorities {
		r.Authorities = append(r.Authorities, RosterEntry{Index: a.Index(), Address: addresses[i]})
	}
	return r, nil
}

// Validate checks the group, the threshold and that indices are distinct
// and positive.
func (r Roster) Validate() error {
	if _, err := r.Group(); err != nil {
		return err
	}
	if r.Threshold < 1 || r.Threshold > len(r.Authorities) {
		return autherr.New(autherr.InvalidParameters, "threshold %d must be in [1, %d]", r.Threshold, len(r.Authorities))
	}
	seen := map[int]bool{}
	for _, e := range r.Authorities {
		if e.Index <= 0 || seen[e.Index] {
			return autherr.New(autherr.InvalidParameters, "invalid or duplicate authority index %d", e.Index)
		}
		if e.Address == "" {
			return autherr.New(autherr.InvalidParameters, "authority %d has no address", e.Index)
		}
		seen[e.Index] = true
	}
	return nil
}

// LoadRoster reads and validates a TOML roster.
func LoadRoster(path string) (Roster, error) {
	var r Roster
	if _, err := toml.DecodeFile(path, &r); err != nil {
		return Roster{}, fmt.Errorf("error reading roster %v: %w", path, err)
	}
	if err := r.Validate(); err != nil {
		return Roster{}, fmt.Errorf("invalid roster %v: %w", path, err)
	}
	return r, nil
}

// LoadShareFile reads a TOML share file.
func LoadShareFile(path string) (ShareFile, error) {
	var sf ShareFile
	if _, err := toml.DecodeFile(path, &sf); err != nil {
		return ShareFile{}, fmt.Errorf("error reading share file %v: %w", path, err)
	}
	return sf, nil
}

// WriteTOML encodes v, a Roster or ShareFile, to w.
func WriteTOML(w io.Writer, v interface{}) error {
	return toml.NewEncoder(w).Encode(v)
}

// SaveTOML writes v to path, readable by the owner only.
func SaveTOML(path string, v interface{}) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	if err := WriteTOML(f, v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Dial connects to every node listed in the roster. The returned close
// function releases all connections.
func (r Roster) Dial() ([]Decrypter, func(), error) {
	var (
		decrypters []Decrypter
		closers    []func() error
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	for _, e := range r.Authorities {
		ra, closeFn, err := Dial(e.Index, e.Address)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		decrypters = append(decrypters, ra)
		closers = append(closers, closeFn)
	}
	return decrypters, closeAll, nil
}
