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
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/GoogleCloudPlatform/tallyauthority/authority/autherr"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/elgamal"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/threshold"
	"github.com/GoogleCloudPlatform/tallyauthority/constants"
	"sigs.k8s.io/yaml"
)

// Mode selects how the private exponent is used.
type Mode string

const (
	// ModeReconstruct splits and reconstructs the private exponent on every
	// request, then decrypts with it.
	ModeReconstruct Mode = "reconstruct"
	// ModeThreshold combines partial decryptions from independent authorities.
	ModeThreshold Mode = "threshold"
)

// Config holds the deployment parameters of a decryption authority.
type Config struct {
	Modulus    Number `json:"modulus"`
	Generator  Number `json:"generator"`
	NumShares  int    `json:"num_shares"`
	Threshold  int    `json:"threshold"`
	PrivateKey Number `json:"private_key"`
	Mode       Mode   `json:"mode,omitempty"`
	// GroupOrder is the prime order of Generator. Required in threshold mode.
	GroupOrder Number `json:"group_order"`
	// Roster is a TOML roster of remote authorities. In threshold mode without
	// a roster, authorities are dealt in process from PrivateKey.
	Roster string `json:"roster,omitempty"`
}

// DefaultConfig returns the reference deployment: p = 23, g = 5, 3 of 5 shares.
func DefaultConfig() Config {
	return Config{
		Modulus:    NumberOf(constants.DefaultModulus),
		Generator:  NumberOf(constants.DefaultGenerator),
		NumShares:  constants.DefaultNumShares,
		Threshold:  constants.DefaultThreshold,
		PrivateKey: NumberOf(constants.DefaultPrivateKey),
		Mode:       ModeReconstruct,
	}
}

// LoadConfig reads a YAML config file and overlays it on DefaultConfig. The
// result is validated.
func LoadConfig(path string) (Config, error) {
	yamlBytes, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(yamlBytes)
}

// ParseConfig parses YAML config bytes. Unknown fields are rejected.
func ParseConfig(yamlBytes []byte) (Config, error) {
	jsonBytes, err := yaml.YAMLToJSON(yamlBytes)
	if err != nil {
		return Config{}, fmt.Errorf("failed to convert config YAML to JSON: %w", err)
	}
	cfg := DefaultConfig()
	if !bytes.Equal(bytes.TrimSpace(jsonBytes), []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(jsonBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, autherr.Wrap(autherr.InvalidParameters, err, "failed to unmarshal config")
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) mode() Mode {
	if c.Mode == "" {
		return ModeReconstruct
	}
	return c.Mode
}

// Validate checks the parameters once at startup so requests never fail on
// misconfiguration.
func (c Config) Validate() error {
	p, g := c.Modulus.Int(), c.Generator.Int()
	if p == nil || g == nil {
		return autherr.New(autherr.InvalidParameters, "modulus and generator are required")
	}
	if p.Cmp(big.NewInt(3)) < 0 || !p.ProbablyPrime(32) {
		return autherr.New(autherr.InvalidParameters, "modulus %v is not an odd prime", p)
	}
	if g.Cmp(big.NewInt(2)) < 0 || g.Cmp(p) >= 0 {
		return autherr.New(autherr.InvalidParameters, "generator %v must be in [2, %v)", g, p)
	}

	switch c.mode() {
	case ModeReconstruct:
		if err := checkShares(c.NumShares, c.Threshold, p); err != nil {
			return err
		}
		return checkKey(c.PrivateKey, p)
	case ModeThreshold:
		grp, err := c.Group()
		if err != nil {
			return err
		}
		if c.Roster != "" {
			return nil
		}
		if err := checkShares(c.NumShares, c.Threshold, grp.Q); err != nil {
			return err
		}
		return checkKey(c.PrivateKey, grp.Q)
	default:
		return autherr.New(autherr.InvalidParameters, "unknown mode %q", c.Mode)
	}
}

func checkShares(n, t int, modulus *big.Int) error {
	if t < 1 || t > n {
		return autherr.New(autherr.InvalidParameters, "threshold %d must be in [1, %d]", t, n)
	}
	if big.NewInt(int64(n)).Cmp(modulus) >= 0 {
		return autherr.New(autherr.InvalidParameters, "number of shares %d must be below %v", n, modulus)
	}
	return nil
}

func checkKey(key Number, modulus *big.Int) error {
	x := key.Int()
	if x == nil {
		return autherr.New(autherr.InvalidParameters, "private_key is required")
	}
	if x.Sign() < 0 || x.Cmp(modulus) >= 0 {
		return autherr.New(autherr.InvalidParameters, "private_key must be in [0, %v)", modulus)
	}
	return nil
}

// Group returns the threshold group described by the config.
func (c Config) Group() (threshold.Group, error) {
	if !c.GroupOrder.IsSet() {
		return threshold.Group{}, autherr.New(autherr.InvalidParameters, "group_order is required in threshold mode")
	}
	return threshold.NewGroup(c.Modulus.Int(), c.Generator.Int(), c.GroupOrder.Int())
}

// PublicKey derives the ElGamal public key from the configured private key.
func (c Config) PublicKey() (elgamal.PublicKey, error) {
	if !c.PrivateKey.IsSet() {
		return elgamal.PublicKey{}, autherr.New(autherr.InvalidParameters, "private_key is required to derive the public key")
	}
	return elgamal.NewPublicKey(c.Modulus.Int(), c.Generator.Int(), c.PrivateKey.Int())
}
