// Copyright 2021 Google LLC
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

// This binary is the command line tool for encrypting ballots and decrypting
// tallies against a decryption authority configuration.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"flag"

	"github.com/GoogleCloudPlatform/tallyauthority/authority"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/elgamal"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/tally"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/threshold"
	"github.com/GoogleCloudPlatform/tallyauthority/constants"
	"github.com/alecthomas/colour"
	glog "github.com/golang/glog"
	"github.com/google/subcommands"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"
)

func defaultConfigPath() string {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		glog.Errorf("Failed to get config directory location: %v", err.Error())
	}
	return fmt.Sprintf("%s/%s", cfgDir, constants.DefaultConfigName)
}

// loadConfig reads the config at path. A missing file at the default location
// falls back to the reference deployment.
func loadConfig(path string) (authority.Config, error) {
	cfg, err := authority.LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) && path == defaultConfigPath() {
		glog.V(1).Infof("No config at %v, using the reference deployment", path)
		return authority.DefaultConfig(), nil
	}
	return cfg, err
}

func parseInt(name, s string) (*big.Int, error) {
	n, err := authority.ParseNumber(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %v: %w", name, err)
	}
	return n.Int(), nil
}

// keygenCmd handles CLI options for the keygen command.
type keygenCmd struct {
	configFile string
}

func (*keygenCmd) Name() string     { return "keygen" }
func (*keygenCmd) Synopsis() string { return "prints the public key for the configured private key" }
func (*keygenCmd) Usage() string {
	return fmt.Sprintf(`Usage: tally keygen [--config-file=<config_file>]

Example:
  Print the public key using %s for configuration:
    $ tally keygen
    p = 23, g = 5, h = 19

Flags:
`, defaultConfigPath())
}
func (k *keygenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&k.configFile, "config-file", defaultConfigPath(), "Path to an authority config YAML file. Optional.")
}

func (k *keygenCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig(k.configFile)
	if err != nil {
		glog.Errorf("Failed to load config: %v", err.Error())
		return subcommands.ExitFailure
	}
	pub, err := cfg.PublicKey()
	if err != nil {
		glog.Errorf("Failed to derive public key: %v", err.Error())
		return subcommands.ExitFailure
	}
	fmt.Printf("p = %v, g = %v, h = %v\n", pub.P, pub.G, pub.H)
	return subcommands.ExitSuccess
}

// encryptCmd handles CLI options for the encryption command.
type encryptCmd struct {
	configFile string
	ephemeral  string
}

func (*encryptCmd) Name() string     { return "encrypt" }
func (*encryptCmd) Synopsis() string { return "encrypts a vote differential under the configured key" }
func (*encryptCmd) Usage() string {
	return `Usage: tally encrypt [--config-file=<config_file>] [--k=<ephemeral>] <m>

Examples:
  Encrypt a differential of 5 with a fresh ephemeral exponent:
    $ tally encrypt 5

  Encrypt with a fixed ephemeral exponent, for reproducible ciphertexts:
    $ tally encrypt --k=3 5
    c1 = 10, c2 = 2

Negative differentials are reduced modulo p.

Flags:
`
}
func (e *encryptCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&e.configFile, "config-file", defaultConfigPath(), "Path to an authority config YAML file. Optional.")
	f.StringVar(&e.ephemeral, "k", "", "Ephemeral exponent. Optional; drawn at random when empty.")
}

func (e *encryptCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 {
		glog.Errorf("Not enough arguments (expected plaintext m)")
		return subcommands.ExitFailure
	}
	cfg, err := loadConfig(e.configFile)
	if err != nil {
		glog.Errorf("Failed to load config: %v", err.Error())
		return subcommands.ExitFailure
	}
	pub, err := cfg.PublicKey()
	if err != nil {
		glog.Errorf("Failed to derive public key: %v", err.Error())
		return subcommands.ExitFailure
	}
	m, err := parseInt("plaintext", f.Arg(0))
	if err != nil {
		glog.Errorf("%v", err)
		return subcommands.ExitFailure
	}
	m.Mod(m, pub.P)

	var ct elgamal.Ciphertext
	if e.ephemeral == "" {
		ct, err = elgamal.EncryptRandom(m, pub)
	} else {
		var k *big.Int
		if k, err = parseInt("ephemeral exponent", e.ephemeral); err == nil {
			ct, err = elgamal.Encrypt(m, pub, k)
		}
	}
	if err != nil {
		glog.Errorf("Failed to encrypt: %v", err.Error())
		return subcommands.ExitFailure
	}
	fmt.Printf("c1 = %v, c2 = %v\n", ct.C1, ct.C2)
	return subcommands.ExitSuccess
}

// decryptCmd handles CLI options for the decryption command.
type decryptCmd struct {
	configFile string
	quiet      bool
}

func (*decryptCmd) Name() string     { return "decrypt" }
func (*decryptCmd) Synopsis() string { return "decrypts an encrypted tally and prints the verdict" }
func (*decryptCmd) Usage() string {
	return fmt.Sprintf(`Usage: tally decrypt [--config-file=<config_file>] <c1> <c2>

Example:
  Decrypt a tally using %s for configuration:
    $ tally decrypt 10 2
    Decrypted differential: 5
    Party A wins by 5 votes

Flags:
`, defaultConfigPath())
}
func (d *decryptCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&d.configFile, "config-file", defaultConfigPath(), "Path to an authority config YAML file. Optional.")
	f.BoolVar(&d.quiet, "quiet", false, "Print only the verdict.")
}

func (d *decryptCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 {
		glog.Errorf("Not enough arguments (expected c1 and c2)")
		return subcommands.ExitFailure
	}
	c1, err := parseInt("c1", f.Arg(0))
	if err != nil {
		glog.Errorf("%v", err)
		return subcommands.ExitFailure
	}
	c2, err := parseInt("c2", f.Arg(1))
	if err != nil {
		glog.Errorf("%v", err)
		return subcommands.ExitFailure
	}

	cfg, err := loadConfig(d.configFile)
	if err != nil {
		glog.Errorf("Failed to load config: %v", err.Error())
		return subcommands.ExitFailure
	}
	a, err := authority.New(cfg)
	if err != nil {
		glog.Errorf("Failed to initialize decryption authority: %v", err.Error())
		return subcommands.ExitFailure
	}
	defer a.Close()

	t, err := a.Decrypt(ctx, elgamal.Ciphertext{C1: c1, C2: c2})
	if err != nil {
		glog.Errorf("Failed to decrypt: %v", err.Error())
		return subcommands.ExitFailure
	}
	if !d.quiet {
		fmt.Println("Decrypted differential:", t.Differential)
	}
	switch t.Outcome {
	case tally.AWins:
		colour.Printf("^2%v^R\n", t.Verdict())
	case tally.BWins:
		colour.Printf("^4%v^R\n", t.Verdict())
	default:
		colour.Printf("^3%v^R\n", t.Verdict())
	}
	return subcommands.ExitSuccess
}

// splitCmd handles CLI options for the split command.
type splitCmd struct {
	configFile string
}

func (*splitCmd) Name() string     { return "split" }
func (*splitCmd) Synopsis() string { return "splits a secret into Shamir shares" }
func (*splitCmd) Usage() string {
	return `Usage: tally split [--config-file=<config_file>] <secret>

Prints num_shares shares of the secret as x:y, any threshold of which
reconstruct it, followed by the SHA-256 hash of each share.

Flags:
`
}
func (s *splitCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.configFile, "config-file", defaultConfigPath(), "Path to an authority config YAML file. Optional.")
}

func (s *splitCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 {
		glog.Errorf("Not enough arguments (expected secret)")
		return subcommands.ExitFailure
	}
	secret, err := parseInt("secret", f.Arg(0))
	if err != nil {
		glog.Errorf("%v", err)
		return subcommands.ExitFailure
	}
	cfg, err := loadConfig(s.configFile)
	if err != nil {
		glog.Errorf("Failed to load config: %v", err.Error())
		return subcommands.ExitFailure
	}

	shares, err := authority.GenerateShares(secret, cfg.NumShares, cfg.Threshold, cfg.Modulus.Int())
	if err != nil {
		glog.Errorf("Failed to split secret: %v", err.Error())
		return subcommands.ExitFailure
	}
	for _, sh := range shares {
		fmt.Printf("%d:%v\t%v\n", sh.X, sh.Y, hex.EncodeToString(authority.HashShare(sh)))
	}
	return subcommands.ExitSuccess
}

// combineCmd handles CLI options for the combine command.
type combineCmd struct {
	configFile string
}

func (*combineCmd) Name() string     { return "combine" }
func (*combineCmd) Synopsis() string { return "reconstructs a secret from Shamir shares" }
func (*combineCmd) Usage() string {
	return `Usage: tally combine [--config-file=<config_file>] <x:y> [<x:y> ...]

Example:
    $ tally combine 1:4 3:9 5:2

Every share given takes part in the interpolation; give at least the
configured threshold.

Flags:
`
}
func (c *combineCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configFile, "config-file", defaultConfigPath(), "Path to an authority config YAML file. Optional.")
}

func parseShare(s string) (authority.Share, error) {
	xs, ys, ok := strings.Cut(s, ":")
	if !ok {
		return authority.Share{}, fmt.Errorf("share %q is not of the form x:y", s)
	}
	x, err := strconv.Atoi(xs)
	if err != nil {
		return authority.Share{}, fmt.Errorf("share %q has invalid index: %v", s, err)
	}
	y, err := parseInt("share value", ys)
	if err != nil {
		return authority.Share{}, err
	}
	return authority.Share{X: x, Y: y}, nil
}

func (c *combineCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 {
		glog.Errorf("Not enough arguments (expected at least one share)")
		return subcommands.ExitFailure
	}
	cfg, err := loadConfig(c.configFile)
	if err != nil {
		glog.Errorf("Failed to load config: %v", err.Error())
		return subcommands.ExitFailure
	}
	var shares []authority.Share
	for _, arg := range f.Args() {
		sh, err := parseShare(arg)
		if err != nil {
			glog.Errorf("%v", err)
			return subcommands.ExitFailure
		}
		shares = append(shares, sh)
	}
	if len(shares) < cfg.Threshold {
		glog.Warningf("Only %d shares given, below the configured threshold of %d; the result will be wrong", len(shares), cfg.Threshold)
	}

	secret, err := authority.ReconstructSecret(shares, cfg.Modulus.Int())
	if err != nil {
		glog.Errorf("Failed to reconstruct secret: %v", err.Error())
		return subcommands.ExitFailure
	}
	fmt.Println(secret)
	return subcommands.ExitSuccess
}

// statusCmd handles CLI options for the status command.
type statusCmd struct {
	timeout time.Duration
}

func (*statusCmd) Name() string     { return "status" }
func (*statusCmd) Synopsis() string { return "queries the health of an authority node" }
func (*statusCmd) Usage() string {
	return fmt.Sprintf(`Usage: tally status [--timeout=<duration>] [<address>]

Example:
    $ tally status localhost:%d

Flags:
`, constants.AuthorityPort)
}
func (s *statusCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&s.timeout, "timeout", 5*time.Second, "Time to wait for the node to answer.")
}

func (s *statusCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	address := fmt.Sprintf("localhost:%d", constants.AuthorityPort)
	if f.NArg() > 0 {
		address = f.Arg(0)
	}
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		glog.Errorf("Failed to connect to %v: %v", address, err.Error())
		return subcommands.ExitFailure
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: threshold.ServiceName})
	if err != nil {
		glog.Errorf("Health check against %v failed: %v", address, err.Error())
		return subcommands.ExitFailure
	}
	out, err := protojson.Marshal(resp)
	if err != nil {
		glog.Errorf("Failed to marshal health response: %v", err.Error())
		return subcommands.ExitFailure
	}
	fmt.Println(string(out))
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// versionCmd handles CLI options for the version command.
type versionCmd struct{}

func (*versionCmd) Name() string           { return "version" }
func (*versionCmd) Synopsis() string       { return "prints the current version" }
func (*versionCmd) Usage() string          { return "Usage: tally version" }
func (*versionCmd) SetFlags(*flag.FlagSet) {}
func (*versionCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	fmt.Printf("Tally Version %s\n", constants.Version)
	return subcommands.ExitSuccess
}

func main() {
	flag.Parse()

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(&keygenCmd{}, "keys")
	subcommands.Register(&splitCmd{}, "keys")
	subcommands.Register(&combineCmd{}, "keys")
	subcommands.Register(&encryptCmd{}, "")
	subcommands.Register(&decryptCmd{}, "")
	subcommands.Register(&statusCmd{}, "")
	subcommands.Register(&versionCmd{}, "")

	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
