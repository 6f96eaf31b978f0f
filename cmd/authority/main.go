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

// Binary authority deals threshold key shares and serves one of them to a
// tally combiner.
package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/GoogleCloudPlatform/tallyauthority/authority"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/threshold"
	"github.com/GoogleCloudPlatform/tallyauthority/constants"
	"github.com/GoogleCloudPlatform/tallyauthority/server"
	glog "github.com/golang/glog"
	"gopkg.in/urfave/cli.v1"
)

const rosterFileName = "roster.toml"

var cmds = cli.Commands{
	{
		Name:    "deal",
		Usage:   "split the private key of a threshold config into share files and a roster",
		Aliases: []string{"d"},
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "config, c",
				Usage: "authority config YAML in threshold mode, with private_key and group_order",
			},
			cli.StringFlag{
				Name:  "out, o",
				Value: ".",
				Usage: "directory to write share-<index>.toml and " + rosterFileName + " to",
			},
			cli.StringFlag{
				Name:  "addresses, a",
				Usage: "comma-separated node addresses in index order; defaults to localhost from the authority port upwards",
			},
		},
		Action: deal,
	},
	{
		Name:    "serve",
		Usage:   "serve partial decryptions for one share over gRPC",
		Aliases: []string{"s"},
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "share, s",
				Usage: "share file written by deal",
			},
			cli.StringFlag{
				Name:  "listen, l",
				Usage: "listen address; defaults to the address recorded in the share file",
			},
		},
		Action: serve,
	},
}

func main() {
	// glog registers its flags on the standard flag set, which cli does not parse.
	flag.Set("logtostderr", "true")
	flag.CommandLine.Parse(nil)

	cliApp := cli.NewApp()
	cliApp.Name = "authority"
	cliApp.Usage = "Run a threshold decryption authority node."
	cliApp.Version = constants.Version
	cliApp.Commands = cmds
	if err := cliApp.Run(os.Args); err != nil {
		glog.Errorf("%v", err)
		glog.Flush()
		os.Exit(1)
	}
	glog.Flush()
}

func defaultAddresses(n int) []string {
	addrs := make([]string, n)
	for i := range addrs {
		addrs[i] = fmt.Sprintf("localhost:%d", constants.AuthorityPort+i)
	}
	return addrs
}

func deal(c *cli.Context) error {
	fn := c.String("config")
	if fn == "" {
		return errors.New("--config flag is required")
	}
	cfg, err := authority.LoadConfig(fn)
	if err != nil {
		return err
	}
	if cfg.Mode != authority.ModeThreshold {
		return fmt.Errorf("config %v is not in threshold mode", fn)
	}
	grp, err := cfg.Group()
	if err != nil {
		return err
	}

	auths, err := threshold.Deal(cfg.PrivateKey.Int(), cfg.NumShares, cfg.Threshold, grp)
	if err != nil {
		return err
	}

	addrs := defaultAddresses(len(auths))
	if a := c.String("addresses"); a != "" {
		addrs = strings.Split(a, ",")
	}
	roster, err := threshold.NewRoster(auths, cfg.Threshold, addrs)
	if err != nil {
		return err
	}

	dir := c.String("out")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	for i, a := range auths {
		path := filepath.Join(dir, fmt.Sprintf("share-%d.toml", a.Index()))
		if err := threshold.SaveTOML(path, a.ShareFile(addrs[i])); err != nil {
			return fmt.Errorf("could not write share %d: %v", a.Index(), err)
		}
		fmt.Printf("Wrote share %d for %v to %v\n", a.Index(), addrs[i], path)
	}
	rosterPath := filepath.Join(dir, rosterFileName)
	if err := threshold.SaveTOML(rosterPath, roster); err != nil {
		return fmt.Errorf("could not write roster: %v", err)
	}
	pub, err := cfg.PublicKey()
	if err != nil {
		return err
	}
	fmt.Printf("Wrote roster to %v. Public key h = %v. Any %d of %d authorities can decrypt.\n", rosterPath, pub.H, cfg.Threshold, cfg.NumShares)
	return nil
}

func serve(c *cli.Context) error {
	fn := c.String("share")
	if fn == "" {
		return errors.New("--share flag is required")
	}
	sf, err := threshold.LoadShareFile(fn)
	if err != nil {
		return err
	}
	a, err := sf.Authority()
	if err != nil {
		return fmt.Errorf("invalid share file %v: %w", fn, err)
	}

	addr := c.String("listen")
	if addr == "" {
		addr = sf.Address
	}
	if addr == "" {
		addr = fmt.Sprintf(":%d", constants.AuthorityPort+a.Index()-1)
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %v", err)
	}

	grpcServer := server.NewGRPCServer(a)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		glog.Infof("Shutting down authority %d.", a.Index())
		grpcServer.GracefulStop()
	}()

	glog.Infof("Starting authority %d on %v.", a.Index(), lis.Addr())
	return grpcServer.Serve(lis)
}
