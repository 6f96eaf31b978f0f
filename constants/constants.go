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

// Package constants contains shared constants between the tally server, the
// authority nodes and the command line tools.
package constants

// Version is reported by `tally version`.
const Version = "0.3.0"

// HTTPPort is the default listening port for the tally HTTP server.
const HTTPPort = 9755

// AuthorityPort is the default gRPC port of an authority node. Nodes started
// from a roster listen on AuthorityPort + index - 1, above HTTPPort.
const AuthorityPort = 9760

// ReceiveVotesPath is the HTTP route accepting encrypted tallies.
const ReceiveVotesPath = "/api/receive-votes"

// HealthPath is the HTTP liveness route.
const HealthPath = "/healthz"

// MaxRequestBytes caps the size of a request body accepted by the tally server.
const MaxRequestBytes = 1 << 20

// Reference deployment parameters. They seed authority.DefaultConfig and are
// overridden by a config file.
const (
	DefaultModulus    = 23
	DefaultGenerator  = 5
	DefaultNumShares  = 5
	DefaultThreshold  = 3
	DefaultPrivateKey = 15
)

// DefaultConfigName is the config file looked up in the user config directory.
const DefaultConfigName = "tallyauthority.yaml"
