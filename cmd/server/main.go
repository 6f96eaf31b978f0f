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

// Tally server binary.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"strings"

	"github.com/GoogleCloudPlatform/tallyauthority/authority"
	"github.com/GoogleCloudPlatform/tallyauthority/constants"
	"github.com/GoogleCloudPlatform/tallyauthority/server"
	glog "github.com/golang/glog"
)

var (
	port           = flag.Int("port", constants.HTTPPort, "service port")
	configFile     = flag.String("config-file", "", "Path to an authority config YAML file. Optional; the reference deployment is used otherwise.")
	allowedOrigins = flag.String("allowed-origins", "", "Comma-separated CORS origins. Empty allows any origin.")
)

func main() {
	flag.Parse()

	cfg := authority.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = authority.LoadConfig(*configFile); err != nil {
			glog.Fatalf("Failed to load config: %v", err)
		}
	}

	a, err := authority.New(cfg)
	if err != nil {
		glog.Fatalf("Failed to initialize decryption authority: %v", err)
	}
	defer a.Close()

	var origins []string
	if *allowedOrigins != "" {
		origins = strings.Split(*allowedOrigins, ",")
	}

	glog.Infof("Starting tally server on port %v (p = %v, %d of %d shares, %v mode).", *port, cfg.Modulus, cfg.Threshold, cfg.NumShares, a.Mode())
	if err := http.ListenAndServe(fmt.Sprintf(":%d", *port), server.NewTallyService(a, origins)); err != nil {
		glog.Errorf("Server stopped: %v", err)
	}
}
