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

// Package server contains the tally HTTP front end and the gRPC service run
// by each threshold authority node.
package server

import (
	"context"
	"math/big"

	"github.com/GoogleCloudPlatform/tallyauthority/authority/autherr"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/threshold"
	glog "github.com/golang/glog"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// AuthorityService serves partial decryptions for the single share held by
// one authority node.
type AuthorityService struct {
	authority *threshold.Authority
}

// NewAuthorityService creates an instance of AuthorityService.
func NewAuthorityService(a *threshold.Authority) *AuthorityService {
	return &AuthorityService{authority: a}
}

// PartialDecrypt returns c1^y for the held share y.
func (s *AuthorityService) PartialDecrypt(ctx context.Context, req *threshold.PartialDecryptRequest) (*threshold.PartialDecryptResponse, error) {
	reqID := uuid.New().String()

	c1, ok := new(big.Int).SetString(req.C1, 10)
	if !ok {
		err := autherr.New(autherr.BadInput, "c1 %q is not a decimal integer", req.C1)
		glog.Warningf("PartialDecrypt %v: %v", reqID, err)
		return nil, threshold.StatusError(err)
	}

	pd, err := s.authority.PartialDecrypt(ctx, c1)
	if err != nil {
		glog.Warningf("PartialDecrypt %v: authority %d failed: %v", reqID, s.authority.Index(), err)
		return nil, threshold.StatusError(err)
	}

	glog.Infof("PartialDecrypt %v: authority %d answered.", reqID, pd.X)
	return &threshold.PartialDecryptResponse{X: pd.X, Value: pd.Value.String()}, nil
}

// NewGRPCServer returns a gRPC server exposing a through AuthorityService,
// the standard health service and server reflection.
func NewGRPCServer(a *threshold.Authority, opts ...grpc.ServerOption) *grpc.Server {
	grpcServer := grpc.NewServer(opts...)
	reflection.Register(grpcServer)

	threshold.RegisterAuthorityServiceServer(grpcServer, NewAuthorityService(a))

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(threshold.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, hs)
	return grpcServer
}
