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

	"github.com/GoogleCloudPlatform/tallyauthority/authority/autherr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// RemoteAuthority is a Decrypter backed by an authority node reached over
// gRPC.
type RemoteAuthority struct {
	index int
	conn  grpc.ClientConnInterface
}

// NewRemoteAuthority wraps an established connection to the node holding
// share index.
func NewRemoteAuthority(index int, conn grpc.ClientConnInterface) *RemoteAuthority {
	return &RemoteAuthority{index: index, conn: conn}
}

// Dial connects to the node at address without transport security. The
// returned close function releases the connection.
func Dial(index int, address string, opts ...grpc.DialOption) (*RemoteAuthority, func() error, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("error connecting to authority %d at %v: %w", index, address, err)
	}
	return NewRemoteAuthority(index, conn), conn.Close, nil
}

// Index returns the share index the node is expected to hold.
func (r *RemoteAuthority) Index() int {
	return r.index
}

// PartialDecrypt asks the node for c1^y.
func (r *RemoteAuthority) PartialDecrypt(ctx context.Context, c1 *big.Int) (PartialDecryption, error) {
	if c1 == nil {
		return PartialDecryption{}, autherr.New(autherr.BadInput, "ciphertext must contain c1")
	}
	req := &PartialDecryptRequest{C1: c1.String()}
	resp := &PartialDecryptResponse{}
	if err := r.conn.Invoke(ctx, PartialDecryptMethod, req, resp, grpc.CallContentSubtype(CodecName)); err != nil {
		return PartialDecryption{}, FromStatus(err)
	}
	v, ok := new(big.Int).SetString(resp.Value, 10)
	if !ok {
		return PartialDecryption{}, autherr.New(autherr.BadInput, "authority %d returned malformed value %q", r.index, resp.Value)
	}
	return PartialDecryption{X: resp.X, Value: v}, nil
}
